package inbox

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestWatcherDetectsNewFile(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var received []string

	w := NewWatcher(dir, func(path string) {
		mu.Lock()
		received = append(received, path)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = w.Run(ctx) }()

	// Give the watcher time to start.
	time.Sleep(100 * time.Millisecond)

	// Write the job atomically, as the CLI does.
	jobPath := filepath.Join(dir, "audit-001.json")
	tmpPath := jobPath + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(`{"agent":"bot"}`), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmpPath, jobPath); err != nil {
		t.Fatal(err)
	}

	time.Sleep(500 * time.Millisecond)
	cancel()

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("expected 1 file, got %d", len(received))
	}
	if received[0] != jobPath {
		t.Errorf("got path %q, want %q", received[0], jobPath)
	}
}

func TestWatcherIgnoresTmpFiles(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	count := 0

	w := NewWatcher(dir, func(path string) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "job.json.tmp"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	time.Sleep(500 * time.Millisecond)
	cancel()

	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Errorf("expected 0 handled files, got %d", count)
	}
}

func TestPollWatcherDetectsAndDeduplicates(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var received []string

	pw := NewPollWatcher(dir, func(path string) {
		mu.Lock()
		received = append(received, path)
		mu.Unlock()
	}, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()

	if err := os.WriteFile(filepath.Join(dir, "audit-001.json"), []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}

	_ = pw.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("expected exactly 1 handled file, got %d", len(received))
	}
}

func TestScanExisting(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.json", "skip.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	var got []string
	if err := ScanExisting(dir, func(path string) {
		got = append(got, filepath.Base(path))
	}); err != nil {
		t.Fatalf("ScanExisting: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("handled %d files, want 2", len(got))
	}
	if got[0] != "a.json" || got[1] != "b.json" {
		t.Errorf("order = %v", got)
	}
}

func TestScanExistingMissingDir(t *testing.T) {
	if err := ScanExisting(filepath.Join(t.TempDir(), "nope"), func(string) {
		t.Error("handler should not run")
	}); err != nil {
		t.Fatalf("missing dir should be a no-op: %v", err)
	}
}

func TestIsJobFile(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"/inbox/audit-001.json", true},
		{"/inbox/audit-001.json.tmp", false},
		{"/inbox/notes.txt", false},
	}
	for _, c := range cases {
		if got := isJobFile(c.name); got != c.want {
			t.Errorf("isJobFile(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}
