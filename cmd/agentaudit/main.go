package main

import "github.com/ryumin/agentaudit/internal/cli"

func main() {
	cli.Execute()
}
