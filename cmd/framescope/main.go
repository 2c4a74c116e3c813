package main

import "github.com/emiliopalmerini/framescope/internal/cli"

func main() {
	cli.Execute()
}
