package main

import "github.com/Defacto2/unrar/internal/cli"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// main starts the unrar cli
func main() {
	cli.Run(version, commit, date)
}
