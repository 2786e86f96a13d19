// Command pagequest runs the family reading tracker.
package main

import "github.com/dukerupert/pagequest/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
