// ./main.go
package main

import (
	"github.com/pagepilot-ai/pagepilot/cmd"
)

// main is the entry point for the PagePilot CLI.
func main() {
	// Execute handles command-line parsing, configuration, and execution.
	cmd.Execute()
}
