// Package main is the entry point for the btg CLI.
// btg provides command-line access to the Bicol Travel Guide,
// a tourism platform for the Bicol region of the Philippines.
package main

import (
	"os"

	"github.com/bicoltravel/btg-cli/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
