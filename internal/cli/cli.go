// Package cli provides the command-line interface for finsight
package cli

import (
	"fmt"
	"os"
)

// Run starts the CLI application
func Run() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
