// Package main provides the entry point for the xtree CLI.
package main

import (
	"fmt"
	"os"

	"github.com/benz9527/xtree/cmd/xtree/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
