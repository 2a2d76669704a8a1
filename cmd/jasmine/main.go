// Package main provides the entry point for the jasmine CLI.
package main

import (
	"fmt"
	"os"

	"github.com/jasmine-go/jasmine/cmd/jasmine/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
