// Package main provides the drnsf command.
package main

import (
	"os"

	"github.com/drnsf/drnsf/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
