// Package main provides the leapdbml CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leapdbml/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
