// Package main provides the petsales CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/petsales/internal/cli"
)

func main() {
	os.Exit(cli.ExitCode(cli.Execute()))
}
