package main

import (
	"os"

	"github.com/ogaspar/ballast/cmd/ballast/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
