package main

import (
	"os"

	"factorizer/cmd/factorizer/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
