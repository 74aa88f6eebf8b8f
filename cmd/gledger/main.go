package main

import (
	"os"

	"github.com/gledger-dev/gledger/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
