package main

import (
	"os"

	"github.com/wonny/levy/cmd/levy/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
