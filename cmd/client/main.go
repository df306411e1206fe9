package main

import (
	"os"

	"github.com/dmitrijs2005/socialnet/cmd/client/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
