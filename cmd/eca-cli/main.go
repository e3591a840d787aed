package main

import (
	"os"

	"github.com/noah-isme/sma-eca-api/cmd/eca-cli/commands"
)

func main() {
	if err := commands.NewRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
