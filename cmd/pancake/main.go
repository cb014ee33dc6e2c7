package main

import (
	"os"

	"pancakeswap-go/cmd/pancake/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
