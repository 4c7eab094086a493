package main

import (
	"os"

	"github.com/majorcontext/keyload/cmd/keyload/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
