package main

import (
	"os"

	"github.com/stocktide/stocktide/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
