package main

import (
	"os"

	"github.com/carebridge/carebridge/cmd/carebridge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
