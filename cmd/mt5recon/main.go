package main

import (
	"os"

	"github.com/rustyeddy/mt5recon/cmd/mt5recon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
