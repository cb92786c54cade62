package main

import (
	"os"

	"kcguard/cmd/kcguard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
