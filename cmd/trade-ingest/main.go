// Package main is the entry point for trade-ingest.
package main

import (
	"fmt"
	"os"

	"github.com/livetrade/trade-ingest/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
