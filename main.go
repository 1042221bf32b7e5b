// Package main provides the entry point for cachesim.
// cachesim is a trace-driven cache simulator.
//
// For the full CLI, use: go run ./cmd/cachesim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("cachesim - Trace-Driven Cache Simulator")
	fmt.Println("")
	fmt.Println("Usage: cachesim run <config> <trace> [flags]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  run      Simulate a trace on the configured caches")
	fmt.Println("  decode   Show how each cache splits an address")
	fmt.Println("  config   Write a sample configuration")
	fmt.Println("  gen      Write a synthetic trace")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/cachesim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/cachesim' instead.")
	}
}
