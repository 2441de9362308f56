// skillgate: skill router and context budget MCP server
//
// skillgate sits between an AI coding assistant and a catalog of skills.
// It picks the skill that fits a request, enforces the order of workflow
// phases, and keeps loaded skills and files under a token ceiling.
//
// Usage:
//
//	skillgate serve              # Start MCP server (stdio transport)
//	skillgate analyze <request>  # Route one request and print the result
//	skillgate skills             # List the skill catalog
//	skillgate version            # Print the version
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Best effort: a missing .env is normal.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
