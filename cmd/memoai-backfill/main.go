// Package main is the entry point for the memoai-backfill CLI.
package main

import (
	"os"

	"github.com/Kairiskai/MemoAI/cmd/memoai-backfill/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
