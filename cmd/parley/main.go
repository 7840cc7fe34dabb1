// Command parley runs dialogues from the terminal, over HTTP or as an MCP
// server.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
