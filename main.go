// Command mcpchain runs chains of MCP servers as sequential pipelines.
package main

import "mcpchain/internal/cli"

func main() {
	cli.Execute()
}
