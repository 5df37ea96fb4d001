package main

import "github.com/dshills/jscontext-mcp/internal/cli"

func main() {
	cli.Execute()
}
