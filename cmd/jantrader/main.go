package main

import "github.com/rustyeddy/jantrader/internal/cli"

func main() {
	cli.Execute()
}
