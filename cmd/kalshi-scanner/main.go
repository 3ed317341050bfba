package main

import "github.com/jzOcb/kalshi-trading/internal/cli"

func main() {
	cli.Execute()
}
