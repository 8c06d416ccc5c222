package main

import "github.com/forPelevin/clipmash/internal/cli"

func main() {
	cli.Main()
}
