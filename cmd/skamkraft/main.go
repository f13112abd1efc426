package main

import "github.com/andrescamacho/skamkraft-go/internal/adapters/cli"

func main() {
	cli.Execute()
}
