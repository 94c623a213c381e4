package main

import "github.com/vgrishin/shortreel/internal/cli"

func main() {
	cli.Main()
}
