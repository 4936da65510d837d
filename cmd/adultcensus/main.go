package main

import "github.com/YuminosukeSato/adultcensus/internal/cli"

func main() {
	cli.Execute()
}
