package main

import "github.com/mcoot/rpsls-go/internal/cli"

func main() {
	cli.Execute()
}
