package main

import "github.com/mcoot/pokersignup/internal/cli"

func main() {
	cli.Execute()
}
