package main

import "github.com/iwtcode/ct400Adapter/internal/cli"

func main() {
	cli.Execute()
}
