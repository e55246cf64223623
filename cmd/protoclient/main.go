package main

import "protoclient/internal/cli"

func main() {
	cli.Execute()
}
