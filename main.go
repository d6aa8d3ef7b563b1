package main

import "watch-catalog/internal/cli"

func main() {
	cli.Execute()
}
