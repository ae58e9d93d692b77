package main

import "relocate/internal/cli"

func main() {
	cli.Execute()
}
