package main

import "pwreset/internal/cli"

func main() {
	cli.Execute()
}
