package main

import "github.com/brunomcduarte96/deploy-smartlegal/internal/cli"

func main() {
	cli.Execute()
}
