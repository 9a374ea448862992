package main

import "github.com/deployseal/deployseal/internal/cli"

func main() {
	cli.Execute()
}
