package main

import (
	"os"

	"github.com/meshup-dev/meshup/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
