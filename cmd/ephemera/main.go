package main

import (
	"os"

	"github.com/rickgorman/ephemera/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
