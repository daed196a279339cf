package main

import (
	"os"

	"github.com/danisans16/scripts-fomo/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
