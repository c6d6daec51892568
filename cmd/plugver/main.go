package main

import (
	"os"

	"github.com/sprite-ai/plugver/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
