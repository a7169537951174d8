package main

import (
	"os"

	"github.com/jakenelson/forkbuild/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
