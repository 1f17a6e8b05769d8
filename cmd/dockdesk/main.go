package main

import (
	"os"

	"github.com/bassista/dockdesk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
