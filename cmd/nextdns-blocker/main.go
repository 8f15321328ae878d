package main

import (
	"fmt"
	"os"

	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/cli"
)

// version is set via ldflags during build.
var version = "0.1.0-dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
