package main

import (
	"fmt"
	"os"

	"github.com/sandeepkv93/remindd/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	cli.SetVersionInfo(version, commit)
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "remindd: %v\n", err)
		os.Exit(1)
	}
}
