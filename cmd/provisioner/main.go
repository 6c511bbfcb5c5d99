// Package main is the entry point for the provisioner CLI.
//
// provisioner runs a static pipeline of account and network provisioning
// steps described by a YAML file. Every step can run live, be simulated
// or be forced to fail, and a failed run is rolled back in reverse order.
//
// Commands: run, validate, steps, version.
//
// For detailed usage information, run:
//
//	provisioner --help
package main

import (
	"fmt"
	"os"

	"github.com/cloudprov/provisioner/cmd/provisioner/commands"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
