// Package main provides the entrypoint for gh-webhook-relay.
package main

import (
	"os"

	"github.com/isometry/gh-webhook-relay/cmd"
)

func main() {
	if err := cmd.New().Execute(); err != nil {
		os.Exit(1)
	}
}
