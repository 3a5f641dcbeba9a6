// Package main is the entry point for the tsig CLI tool.
package main

import (
	"github.com/hargabyte/tsig/internal/cmd"
)

func main() {
	cmd.Execute()
}
