// Package main is the entry point for the bootguard launcher.
package main

import (
	"github.com/zorak1103/bootguard/cmd"
)

func main() {
	// Panic handling is owned by the crash interceptor that the root command
	// installs during bootstrap. Exit code semantics:
	// 0 = success, 1 = crash or command error, 2 = config error, 3 = double fault
	cmd.Execute()
}
