// Package main is the entry point for the health monitor.
package main

import "healthwatch/cmd/healthwatch/cmd"

func main() {
	cmd.Execute()
}
