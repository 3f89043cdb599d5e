// Package main provides the CLI entrypoint for ringctl.
package main

func main() {
	Execute()
}
