// Package main provides the CLI entrypoint for statusbar.
package main

func main() {
	Execute()
}
