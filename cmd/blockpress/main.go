// Package main is the blockpress command line tool. It drives the block
// editor engine over serialized documents: applying operation scripts,
// classifying pasted text, inspecting documents, and live-reloading them
// from disk.
package main

import (
	"fmt"
	"os"
)

func main() {
	Execute()
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
