package main

import (
	"fmt"
	"os"
)

// Build values set through ldflags.
var (
	GitCommit string
	GitTag    string
	BuildTime string
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "library-admin:", err)
		os.Exit(1)
	}
}
