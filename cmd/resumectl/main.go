package main

// Run a resume through the feedback workflow from the command line:
//   go run ./cmd/resumectl analyze --file cv.pdf --company Acme --title "Backend Engineer" --description "..."

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
