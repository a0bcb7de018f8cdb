// Command standupctl edits ceremony questions and submits stand-up answers
// from the terminal.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
