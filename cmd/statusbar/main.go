// Command statusbar runs the status bar aggregator: it wraps i3status and
// writes the merged i3bar protocol stream to stdout.
package main

import (
	"fmt"
	"os"

	"github.com/axondata/go-statusbar"
)

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "statusbar: %v\n", err)
	}
	os.Exit(statusbar.ExitCode(err))
}
