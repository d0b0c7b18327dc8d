// Command corodemo exercises the coroo runtime through a handful of
// end-to-end scenarios, each its own cobra subcommand.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
