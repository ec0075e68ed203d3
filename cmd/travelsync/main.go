// Command travelsync keeps a local view of one actor's journey in sync with
// the remote journey engine and issues journey commands against it.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
