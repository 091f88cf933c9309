// Command blitz computes follow paths from trajectory documents and exports
// them for robot path followers.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "blitz:", err)
		os.Exit(1)
	}
}
