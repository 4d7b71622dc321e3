// rootcheck checks the device it runs on (or a mounted device image) for
// evidence of root access or tampering and prints a verdict.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ppiankov/rootcheck/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		if errors.Is(err, cli.ErrRootDetected) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
