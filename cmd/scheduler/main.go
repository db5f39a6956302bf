// Command scheduler is the falconjobs CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/blacksail-games/falconjobs/internal/cli"
)

func main() {
	if err := cli.BuildCLI().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
