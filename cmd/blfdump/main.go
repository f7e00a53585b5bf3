// blfdump inspects Vector BLF log files.
//
// Usage:
//
//	blfdump dump [--template T] [--type T]... [--skip-type T]... [--step] trace.blf
//	blfdump info trace.blf
//	blfdump raw [--out trace.raw] trace.blf
package main

import (
	"os"

	"github.com/boatkit-io/blf/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
