// Command askgate runs the question answering gateway, the standalone
// license service, and a few text maintenance tools.
package main

import (
	"os"

	"github.com/rhuss/askgate/cmd/askgate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
