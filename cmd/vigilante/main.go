// Command vigilante runs the cluster coordinator: it monitors a Qdrant
// cluster over its node HTTP APIs, keeps a merged cluster model, and
// exposes a REST API for operators and automation to drive repair
// operations (shard moves, snapshot lifecycle, pod/stateful-set actions).
package main

import (
	"fmt"
	"os"

	"github.com/aer-io/vigilante/cmd/vigilante/commands"
)

// version information set by build flags (-ldflags "-X main.version=...")
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, buildDate)
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
