// Command aloha is a hybrid knowledge retrieval engine for LLM agents.
package main

import (
	"os"

	"github.com/aloha-corp/aloha-rag/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
