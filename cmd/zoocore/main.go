// Command zoocore serves and administers the zoo creature and zone registry.
package main

import (
	"context"
	"fmt"
	"os"

	"zoocore/internal/adapters/cli"
)

var version = "dev"

func main() {
	root := cli.NewRootCmd(cli.WithVersion(version))
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
