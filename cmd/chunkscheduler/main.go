// Command chunkscheduler runs the staged chunk generation scheduler as a
// standalone process, or drives it with a synthetic ticket load for
// benchmarking.
package main

import (
	"context"
	"fmt"
	"os"

	"chunkscheduler/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
