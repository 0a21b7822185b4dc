// Command bytecarbon estimates the annual carbon footprint of digital device
// use, data transfer and AI services from questionnaire responses.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rshade/bytecarbon/internal/cli"
	"github.com/rshade/bytecarbon/pkg/version"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string) int {
	root := cli.NewRootCmd(version.GetVersion())
	root.SetArgs(args)
	root.SilenceErrors = true

	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	}
	return cli.ExitCode(err)
}
