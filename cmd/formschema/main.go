package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goliatone/go-formschema/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "formschema:", err)
		os.Exit(cli.ExitCode(err))
	}
}
