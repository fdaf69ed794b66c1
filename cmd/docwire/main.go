package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/docwire/docwire/internal/pkg/cli"
)

func main() {
	cmd := cli.NewRootCommand(os.Stdout, os.Stderr, afero.NewOsFs())
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		os.Exit(1)
	}
}
