package main

import (
	"context"
	"os"

	"github.com/arung-agamani/zelfm/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
