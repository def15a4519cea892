package main

import (
	"context"
	"fmt"
	"os"

	"github.com/asaidimu/datainsight/commands"
)

func main() {
	app := commands.NewApp()

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
}
