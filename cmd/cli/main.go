package main

import (
	"context"
	"os"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background(), os.Stdout); err != nil {
		os.Exit(1)
	}
}
