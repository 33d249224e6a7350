package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			// Interrupted runs exit quietly with the conventional signal code.
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "reelscout: %v\n", err)
		os.Exit(1)
	}
}
