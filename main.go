package main

import (
	"context"
	"fmt"
	"os"

	"article-enricher/bootstrap"
)

func main() {
	ctx := context.Background()

	if err := bootstrap.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "article-enricher failed: %v\n", err)
		os.Exit(1)
	}
}
