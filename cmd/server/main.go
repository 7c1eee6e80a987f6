package main

import (
	"fmt"
	"os"

	"github.com/yogeshdgrg/BR-Dashboard/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "br-dashboard: %v\n", err)
		os.Exit(1)
	}
}
