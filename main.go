package main

import (
	"fmt"
	"os"

	"github.com/civc-lang/civc/cmd/civc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
