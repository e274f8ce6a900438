package main

import (
	"fmt"
	"os"

	"github.com/harrison/pathtrie/internal/cmd"
)

func main() {
	rootCmd := cmd.NewIndexCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
