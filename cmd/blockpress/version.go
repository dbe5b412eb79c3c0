package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build).
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of blockpress",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("blockpress version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
