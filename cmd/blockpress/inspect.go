package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blockpress/blockpress/internal/engine/document"
)

// inspectCmd represents the inspect command.
var inspectCmd = &cobra.Command{
	Use:   "inspect <document.json>",
	Short: "Summarize a serialized document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fatal("Failed to read document", err)
		}
		doc, err := document.Unmarshal(data)
		if err != nil {
			fatal("Failed to parse document", err)
		}

		created := time.UnixMilli(doc.CreatedAt).UTC().Format(time.RFC3339)
		fmt.Printf("format version: %s\n", doc.FormatVersion)
		fmt.Printf("created:        %s\n", created)
		fmt.Printf("blocks:         %d\n\n", len(doc.Blocks))

		for i, blk := range doc.Blocks {
			keys := make([]string, 0, len(blk.Payload))
			for k := range blk.Payload {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Printf("%3d  %-12s %s  [%s]\n", i, blk.Kind, blk.ID, strings.Join(keys, ", "))
		}
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
