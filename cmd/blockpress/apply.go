package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/blockpress/blockpress/internal/script"
)

var (
	applyIn  string
	applyOut string
)

// applyCmd represents the apply command.
var applyCmd = &cobra.Command{
	Use:   "apply <script.yaml>",
	Short: "Apply an operation script to a document",
	Long: `Run the operations in a YAML script against a document. With --in the
document is loaded first; without it the script starts from an empty
document. The result goes to --out, or stdout.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal("Failed to load config", err)
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			fatal("Failed to read script", err)
		}
		s, err := script.Parse(data)
		if err != nil {
			fatal("Failed to parse script", err)
		}

		e, err := startEngine(cfg, applyIn)
		if err != nil {
			fatal("Failed to start editor", err)
		}
		defer e.Close()

		if err := script.Run(cmd.Context(), e, s); err != nil {
			fatal("Script failed", err)
		}
		e.FlushHistory()

		if err := writeDocument(e, applyOut); err != nil {
			fatal("Failed to write document", err)
		}
	},
}

func init() {
	applyCmd.Flags().StringVar(&applyIn, "in", "", "Document to load before running the script")
	applyCmd.Flags().StringVar(&applyOut, "out", "", "Where to write the resulting document (default stdout)")
	rootCmd.AddCommand(applyCmd)
}
