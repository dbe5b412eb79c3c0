package main

import (
	"github.com/spf13/cobra"

	"github.com/blockpress/blockpress/internal/engine/blocks"
	"github.com/blockpress/blockpress/internal/event"
)

var (
	pasteIn       string
	pasteOut      string
	pastePosition int
)

// pasteCmd represents the paste command.
var pasteCmd = &cobra.Command{
	Use:   "paste <text>",
	Short: "Paste text into a document, classifying it into a block kind",
	Long: `Classify the given text against the registered paste patterns and
insert the resulting block. A YouTube URL becomes an embed block, an image
URL an image block, and so on; unmatched text becomes a paragraph.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal("Failed to load config", err)
		}

		e, err := startEngine(cfg, pasteIn)
		if err != nil {
			fatal("Failed to start editor", err)
		}
		defer e.Close()

		if _, err := e.Bus().On(event.PasteSubstitution, func(ev event.Event) error {
			p := ev.Payload.(event.PasteSubstitutionPayload)
			logger.Info().
				Str("pattern", p.Pattern).
				Str("kind", p.Kind).
				Bool("fallback", p.Fallback).
				Msg("paste classified")
			return nil
		}); err != nil {
			fatal("Failed to subscribe", err)
		}

		blk, err := e.Paste(cmd.Context(), args[0], pastePosition)
		if err != nil {
			fatal("Paste failed", err)
		}
		if blk.ID == "" {
			logger.Warn().Msg("nothing to paste")
			return
		}
		e.FlushHistory()

		if err := writeDocument(e, pasteOut); err != nil {
			fatal("Failed to write document", err)
		}
	},
}

func init() {
	pasteCmd.Flags().StringVar(&pasteIn, "in", "", "Document to load before pasting")
	pasteCmd.Flags().StringVar(&pasteOut, "out", "", "Where to write the resulting document (default stdout)")
	pasteCmd.Flags().IntVar(&pastePosition, "position", blocks.End, "Insert position (-1 appends)")
	rootCmd.AddCommand(pasteCmd)
}
