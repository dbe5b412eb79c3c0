package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blockpress/blockpress/internal/event"
	"github.com/blockpress/blockpress/internal/watch"
)

// watchCmd represents the watch command.
var watchCmd = &cobra.Command{
	Use:   "watch <document.json>",
	Short: "Watch a document file and re-render it on change",
	Long: `Load the document and keep it in sync with the file on disk,
logging every render. A malformed write is skipped and the last good
document stays loaded. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal("Failed to load config", err)
		}

		e, err := startEngine(cfg, args[0])
		if err != nil {
			fatal("Failed to start editor", err)
		}
		defer e.Close()

		if _, err := e.Bus().On(event.BlocksRendered, func(ev event.Event) error {
			p := ev.Payload.(event.BlocksRenderedPayload)
			logger.Info().Int("blocks", p.Count).Msg("document rendered")
			return nil
		}); err != nil {
			fatal("Failed to subscribe", err)
		}

		w := watch.New(e, args[0], watch.WithLogger(logger))
		if err := w.Start(); err != nil {
			fatal("Failed to start watcher", err)
		}
		defer w.Close()

		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		<-signals
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
