package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/blockpress/blockpress/internal/config"
	"github.com/blockpress/blockpress/internal/editor"
)

var (
	configPath string
	verbose    bool

	logger zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "blockpress",
	Short: "A block-structured document engine",
	Long: `Blockpress edits documents made of typed blocks: paragraphs, headings,
embeds and the rest. It applies operation scripts, classifies pasted text
into block kinds, and keeps a bounded undo history while doing so.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(level).
			With().Timestamp().Logger()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a blockpress.toml config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// loadConfig resolves the configuration for the current invocation. The
// logging level from the file or environment applies unless --verbose
// already raised it.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(config.OSFS{}, configPath)
	if err != nil {
		return config.Config{}, err
	}
	if !verbose {
		lvl, err := cfg.Logging.ZerologLevel()
		if err != nil {
			return config.Config{}, err
		}
		logger = logger.Level(lvl)
	}
	return cfg, nil
}

// startEngine builds and starts an engine, optionally importing an
// initial document from inPath.
func startEngine(cfg config.Config, inPath string) (*editor.Engine, error) {
	e, err := editor.New(cfg, editor.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := e.Start(); err != nil {
		e.Close()
		return nil, err
	}

	if inPath != "" {
		data, err := os.ReadFile(inPath)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("reading document %s: %w", inPath, err)
		}
		if err := e.Import(data); err != nil {
			e.Close()
			return nil, fmt.Errorf("importing document %s: %w", inPath, err)
		}
	}
	return e, nil
}

// writeDocument exports the engine's document to outPath, or stdout when
// outPath is empty.
func writeDocument(e *editor.Engine, outPath string) error {
	data, err := e.Export()
	if err != nil {
		return fmt.Errorf("exporting document: %w", err)
	}
	if outPath == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("writing document %s: %w", outPath, err)
	}
	return nil
}
