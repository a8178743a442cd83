package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xhad/docintel/pkg/config"
	"github.com/xhad/docintel/pkg/logging"
	"github.com/xhad/docintel/pkg/workbench"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "docintel",
	Short: "Extract, summarize, classify and narrate documents",
	Long: `docintel loads PDF, DOCX and TXT documents, captions their embedded images,
and offers summarization, sentiment analysis and text-to-speech of the extracted text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// app bundles what every command needs.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	workbench *workbench.Workbench
}

// newApp loads and validates the configuration and builds the workbench.
// One-shot commands log warnings only unless --verbose is set, so that
// their output stays readable.
func newApp(quiet bool) (*app, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
	}

	level := cfg.Log.Level
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "warn"
	}
	logger := logging.New(logging.LogConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})

	wb, err := workbench.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, workbench: wb}, nil
}

func (a *app) Close() {
	if err := a.workbench.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("failed to close workbench")
	}
}
