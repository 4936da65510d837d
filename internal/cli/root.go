// Package cli holds the adultcensus cobra commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/adultcensus/internal/config"
	"github.com/YuminosukeSato/adultcensus/pipeline"
	"github.com/YuminosukeSato/adultcensus/pkg/log"
)

type rootOptions struct {
	configFile string
	envFile    string
	logLevel   string
	outputs    string
	data       string
	dataURL    string
}

// NewRootCommand builds the command tree. Console output goes to the
// command's out writer; logs go to its err writer.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "adultcensus [regularization]",
		Short: "Train and evaluate the census income classifier",
		Long: `adultcensus downloads the Adult Census income dataset if it is not cached,
trains a logistic regression on education, marital status and weekly hours,
prints evaluation metrics, plots the ROC curve and saves the model together
with a scoring service schema under the outputs directory.

Examples:
  adultcensus
  adultcensus 0.5
  adultcensus --config run.yaml --log-level debug`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd, opts, args)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.configFile, "config", "", "YAML config file")
	f.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with ADULTCENSUS_* overrides")
	f.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.Flags().StringVar(&opts.outputs, "outputs", "", "outputs directory")
	cmd.Flags().StringVar(&opts.data, "data", "", "local dataset path")
	cmd.Flags().StringVar(&opts.dataURL, "data-url", "", "dataset download URL")

	cmd.AddCommand(newScoreCommand(opts))
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		slog.Error("adultcensus failed", log.ErrAttr(err))
		stop()
		os.Exit(1)
	}
}

// loadConfig applies flags and the positional regularization on top of the
// file and environment layers.
func loadConfig(cmd *cobra.Command, opts *rootOptions, args []string) (*config.Config, error) {
	cfg, err := config.Load(config.Options{File: opts.configFile, EnvFile: opts.envFile})
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Lookup("outputs") != nil && flags.Changed("outputs") {
		cfg.OutputsDir = opts.outputs
	}
	if flags.Lookup("data") != nil && flags.Changed("data") {
		cfg.DataPath = opts.data
	}
	if flags.Lookup("data-url") != nil && flags.Changed("data-url") {
		cfg.DataURL = opts.dataURL
	}
	if len(args) > 0 {
		if cfg.RegParam, err = config.ParseRegularization(args[0]); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := log.SetupLogger(cmd.ErrOrStderr(), cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runTrain(cmd *cobra.Command, opts *rootOptions, args []string) error {
	cfg, err := loadConfig(cmd, opts, args)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	p := pipeline.New(cfg, cmd.OutOrStdout())
	tracker, err := pipeline.BuildTracker(ctx, cfg, p.RunID, p.Logger)
	if err != nil {
		return err
	}
	p.Tracker = tracker

	_, runErr := p.Run(ctx)
	if err := tracker.Close(context.WithoutCancel(ctx)); err != nil {
		p.Logger.Warn("closing trackers", log.ErrAttrKey, err.Error())
	}
	return runErr
}

func writeLine(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}
