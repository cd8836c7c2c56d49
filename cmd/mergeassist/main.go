package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/emenda-labs/mergeassist/core/cli"
	"github.com/emenda-labs/mergeassist/core/config"
	"github.com/emenda-labs/mergeassist/core/driver"
	mergeerr "github.com/emenda-labs/mergeassist/core/errors"
	"github.com/emenda-labs/mergeassist/core/pipeline"
	"github.com/emenda-labs/mergeassist/drivers/appian"
	"github.com/emenda-labs/mergeassist/pkg/logging"
	"github.com/emenda-labs/mergeassist/pkg/report"
	"github.com/emenda-labs/mergeassist/pkg/summarize"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var global cli.GlobalOptions

	// loadConfig reads and validates configuration, then builds the logger.
	loadConfig := func() (*config.Config, *slog.Logger, error) {
		cfg, err := config.Load(global.ConfigPath)
		if err != nil {
			return nil, nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}

		level := logging.LevelFromString(cfg.Logging.Level)
		if global.Quiet || global.Verbosity > 0 {
			level = logging.LevelFromVerbosity(global.Verbosity, global.Quiet)
		}
		return cfg, logging.NewLogger(os.Stderr, level), nil
	}

	runAnalyze := func(ctx context.Context, opts cli.AnalyzeOptions) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if opts.Workers >= 0 {
			cfg.Workers = opts.Workers
		}

		appianDriver := appian.NewDriver(cfg.Catalogue(), appian.WithLogger(logger))
		triple, err := driver.LoadTriple(ctx, appianDriver, driver.Paths{
			Base:       opts.Base,
			Customized: opts.Customized,
			Vendor:     opts.Vendor,
		})
		if err != nil {
			return err
		}

		popts := pipeline.OptionsFromConfig(cfg)
		popts.Differs = appianDriver.Registry()
		popts.Logger = logger
		if cfg.Summarizer.Enabled {
			timeout := time.Duration(cfg.Summarizer.TimeoutSeconds) * time.Second
			popts.Summarizer = summarize.NewClient(cfg.Summarizer.Endpoints, timeout, logger)
		}

		p, err := pipeline.New(popts)
		if err != nil {
			return err
		}
		rep, err := p.Run(ctx, triple)
		if err != nil {
			return err
		}

		var sink driver.ResultSink
		if opts.Output != "" {
			sink = report.NewFileSink(opts.Output, opts.Format)
		} else {
			sink = report.NewWriterSink(os.Stdout, opts.Format, !opts.NoColor && !color.NoColor)
		}
		if err := sink.Store(ctx, rep); err != nil {
			return err
		}
		if opts.Output != "" {
			fmt.Fprintf(os.Stderr, "Report %s written to %s (%d objects, estimated %s)\n",
				rep.SessionID, opts.Output, rep.Stats.Objects, report.FormatMinutes(rep.Stats.TotalMinutes))
		}
		return nil
	}

	runConfigValidate := func(ctx context.Context) error {
		cfg, err := config.Load(global.ConfigPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			var ce *mergeerr.ConfigurationError
			if errors.As(err, &ce) {
				for _, p := range ce.Problems {
					fmt.Fprintf(os.Stderr, "  - %s\n", p)
				}
			}
			return err
		}
		source := cfg.Source
		if source == "" {
			source = "defaults"
		}
		fmt.Printf("Configuration OK (%s)\n", source)
		return nil
	}

	runConfigShow := func(ctx context.Context) error {
		cfg, err := config.Load(global.ConfigPath)
		if err != nil {
			return err
		}
		data, err := cfg.YAML()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	root := cli.NewRootCmd(version, &global)
	root.AddCommand(cli.NewAnalyzeCmd(runAnalyze))
	configCmd := cli.NewConfigCmd()
	configCmd.AddCommand(cli.NewConfigValidateCmd(runConfigValidate))
	configCmd.AddCommand(cli.NewConfigShowCmd(runConfigShow))
	root.AddCommand(configCmd)

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
