package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emenda-labs/mergeassist/pkg/report"
)

// AnalyzeOptions holds the parsed flags for "analyze".
type AnalyzeOptions struct {
	Base       string
	Customized string
	Vendor     string
	Format     report.Format
	Output     string
	// Workers overrides the configured worker count when non-negative.
	Workers int
	NoColor bool
}

// AnalyzeRunFunc is the function signature for the analyze command handler.
// It is injected by the wiring layer (cmd/mergeassist/main.go).
type AnalyzeRunFunc func(ctx context.Context, opts AnalyzeOptions) error

// NewAnalyzeCmd creates the "analyze" command.
func NewAnalyzeCmd(runFunc AnalyzeRunFunc) *cobra.Command {
	var opts AnalyzeOptions
	var format string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify every object of a three-way package merge",
		Long: "Load the base (A), customized (B) and new vendor (C) packages, classify each object,\n" +
			"estimate remediation complexity and write a report.",
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			opts.Format = f
			return validateAnalyzeFlags(opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunc(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Base, "base", "", "Base vendor package A (required)")
	cmd.Flags().StringVar(&opts.Customized, "customized", "", "Customer's customized package B (required)")
	cmd.Flags().StringVar(&opts.Vendor, "vendor", "", "New vendor package C (required)")
	cmd.Flags().StringVarP(&format, "format", "f", string(report.FormatText), "Report format: text, json or yaml")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().IntVar(&opts.Workers, "workers", -1, "Parallel workers (0 = one per CPU; default from config)")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", false, "Disable coloured text output")

	cmd.MarkFlagRequired("base")
	cmd.MarkFlagRequired("customized")
	cmd.MarkFlagRequired("vendor")

	return cmd
}

func validateAnalyzeFlags(opts AnalyzeOptions) error {
	for _, p := range []struct{ flag, path string }{
		{"--base", opts.Base},
		{"--customized", opts.Customized},
		{"--vendor", opts.Vendor},
	} {
		if p.path == "" {
			return fmt.Errorf("%s is required", p.flag)
		}
		info, err := os.Stat(p.path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%s path does not exist: %s", p.flag, p.path)
			}
			return fmt.Errorf("cannot access %s path: %w", p.flag, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s path is a directory: %s", p.flag, p.path)
		}
	}
	if opts.Workers < -1 {
		return fmt.Errorf("--workers must not be negative")
	}
	return nil
}
