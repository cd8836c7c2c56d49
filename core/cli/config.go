package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// ConfigRunFunc handles a "config" subcommand. It is injected by the wiring layer.
type ConfigRunFunc func(ctx context.Context) error

// NewConfigCmd creates the "config" parent command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect mergeassist configuration",
	}

	return cmd
}

// NewConfigValidateCmd creates the "config validate" subcommand.
func NewConfigValidateCmd(runFunc ConfigRunFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and list every problem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunc(cmd.Context())
		},
	}
}

// NewConfigShowCmd creates the "config show" subcommand.
func NewConfigShowCmd(runFunc ConfigRunFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunc(cmd.Context())
		},
	}
}
