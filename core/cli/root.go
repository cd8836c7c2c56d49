package cli

import (
	"github.com/spf13/cobra"
)

// GlobalOptions holds the flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	Verbosity  int
	Quiet      bool
}

// NewRootCmd creates the top-level mergeassist command.
func NewRootCmd(version string, global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mergeassist",
		Short: "Three-way merge assistant for low-code application packages",
		Long: "Mergeassist compares a base vendor release, the customer's customized copy and a new vendor release,\n" +
			"classifies every object, estimates remediation effort and suggests how to reconcile conflicts.",
		SilenceUsage: true,
	}

	cmd.Version = version

	cmd.PersistentFlags().StringVar(&global.ConfigPath, "config", "", "Path to a mergeassist.yaml config file")
	cmd.PersistentFlags().CountVarP(&global.Verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	cmd.PersistentFlags().BoolVar(&global.Quiet, "quiet", false, "Suppress all logging")

	return cmd
}
