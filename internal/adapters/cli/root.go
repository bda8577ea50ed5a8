// Package cli implements the zoocore command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"zoocore/internal/config"
)

type app struct {
	opener     Opener
	version    string
	configPath string
}

// Option customizes the root command.
type Option func(*app)

// WithOpener replaces OpenRuntime, mainly for tests.
func WithOpener(o Opener) Option {
	return func(a *app) { a.opener = o }
}

// WithVersion sets the string printed by the version command.
func WithVersion(v string) Option {
	return func(a *app) { a.version = v }
}

// NewRootCmd builds the zoocore command tree.
func NewRootCmd(opts ...Option) *cobra.Command {
	a := &app{opener: OpenRuntime, version: "dev"}
	for _, opt := range opts {
		opt(a)
	}
	root := &cobra.Command{
		Use:           "zoocore",
		Short:         "Manage zoo creatures and zones",
		Long:          `zoocore stores creatures and the zones that house them, over HTTP or from the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file (default $"+config.PathEnv+")")

	root.AddCommand(
		a.versionCmd(),
		a.serveCmd(),
		a.creatureCmd(),
		a.zoneCmd(),
		a.rosterCmd(),
	)
	return root
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "zoocore version %s\n", a.version)
			return err
		},
	}
}

// withRuntime loads configuration, opens a Runtime for the duration of fn and
// closes it afterwards.
func (a *app) withRuntime(fn func(ctx context.Context, cmd *cobra.Command, rt *Runtime, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		rt, err := a.opener(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := rt.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
				err = fmt.Errorf("close runtime: %w", cerr)
			}
		}()
		return fn(ctx, cmd, rt, args)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
