package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

func (a *app) rosterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Export zone rosters to blob storage",
	}
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the current roster to the configured blob store",
		Args:  cobra.NoArgs,
		RunE: a.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *Runtime, _ []string) error {
			if rt.Blobs == nil {
				return errors.New("roster export needs blob.driver to be configured")
			}
			info, err := rt.Service.ExportRoster(ctx, rt.Blobs)
			if err != nil {
				return err
			}
			return printJSON(cmd, info)
		}),
	}
	cmd.AddCommand(export)
	return cmd
}
