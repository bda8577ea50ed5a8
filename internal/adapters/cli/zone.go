package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"zoocore/pkg/domain"
)

type zoneFlags struct {
	name        string
	description string
	capacity    int
}

func (f *zoneFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Zone name")
	cmd.Flags().StringVar(&f.description, "description", "", "Zone description")
	cmd.Flags().IntVar(&f.capacity, "capacity", 0, "Maximum number of creatures")
}

func (a *app) zoneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zone",
		Short: "Manage zones",
	}

	var createFlags zoneFlags
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a zone",
		Args:  cobra.NoArgs,
		RunE: a.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *Runtime, _ []string) error {
			created, res, err := rt.Service.Zones().CreateZone(ctx, domain.Zone{
				Name:        createFlags.name,
				Description: createFlags.description,
				Capacity:    createFlags.capacity,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, mutationOutput{Entity: created, Violations: res.Violations})
		}),
	}
	createFlags.register(create)

	get := &cobra.Command{
		Use:   "get [zone-id]",
		Short: "Show a zone",
		Args:  cobra.ExactArgs(1),
		RunE: a.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *Runtime, args []string) error {
			zone, err := rt.Service.Zones().GetByID(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, zone)
		}),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List zones",
		Args:  cobra.NoArgs,
		RunE: a.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *Runtime, _ []string) error {
			zones, err := rt.Service.Zones().List(ctx)
			if err != nil {
				return err
			}
			if zones == nil {
				zones = []domain.Zone{}
			}
			return printJSON(cmd, zones)
		}),
	}

	var updateFlags zoneFlags
	update := &cobra.Command{
		Use:   "update [zone-id]",
		Short: "Update a zone",
		Long:  `Fields whose flags are omitted keep their stored values.`,
		Args:  cobra.ExactArgs(1),
		RunE: a.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *Runtime, args []string) error {
			current, err := rt.Service.Zones().GetByID(ctx, args[0])
			if err != nil {
				return err
			}
			u := domain.ZoneUpdate{Name: current.Name, Capacity: current.Capacity}
			flags := cmd.Flags()
			if flags.Changed("name") {
				u.Name = updateFlags.name
			}
			if flags.Changed("capacity") {
				u.Capacity = updateFlags.capacity
			}
			if flags.Changed("description") {
				desc := updateFlags.description
				u.Description = &desc
			}
			updated, res, err := rt.Service.Zones().UpdateZone(ctx, args[0], u)
			if err != nil {
				return err
			}
			return printJSON(cmd, mutationOutput{Entity: updated, Violations: res.Violations})
		}),
	}
	updateFlags.register(update)

	del := &cobra.Command{
		Use:   "delete [zone-id]",
		Short: "Delete a zone",
		Long:  `Creatures housed in the zone stay in the registry without a zone.`,
		Args:  cobra.ExactArgs(1),
		RunE: a.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *Runtime, args []string) error {
			if _, err := rt.Service.Zones().DeleteZone(ctx, args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted zone %s\n", args[0])
			return err
		}),
	}

	cmd.AddCommand(create, get, list, update, del)
	return cmd
}
