package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"zoocore/pkg/domain"
)

type creatureFlags struct {
	name    string
	species string
	danger  int
	health  string
	zone    string
}

func (f *creatureFlags) register(cmd *cobra.Command, withZone bool) {
	cmd.Flags().StringVar(&f.name, "name", "", "Creature name")
	cmd.Flags().StringVar(&f.species, "species", "", "Creature species")
	cmd.Flags().IntVar(&f.danger, "danger", 0, "Danger level (0-10)")
	cmd.Flags().StringVar(&f.health, "health", string(domain.HealthStable), "Health status")
	if withZone {
		cmd.Flags().StringVar(&f.zone, "zone", "", "Zone id to place the creature in")
	}
}

type mutationOutput struct {
	Entity     any                `json:"entity"`
	Violations []domain.Violation `json:"violations,omitempty"`
}

func (a *app) creatureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "creature",
		Short: "Manage creatures",
	}

	var createFlags creatureFlags
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a creature",
		Args:  cobra.NoArgs,
		RunE: a.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *Runtime, _ []string) error {
			in := domain.Creature{
				Name:         createFlags.name,
				Species:      createFlags.species,
				DangerLevel:  createFlags.danger,
				HealthStatus: domain.HealthStatus(createFlags.health),
			}
			if createFlags.zone != "" {
				zone := createFlags.zone
				in.ZoneID = &zone
			}
			created, res, err := rt.Service.Creatures().CreateCreature(ctx, in)
			if err != nil {
				return err
			}
			return printJSON(cmd, mutationOutput{Entity: created, Violations: res.Violations})
		}),
	}
	createFlags.register(create, true)

	get := &cobra.Command{
		Use:   "get [creature-id]",
		Short: "Show a creature",
		Args:  cobra.ExactArgs(1),
		RunE: a.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *Runtime, args []string) error {
			creature, err := rt.Service.Creatures().GetByID(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, creature)
		}),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List creatures",
		Args:  cobra.NoArgs,
		RunE: a.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *Runtime, _ []string) error {
			creatures, err := rt.Service.Creatures().List(ctx)
			if err != nil {
				return err
			}
			if creatures == nil {
				creatures = []domain.Creature{}
			}
			return printJSON(cmd, creatures)
		}),
	}

	var updateFlags creatureFlags
	update := &cobra.Command{
		Use:   "update [creature-id]",
		Short: "Update a creature",
		Long:  `Fields whose flags are omitted keep their stored values.`,
		Args:  cobra.ExactArgs(1),
		RunE: a.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *Runtime, args []string) error {
			current, err := rt.Service.Creatures().GetByID(ctx, args[0])
			if err != nil {
				return err
			}
			u := domain.CreatureUpdate{
				Name:         current.Name,
				Species:      current.Species,
				DangerLevel:  current.DangerLevel,
				HealthStatus: current.HealthStatus,
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				u.Name = updateFlags.name
			}
			if flags.Changed("species") {
				u.Species = updateFlags.species
			}
			if flags.Changed("danger") {
				u.DangerLevel = updateFlags.danger
			}
			if flags.Changed("health") {
				u.HealthStatus = domain.HealthStatus(updateFlags.health)
			}
			updated, res, err := rt.Service.Creatures().UpdateCreature(ctx, args[0], u)
			if err != nil {
				return err
			}
			return printJSON(cmd, mutationOutput{Entity: updated, Violations: res.Violations})
		}),
	}
	updateFlags.register(update, false)

	del := &cobra.Command{
		Use:   "delete [creature-id]",
		Short: "Delete a creature",
		Args:  cobra.ExactArgs(1),
		RunE: a.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *Runtime, args []string) error {
			if _, err := rt.Service.Creatures().DeleteCreature(ctx, args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted creature %s\n", args[0])
			return err
		}),
	}

	assign := &cobra.Command{
		Use:   "assign [creature-id] [zone-id]",
		Short: "Place a creature in a zone",
		Args:  cobra.ExactArgs(2),
		RunE: a.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *Runtime, args []string) error {
			updated, res, err := rt.Service.Creatures().AssignZone(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, mutationOutput{Entity: updated, Violations: res.Violations})
		}),
	}

	release := &cobra.Command{
		Use:   "release [creature-id]",
		Short: "Remove a creature from its zone",
		Args:  cobra.ExactArgs(1),
		RunE: a.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *Runtime, args []string) error {
			updated, res, err := rt.Service.Creatures().ReleaseFromZone(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, mutationOutput{Entity: updated, Violations: res.Violations})
		}),
	}

	cmd.AddCommand(create, get, list, update, del, assign, release)
	return cmd
}
