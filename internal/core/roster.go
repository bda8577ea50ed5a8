package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"zoocore/internal/blob"
)

// RosterPrefix is the blob key prefix for exported rosters.
const RosterPrefix = "rosters/"

// Roster is a point-in-time document of every zone and the creatures it houses.
type Roster struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Zones       []RosterZone `json:"zones"`
	Unassigned  []Creature   `json:"unassigned"`
}

// RosterZone pairs a zone with its resolved creatures.
type RosterZone struct {
	Zone
	Creatures []Creature `json:"creatures"`
}

// BuildRoster assembles a roster from committed state.
func (s *Service) BuildRoster(ctx context.Context) (Roster, error) {
	roster := Roster{GeneratedAt: s.clock.Now(), Zones: []RosterZone{}, Unassigned: []Creature{}}
	err := s.store.View(ctx, func(view TransactionView) error {
		byZone := make(map[string][]Creature)
		for _, c := range view.ListCreatures() {
			if c.ZoneID == nil {
				roster.Unassigned = append(roster.Unassigned, c)
				continue
			}
			byZone[*c.ZoneID] = append(byZone[*c.ZoneID], c)
		}
		for _, z := range view.ListZones() {
			housed := byZone[z.ID]
			if housed == nil {
				housed = []Creature{}
			}
			roster.Zones = append(roster.Zones, RosterZone{Zone: z, Creatures: housed})
		}
		return nil
	})
	return roster, err
}

// ExportRoster writes the current roster as JSON to the blob store under
// rosters/<UTC timestamp>.json and returns the stored blob metadata.
func (s *Service) ExportRoster(ctx context.Context, store blob.Store) (blob.Info, error) {
	var info blob.Info
	err := s.run(ctx, "export_roster", func(ctx context.Context) (string, error) {
		if store == nil {
			return "", fmt.Errorf("export roster: blob store not configured")
		}
		roster, err := s.BuildRoster(ctx)
		if err != nil {
			return "", err
		}
		payload, err := json.MarshalIndent(roster, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode roster: %w", err)
		}
		key := RosterPrefix + roster.GeneratedAt.UTC().Format("20060102T150405.000000000Z") + ".json"
		info, err = store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
			ContentType: "application/json",
			Metadata: map[string]string{
				"zones":      strconv.Itoa(len(roster.Zones)),
				"unassigned": strconv.Itoa(len(roster.Unassigned)),
			},
		})
		if err != nil {
			return "", fmt.Errorf("store roster: %w", err)
		}
		return info.Key, nil
	})
	return info, err
}
