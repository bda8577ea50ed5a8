package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"zoocore/internal/blob"
	"zoocore/internal/core"
	"zoocore/pkg/domain"
)

const maxBodyBytes = 1 << 20

type creatureRequest struct {
	Name         string              `json:"name"`
	Species      string              `json:"species"`
	DangerLevel  int                 `json:"danger_level"`
	HealthStatus domain.HealthStatus `json:"health_status"`
	ZoneID       *string             `json:"zone_id,omitempty"`
}

type zoneRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity"`
}

type assignRequest struct {
	ZoneID string `json:"zone_id"`
}

type creatureResponse struct {
	Creature   domain.Creature    `json:"creature"`
	Violations []domain.Violation `json:"violations,omitempty"`
}

type zoneResponse struct {
	Zone       domain.Zone        `json:"zone"`
	Violations []domain.Violation `json:"violations,omitempty"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Violations any    `json:"violations,omitempty"`
}

func (s *Server) listCreatures(w http.ResponseWriter, r *http.Request) {
	creatures, err := s.svc.Creatures().List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"creatures": nonNil(creatures)})
}

func (s *Server) createCreature(w http.ResponseWriter, r *http.Request) {
	var req creatureRequest
	if !decode(w, r, &req) {
		return
	}
	created, res, err := s.svc.Creatures().CreateCreature(r.Context(), domain.Creature{
		Name:         req.Name,
		Species:      req.Species,
		DangerLevel:  req.DangerLevel,
		HealthStatus: req.HealthStatus,
		ZoneID:       req.ZoneID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, creatureResponse{Creature: created, Violations: res.Violations})
}

func (s *Server) getCreature(w http.ResponseWriter, r *http.Request) {
	creature, err := s.svc.Creatures().GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, creatureResponse{Creature: creature})
}

func (s *Server) updateCreature(w http.ResponseWriter, r *http.Request) {
	var update domain.CreatureUpdate
	if !decode(w, r, &update) {
		return
	}
	updated, res, err := s.svc.Creatures().UpdateCreature(r.Context(), mux.Vars(r)["id"], update)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, creatureResponse{Creature: updated, Violations: res.Violations})
}

func (s *Server) deleteCreature(w http.ResponseWriter, r *http.Request) {
	if _, err := s.svc.Creatures().DeleteCreature(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) assignZone(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ZoneID == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:      "zone_id is required",
			Violations: []domain.FieldViolation{{Field: "zone_id", Message: "must not be blank"}},
		})
		return
	}
	updated, res, err := s.svc.Creatures().AssignZone(r.Context(), mux.Vars(r)["id"], req.ZoneID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, creatureResponse{Creature: updated, Violations: res.Violations})
}

func (s *Server) releaseFromZone(w http.ResponseWriter, r *http.Request) {
	updated, res, err := s.svc.Creatures().ReleaseFromZone(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, creatureResponse{Creature: updated, Violations: res.Violations})
}

func (s *Server) listZones(w http.ResponseWriter, r *http.Request) {
	zones, err := s.svc.Zones().List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"zones": nonNil(zones)})
}

func (s *Server) createZone(w http.ResponseWriter, r *http.Request) {
	var req zoneRequest
	if !decode(w, r, &req) {
		return
	}
	created, res, err := s.svc.Zones().CreateZone(r.Context(), domain.Zone{
		Name:        req.Name,
		Description: req.Description,
		Capacity:    req.Capacity,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, zoneResponse{Zone: created, Violations: res.Violations})
}

func (s *Server) getZone(w http.ResponseWriter, r *http.Request) {
	zone, err := s.svc.Zones().GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, zoneResponse{Zone: zone})
}

func (s *Server) updateZone(w http.ResponseWriter, r *http.Request) {
	var update domain.ZoneUpdate
	if !decode(w, r, &update) {
		return
	}
	updated, res, err := s.svc.Zones().UpdateZone(r.Context(), mux.Vars(r)["id"], update)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, zoneResponse{Zone: updated, Violations: res.Violations})
}

func (s *Server) deleteZone(w http.ResponseWriter, r *http.Request) {
	if _, err := s.svc.Zones().DeleteZone(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportRoster(w http.ResponseWriter, r *http.Request) {
	info, err := s.svc.ExportRoster(r.Context(), s.blobs)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"roster": info})
}

func (s *Server) listRosters(w http.ResponseWriter, r *http.Request) {
	infos, err := s.blobs.List(r.Context(), core.RosterPrefix)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rosters": nonNil(infos)})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// writeServiceError maps domain errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		notFound   domain.ErrNotFound
		validation domain.ValidationError
		illegal    domain.IllegalStateError
		blocked    domain.RuleViolationError
	)
	switch {
	case errors.As(err, &notFound), errors.Is(err, blob.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Violations: validation.Violations})
	case errors.As(err, &illegal):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &blocked):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Violations: blocked.Result.Violations})
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
