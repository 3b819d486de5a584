// internal/services/heat_generator_service.go
// Per-event snake-draft heat assignment with stand-type specialization
// and gear-sharing avoidance; regeneration replaces an event's heats and
// assignment rows in one transaction.

package services

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"

	"lumberjack-engine/internal/apperr"
	"lumberjack-engine/internal/config"
	"lumberjack-engine/internal/models"
	"lumberjack-engine/internal/reqcontext"
	"lumberjack-engine/internal/repositories"
)

// HeatEntrant is one competitor eligible for an event's heats, with the
// partner/gear-sharing facts the generator needs to keep pairs together
// and keep conflicting gear-sharers apart.
type HeatEntrant struct {
	CompetitorID string
	GearSharing  map[string]string
	Partners     map[string]string
	LeftHanded   bool
}

// GeneratedHeat is one heat produced by the generator, not yet persisted.
type GeneratedHeat struct {
	HeatNumber       int
	RunNumber        int
	Competitors      []string
	StandAssignments map[string]int
}

// HeatGeneratorService builds and persists heats for an event.
type HeatGeneratorService struct {
	repos  *repositories.Container
	audit  *AuditService
	cache  *CacheService
	cfg    config.TournamentConfig
	logger *log.Logger
}

func NewHeatGeneratorService(repos *repositories.Container, audit *AuditService, cache *CacheService, cfg config.TournamentConfig, logger *log.Logger) *HeatGeneratorService {
	return &HeatGeneratorService{repos: repos, audit: audit, cache: cache, cfg: cfg, logger: logger}
}

// Generate runs the snake-draft algorithm over entrants for event and
// returns the heats that should replace whatever currently exists for it.
// List-only events are the caller's responsibility to skip before calling.
func (s *HeatGeneratorService) Generate(event *models.Event, entrants []HeatEntrant) ([]GeneratedHeat, error) {
	standCfg, ok := s.cfg.StandConfigs[string(event.StandType)]
	if !ok {
		return nil, apperr.Validation("UNKNOWN_STAND_TYPE", "no stand configuration for "+string(event.StandType))
	}

	maxPerHeat := standCfg.Total
	if event.StandType == models.StandTypeSawHand && maxPerHeat > 4 {
		maxPerHeat = 4
	}
	if event.StandType == models.StandTypeStockSaw && event.Division == models.DivisionCollege {
		maxPerHeat = len(standCfg.SpecificStands)
	}
	if maxPerHeat == 0 {
		return nil, apperr.Validation("INVALID_STAND_CAPACITY", "stand type has zero capacity")
	}

	units := buildUnits(entrants, event.Name)

	total := 0
	for _, u := range units {
		total += len(u)
	}
	if total == 0 {
		return nil, nil
	}

	numHeats := (total + maxPerHeat - 1) / maxPerHeat
	heats := make([][]HeatEntrant, numHeats)
	capacity := make([]int, numHeats)
	for i := range capacity {
		capacity[i] = maxPerHeat
	}

	idx := 0
	direction := 1
	advance := func() {
		if direction == 1 && idx == numHeats-1 {
			direction = -1
		} else if direction == -1 && idx == 0 {
			direction = 1
		}
		idx += direction
	}

	for _, unit := range units {
		placed := false
		for attempt := 0; attempt < numHeats; attempt++ {
			if capacity[idx] >= len(unit) && !hasConflict(event.Name, heats[idx], unit) {
				heats[idx] = append(heats[idx], unit...)
				capacity[idx] -= len(unit)
				placed = true
				break
			}
			advance()
		}
		if !placed {
			for i := 0; i < numHeats; i++ {
				if capacity[i] >= len(unit) {
					heats[i] = append(heats[i], unit...)
					capacity[i] -= len(unit)
					placed = true
					break
				}
			}
		}
		if !placed {
			return nil, apperr.Internal(fmt.Errorf("no heat with capacity for unit of size %d", len(unit)))
		}
	}

	out := make([]GeneratedHeat, 0, numHeats)
	for i, members := range heats {
		if len(members) == 0 {
			continue
		}
		stands := assignStands(event, s.cfg, members)
		comps := make([]string, len(members))
		for j, m := range members {
			comps[j] = m.CompetitorID
		}
		out = append(out, GeneratedHeat{HeatNumber: i + 1, RunNumber: 1, Competitors: comps, StandAssignments: stands})
	}

	if event.RequiresDualRuns {
		mirrored := make([]GeneratedHeat, len(out))
		for i, h := range out {
			mirrored[i] = GeneratedHeat{
				HeatNumber:       h.HeatNumber,
				RunNumber:        2,
				Competitors:      h.Competitors,
				StandAssignments: reverseStands(h.StandAssignments),
			}
		}
		out = append(out, mirrored...)
	}

	return out, nil
}

// buildUnits groups reciprocal partner pairs into one two-competitor unit
// and leaves everyone else as a single-competitor unit, preserving first-
// seen order from the input entrant list.
func buildUnits(entrants []HeatEntrant, eventName string) [][]HeatEntrant {
	byID := make(map[string]HeatEntrant, len(entrants))
	for _, e := range entrants {
		byID[e.CompetitorID] = e
	}

	used := make(map[string]bool, len(entrants))
	var units [][]HeatEntrant
	for _, e := range entrants {
		if used[e.CompetitorID] {
			continue
		}
		if partnerID, ok := lookupNormalized(e.Partners, normalizeEventKey(eventName)); ok && partnerID != "" {
			if partner, exists := byID[partnerID]; exists && !used[partnerID] {
				if reciprocalID, ok := lookupNormalized(partner.Partners, normalizeEventKey(eventName)); ok && reciprocalID == e.CompetitorID {
					units = append(units, []HeatEntrant{e, partner})
					used[e.CompetitorID] = true
					used[partnerID] = true
					continue
				}
			}
		}
		units = append(units, []HeatEntrant{e})
		used[e.CompetitorID] = true
	}
	return units
}

// hasConflict reports whether any member of unit gear-shares or
// partner-conflicts with anyone already placed in heat.
func hasConflict(eventName string, placed []HeatEntrant, unit []HeatEntrant) bool {
	for _, p := range placed {
		for _, u := range unit {
			if gearSharingConflict(eventName, p.CompetitorID, p.GearSharing, u.CompetitorID, u.GearSharing) {
				return true
			}
		}
	}
	return false
}

// assignStands applies the springboard/stock-saw specializations on top
// of the event's stand configuration, in placement order.
func assignStands(event *models.Event, cfg config.TournamentConfig, members []HeatEntrant) map[string]int {
	standCfg := cfg.StandConfigs[string(event.StandType)]
	out := make(map[string]int, len(members))

	if event.StandType == models.StandTypeStockSaw && event.Division == models.DivisionCollege {
		for i, m := range members {
			out[m.CompetitorID] = standCfg.SpecificStands[i%len(standCfg.SpecificStands)]
		}
		return out
	}

	if event.StandType == models.StandTypeSpringboard {
		reservedStand := standCfg.Total
		next := 1
		assignedLefty := false
		for _, m := range members {
			if m.LeftHanded && !assignedLefty {
				out[m.CompetitorID] = reservedStand
				assignedLefty = true
				continue
			}
			out[m.CompetitorID] = next
			next++
		}
		return out
	}

	for i, m := range members {
		out[m.CompetitorID] = i + 1
	}
	return out
}

// reverseStands mirrors a run-1 stand map for run-2: the competitor on
// the lowest stand moves to the highest and vice versa, so every
// competitor runs each physical stand once.
func reverseStands(original map[string]int) map[string]int {
	stands := make([]int, 0, len(original))
	for _, v := range original {
		stands = append(stands, v)
	}
	sort.Ints(stands)

	out := make(map[string]int, len(original))
	for competitorID, stand := range original {
		pos := 0
		for i, s := range stands {
			if s == stand {
				pos = i
				break
			}
		}
		out[competitorID] = stands[len(stands)-1-pos]
	}
	return out
}

// EntrantsForEvent resolves the event's entrant list: EventResult rows
// already marked for the event win; otherwise the list is inferred from
// competitors whose events_entered matches the event by id, exact name,
// or normalized display name, filtered by the event's gender.
func (s *HeatGeneratorService) EntrantsForEvent(ctx context.Context, event *models.Event) ([]HeatEntrant, error) {
	results, err := s.repos.EventResult.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	marked := make(map[string]bool, len(results))
	for _, r := range results {
		marked[r.CompetitorID()] = true
	}
	isEntrant := func(id string, entered []string) bool {
		if len(marked) > 0 {
			return marked[id]
		}
		return entersEvent(entered, event)
	}

	var entrants []HeatEntrant
	if event.Division == models.DivisionCollege {
		competitors, err := s.repos.CollegeCompetitor.ListByTournament(ctx, event.TournamentID)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		for _, c := range competitors {
			if c.Status != models.CompetitorStatusActive {
				continue
			}
			if event.Gender != nil && c.Gender != *event.Gender {
				continue
			}
			if !isEntrant(c.ID, c.EventsEntered) {
				continue
			}
			entrants = append(entrants, HeatEntrant{CompetitorID: c.ID, GearSharing: c.GearSharing, Partners: c.Partners})
		}
		return entrants, nil
	}

	competitors, err := s.repos.ProCompetitor.ListByTournament(ctx, event.TournamentID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	for _, p := range competitors {
		if p.Status != models.CompetitorStatusActive {
			continue
		}
		if event.Gender != nil && p.Gender != *event.Gender {
			continue
		}
		if !isEntrant(p.ID, p.EventsEntered) {
			continue
		}
		entrants = append(entrants, HeatEntrant{CompetitorID: p.ID, GearSharing: p.GearSharing, Partners: p.Partners, LeftHanded: p.IsLeftHandedSpringboard})
	}
	return entrants, nil
}

// entersEvent matches one events_entered value against the event by id,
// exact canonical name, or normalized display name.
func entersEvent(entered []string, event *models.Event) bool {
	for _, e := range entered {
		if e == event.ID || e == event.Name {
			return true
		}
		if normalizeEventKey(e) == normalizeEventKey(event.DisplayName) {
			return true
		}
	}
	return false
}

// RegenerateForEvent deletes existing heats for event and persists the
// freshly generated ones inside one transaction, reconciling
// HeatAssignment rows as it goes. List-only events never carry heats;
// regenerating one simply clears any stale rows.
func (s *HeatGeneratorService) RegenerateForEvent(ctx context.Context, rc reqcontext.RequestContext, event *models.Event, entrants []HeatEntrant) ([]*models.Heat, error) {
	if !rc.Role.CanSchedule() {
		return nil, apperr.Permission("role " + string(rc.Role) + " cannot regenerate heats")
	}
	if event.IsListOnly {
		tx, err := s.repos.BeginTx(ctx)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		defer tx.Rollback()
		if err := s.repos.Heat.DeleteByEventTx(ctx, tx, event.ID); err != nil {
			return nil, apperr.Internal(err)
		}
		if err := s.audit.LogTx(ctx, tx, rc, "heats.regenerate", "event", event.ID, "cleared heats for list-only event"); err != nil {
			return nil, apperr.Internal(err)
		}
		if err := tx.Commit(); err != nil {
			return nil, apperr.Internal(err)
		}
		return nil, nil
	}
	generated, err := s.Generate(event, entrants)
	if err != nil {
		return nil, err
	}

	tx, err := s.repos.BeginTx(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer tx.Rollback()

	if err := s.repos.Heat.DeleteByEventTx(ctx, tx, event.ID); err != nil {
		return nil, apperr.Internal(err)
	}

	out := make([]*models.Heat, 0, len(generated))
	for _, g := range generated {
		heat := &models.Heat{
			ID:               uuid.New().String(),
			TournamentID:     event.TournamentID,
			EventID:          event.ID,
			HeatNumber:       g.HeatNumber,
			RunNumber:        g.RunNumber,
			Competitors:      g.Competitors,
			StandAssignments: g.StandAssignments,
			Status:           models.HeatStatusScheduled,
			Version:          1,
		}
		assignments := make([]models.HeatAssignment, 0, len(g.Competitors))
		for _, competitorID := range g.Competitors {
			a := models.HeatAssignment{
				ID:     uuid.New().String(),
				HeatID: heat.ID,
				Stand:  g.StandAssignments[competitorID],
			}
			id := competitorID
			if event.Division == models.DivisionCollege {
				a.CollegeCompetitorID = &id
			} else {
				a.ProCompetitorID = &id
			}
			assignments = append(assignments, a)
		}
		if err := s.repos.Heat.CreateWithAssignmentsTx(ctx, tx, heat, assignments); err != nil {
			return nil, apperr.Internal(err)
		}
		out = append(out, heat)
	}

	if err := s.audit.LogTx(ctx, tx, rc, "heats.regenerate", "event", event.ID, fmt.Sprintf("generated %d heats", len(out))); err != nil {
		return nil, apperr.Internal(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal(err)
	}

	if s.cache != nil {
		_ = s.cache.InvalidateTournament(ctx, event.TournamentID)
	}

	return out, nil
}
