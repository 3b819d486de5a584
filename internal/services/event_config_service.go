// internal/services/event_config_service.go
// Idempotent event configuration: upserts the operator's selections from
// the event catalog into Event rows and removes deselected events that
// have no heats or results yet.

package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"lumberjack-engine/internal/apperr"
	"lumberjack-engine/internal/config"
	"lumberjack-engine/internal/models"
	"lumberjack-engine/internal/reqcontext"
	"lumberjack-engine/internal/repositories"
)

// EventConfigService turns catalog selections into Event rows.
type EventConfigService struct {
	repos  *repositories.Container
	audit  *AuditService
	cache  *CacheService
	cfg    config.TournamentConfig
	logger *log.Logger
}

func NewEventConfigService(repos *repositories.Container, audit *AuditService, cache *CacheService, cfg config.TournamentConfig, logger *log.Logger) *EventConfigService {
	return &EventConfigService{repos: repos, audit: audit, cache: cache, cfg: cfg, logger: logger}
}

// CollegeSelections carries the operator's college setup form: which
// closed events are enabled, and which traditionally-OPEN events should
// run as CLOSED this year.
type CollegeSelections struct {
	EnabledClosed map[string]bool // catalog name -> enabled
	OpenAsClosed  map[string]bool // catalog name -> run as CLOSED
}

// ProSelections carries the pro setup form: enabled events, and for
// gendered events which genders run.
type ProSelections struct {
	Enabled        map[string]bool
	EnabledGenders map[string]map[models.Gender]bool // catalog name -> gender -> enabled
}

// ConfigureResult reports what a configuration pass changed.
type ConfigureResult struct {
	Created int
	Updated int
	Removed int
	// Skipped counts deselected events left in place because heats or
	// results already reference them.
	Skipped int
}

// ConfigureCollegeEvents upserts the college event set for a tournament
// in one transaction. Running it twice with the same selections leaves
// the rows unchanged apart from version counters.
func (s *EventConfigService) ConfigureCollegeEvents(ctx context.Context, rc reqcontext.RequestContext, tournamentID string, sel CollegeSelections) (*ConfigureResult, error) {
	if !rc.Role.CanSchedule() {
		return nil, apperr.Permission("role " + string(rc.Role) + " cannot configure events")
	}

	return s.configure(ctx, rc, tournamentID, models.DivisionCollege, func(tx *sql.Tx, selected map[string]bool, result *ConfigureResult) error {
		for _, entry := range config.CollegeOpenEvents {
			isOpen := !sel.OpenAsClosed[entry.Name]
			if err := s.upsertGendered(ctx, tx, tournamentID, entry, models.DivisionCollege, isOpen, selected, result); err != nil {
				return err
			}
		}
		for _, entry := range config.CollegeClosedEvents {
			if !sel.EnabledClosed[entry.Name] {
				continue
			}
			if err := s.upsertGendered(ctx, tx, tournamentID, entry, models.DivisionCollege, false, selected, result); err != nil {
				return err
			}
		}
		return nil
	})
}

// ConfigureProEvents upserts the pro event set for a tournament in one
// transaction.
func (s *EventConfigService) ConfigureProEvents(ctx context.Context, rc reqcontext.RequestContext, tournamentID string, sel ProSelections) (*ConfigureResult, error) {
	if !rc.Role.CanSchedule() {
		return nil, apperr.Permission("role " + string(rc.Role) + " cannot configure events")
	}

	return s.configure(ctx, rc, tournamentID, models.DivisionPro, func(tx *sql.Tx, selected map[string]bool, result *ConfigureResult) error {
		for _, entry := range config.ProEvents {
			if !sel.Enabled[entry.Name] {
				continue
			}
			if entry.IsGendered {
				for _, g := range []models.Gender{models.GenderMale, models.GenderFemale} {
					if genders := sel.EnabledGenders[entry.Name]; genders != nil && !genders[g] {
						continue
					}
					gender := g
					if err := s.upsertOne(ctx, tx, tournamentID, entry, models.DivisionPro, &gender, false, selected, result); err != nil {
						return err
					}
				}
				continue
			}
			if err := s.upsertOne(ctx, tx, tournamentID, entry, models.DivisionPro, nil, false, selected, result); err != nil {
				return err
			}
		}
		return nil
	})
}

// configure runs one setup pass: upserts via apply, removes deselected
// rows, audits, and commits, all atomically.
func (s *EventConfigService) configure(ctx context.Context, rc reqcontext.RequestContext, tournamentID string, division models.Division, apply func(tx *sql.Tx, selected map[string]bool, result *ConfigureResult) error) (*ConfigureResult, error) {
	tx, err := s.repos.BeginTx(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer tx.Rollback()

	result := &ConfigureResult{}
	selected := make(map[string]bool)

	if err := apply(tx, selected, result); err != nil {
		return nil, err
	}
	if err := s.removeDeselected(ctx, tx, tournamentID, division, selected, result); err != nil {
		return nil, err
	}

	detail := fmt.Sprintf("created %d, updated %d, removed %d, skipped %d", result.Created, result.Updated, result.Removed, result.Skipped)
	if err := s.audit.LogTx(ctx, tx, rc, "events.configure", "tournament", tournamentID, detail); err != nil {
		return nil, apperr.Internal(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal(err)
	}

	if s.cache != nil {
		_ = s.cache.InvalidateTournament(ctx, tournamentID)
	}
	return result, nil
}

// upsertGendered expands a gendered catalog entry into men's and women's
// rows; mixed-partner and ungendered entries become one genderless row.
func (s *EventConfigService) upsertGendered(ctx context.Context, tx *sql.Tx, tournamentID string, entry config.EventCatalogEntry, division models.Division, isOpen bool, selected map[string]bool, result *ConfigureResult) error {
	if !entry.IsGendered || (entry.IsPartnered && entry.PartnerGender == "mixed") {
		return s.upsertOne(ctx, tx, tournamentID, entry, division, nil, isOpen, selected, result)
	}
	for _, g := range []models.Gender{models.GenderMale, models.GenderFemale} {
		gender := g
		if err := s.upsertOne(ctx, tx, tournamentID, entry, division, &gender, isOpen, selected, result); err != nil {
			return err
		}
	}
	return nil
}

func (s *EventConfigService) upsertOne(ctx context.Context, tx *sql.Tx, tournamentID string, entry config.EventCatalogEntry, division models.Division, gender *models.Gender, isOpen bool, selected map[string]bool, result *ConfigureResult) error {
	selected[eventSignature(entry.Name, division, gender)] = true

	existing, err := s.repos.Event.GetBySignature(ctx, tournamentID, entry.Name, division, gender)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return apperr.Internal(err)
	}

	now := time.Now()
	event := existing
	isNew := event == nil
	if isNew {
		event = &models.Event{
			ID:           uuid.New().String(),
			TournamentID: tournamentID,
			Name:         entry.Name,
			DisplayName:  entry.Name,
			Division:     division,
			Gender:       gender,
			Status:       models.EventStatusScheduled,
			CreatedAt:    now,
		}
	}

	standCfg := s.cfg.StandConfigs[entry.StandType]
	event.ScoringType = models.ScoringType(entry.ScoringType)
	event.ScoringOrder = scoringOrderFor(entry.ScoringType)
	event.StandType = models.StandType(entry.StandType)
	event.MaxStands = standCfg.Total
	event.IsOpen = isOpen
	event.IsClosed = !isOpen && (division == models.DivisionCollege || s.cfg.ClosedEvents[entry.Name])
	event.IsListOnly = s.cfg.ListOnlyEvents[entry.Name]
	event.IsChopping = s.cfg.ChoppingEvents[entry.Name]
	event.IsPartnered = entry.IsPartnered
	if entry.PartnerGender == "same" {
		event.PartnerGenderRequirement = gender
	} else {
		event.PartnerGenderRequirement = nil
	}
	event.RequiresDualRuns = entry.RequiresDualRuns
	event.HasPrelims = entry.HasPrelims
	event.UpdatedAt = now

	if isNew {
		if err := s.repos.Event.CreateTx(ctx, tx, event); err != nil {
			return apperr.Internal(err)
		}
		result.Created++
		return nil
	}
	if err := s.repos.Event.UpdateWithVersionTx(ctx, tx, event); err != nil {
		return err
	}
	result.Updated++
	return nil
}

// removeDeselected deletes events the operator no longer has selected,
// leaving any with existing heats or results in place (Skipped).
func (s *EventConfigService) removeDeselected(ctx context.Context, tx *sql.Tx, tournamentID string, division models.Division, selected map[string]bool, result *ConfigureResult) error {
	existing, err := s.repos.Event.ListByTournament(ctx, tournamentID, division)
	if err != nil {
		return apperr.Internal(err)
	}
	for _, e := range existing {
		if selected[eventSignature(e.Name, e.Division, e.Gender)] {
			continue
		}
		heats, err := s.repos.Heat.ListByEvent(ctx, e.ID)
		if err != nil {
			return apperr.Internal(err)
		}
		results, err := s.repos.EventResult.ListByEvent(ctx, e.ID)
		if err != nil {
			return apperr.Internal(err)
		}
		if len(heats) > 0 || len(results) > 0 {
			result.Skipped++
			continue
		}
		if err := s.repos.Event.DeleteTx(ctx, tx, e.ID); err != nil {
			return apperr.Internal(err)
		}
		result.Removed++
	}
	return nil
}

func eventSignature(name string, division models.Division, gender *models.Gender) string {
	g := ""
	if gender != nil {
		g = string(*gender)
	}
	return fmt.Sprintf("%s|%s|%s", division, name, g)
}

// scoringOrderFor ranks score, distance, and hit counts highest-first and
// every timed event lowest-first.
func scoringOrderFor(scoringType string) models.ScoringOrder {
	if scoringType == "score" || scoringType == "distance" || scoringType == "hits" {
		return models.ScoringOrderHighestWins
	}
	return models.ScoringOrderLowestWins
}
