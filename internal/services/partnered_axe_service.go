// internal/services/partnered_axe_service.go
// Prelims-to-finals state machine for the Partnered Axe Throw event,
// persisted as a models.BracketState JSON blob on its Event row.

package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"lumberjack-engine/internal/apperr"
	"lumberjack-engine/internal/config"
	"lumberjack-engine/internal/models"
	"lumberjack-engine/internal/reqcontext"
	"lumberjack-engine/internal/repositories"
)

// PartneredAxeService drives one event's PartneredAxeState through
// prelims -> finals -> completed.
type PartneredAxeService struct {
	repos  *repositories.Container
	audit  *AuditService
	cache  *CacheService
	cfg    config.TournamentConfig
	logger *log.Logger
}

func NewPartneredAxeService(repos *repositories.Container, audit *AuditService, cache *CacheService, cfg config.TournamentConfig, logger *log.Logger) *PartneredAxeService {
	return &PartneredAxeService{repos: repos, audit: audit, cache: cache, cfg: cfg, logger: logger}
}

// RegisterPair adds a prelim pair of distinct pro competitors to a fresh
// or in-progress prelims stage.
func (s *PartneredAxeService) RegisterPair(ctx context.Context, rc reqcontext.RequestContext, eventID, competitorAID, competitorBID string) error {
	if !rc.Role.CanScore() {
		return apperr.Permission("role " + string(rc.Role) + " cannot manage the axe throw bracket")
	}
	if competitorAID == competitorBID {
		return apperr.Validation("DUPLICATE_PARTNER", "a pair must be two distinct competitors")
	}

	event, err := s.repos.Event.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	state := ensurePartneredAxeState(event)
	if state.Stage != models.PartneredAxeStagePrelims {
		return apperr.Validation("PAIR_REGISTRATION_CLOSED", "pairs can only register during prelims")
	}

	for _, p := range state.Pairs {
		if p.CompetitorAID == competitorAID || p.CompetitorBID == competitorAID ||
			p.CompetitorAID == competitorBID || p.CompetitorBID == competitorBID {
			return apperr.Validation("ALREADY_PAIRED", "one of these competitors is already registered in another pair")
		}
	}

	state.Pairs = append(state.Pairs, models.PartneredAxePair{
		ID:                uuid.New().String(),
		CompetitorAID:     competitorAID,
		CompetitorBID:     competitorBID,
		RegistrationOrder: len(state.Pairs) + 1,
	})

	return s.persist(ctx, rc, event, "partnered_axe.register_pair", fmt.Sprintf("registered pair %s/%s", competitorAID, competitorBID))
}

// RecordPrelimScore sets a pair's total hits for the prelim round.
func (s *PartneredAxeService) RecordPrelimScore(ctx context.Context, rc reqcontext.RequestContext, eventID, pairID string, score float64) error {
	if !rc.Role.CanScore() {
		return apperr.Permission("role " + string(rc.Role) + " cannot record scores")
	}
	event, err := s.repos.Event.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	state := ensurePartneredAxeState(event)
	if state.Stage != models.PartneredAxeStagePrelims {
		return apperr.Validation("NOT_IN_PRELIMS", "prelim scores can only be recorded during prelims")
	}

	found := false
	for i := range state.Pairs {
		if state.Pairs[i].ID == pairID {
			state.Pairs[i].PrelimScore = &score
			found = true
			break
		}
	}
	if !found {
		return apperr.NotFound("pair", pairID)
	}

	return s.persist(ctx, rc, event, "partnered_axe.record_prelim", fmt.Sprintf("pair %s scored %.2f in prelims", pairID, score))
}

// AdvanceToFinals selects the top-4 pairs by prelim score once every
// registered pair has a score and at least 4 pairs exist.
func (s *PartneredAxeService) AdvanceToFinals(ctx context.Context, rc reqcontext.RequestContext, eventID string) error {
	if !rc.Role.CanScore() {
		return apperr.Permission("role " + string(rc.Role) + " cannot advance the bracket")
	}
	event, err := s.repos.Event.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	state := ensurePartneredAxeState(event)
	if state.Stage != models.PartneredAxeStagePrelims {
		return apperr.Validation("NOT_IN_PRELIMS", "can only advance from prelims")
	}
	if len(state.Pairs) < 4 {
		return apperr.Validation("TOO_FEW_PAIRS", "at least 4 pairs are required to advance to finals")
	}
	for _, p := range state.Pairs {
		if p.PrelimScore == nil {
			return apperr.Validation("PRELIMS_INCOMPLETE", "every pair must have a prelim score before advancing")
		}
	}

	ranked := make([]models.PartneredAxePair, len(state.Pairs))
	copy(ranked, state.Pairs)
	sort.SliceStable(ranked, func(i, j int) bool {
		if *ranked[i].PrelimScore != *ranked[j].PrelimScore {
			return *ranked[i].PrelimScore > *ranked[j].PrelimScore
		}
		return ranked[i].RegistrationOrder < ranked[j].RegistrationOrder
	})

	finalists := make([]string, 4)
	for i := 0; i < 4; i++ {
		finalists[i] = ranked[i].ID
	}
	state.Finalists = finalists
	state.Stage = models.PartneredAxeStageFinals

	return s.persist(ctx, rc, event, "partnered_axe.advance_finals", "advanced top 4 pairs to finals")
}

// RecordFinalScore sets a finalist pair's finals score. Once all four
// finalists have scores, ranks them 1-4, assigns 5+ to non-finalists by
// prelim standing, and finalizes the event.
func (s *PartneredAxeService) RecordFinalScore(ctx context.Context, rc reqcontext.RequestContext, eventID, pairID string, score float64) error {
	if !rc.Role.CanScore() {
		return apperr.Permission("role " + string(rc.Role) + " cannot record scores")
	}
	event, err := s.repos.Event.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	state := ensurePartneredAxeState(event)
	if state.Stage != models.PartneredAxeStageFinals {
		return apperr.Validation("NOT_IN_FINALS", "final scores can only be recorded during finals")
	}
	if !containsString(state.Finalists, pairID) {
		return apperr.Validation("NOT_A_FINALIST", "this pair did not qualify for finals")
	}

	found := false
	for i := range state.Pairs {
		if state.Pairs[i].ID == pairID {
			state.Pairs[i].FinalScore = &score
			found = true
			break
		}
	}
	if !found {
		return apperr.NotFound("pair", pairID)
	}

	allScored := true
	for _, id := range state.Finalists {
		pair := findPair(state.Pairs, id)
		if pair == nil || pair.FinalScore == nil {
			allScored = false
			break
		}
	}

	if !allScored {
		return s.persist(ctx, rc, event, "partnered_axe.record_final", fmt.Sprintf("pair %s scored %.2f in finals", pairID, score))
	}

	assignPartneredAxePositions(state)
	state.Stage = models.PartneredAxeStageCompleted
	event.Status = models.EventStatusCompleted

	tx, err := s.repos.BeginTx(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, p := range state.Pairs {
		if p.FinalPosition == nil {
			continue
		}
		finalValue := p.PrelimScore
		if p.FinalScore != nil {
			finalValue = p.FinalScore
		}
		for _, competitorID := range []string{p.CompetitorAID, p.CompetitorBID} {
			res, getErr := s.repos.EventResult.GetByEventAndCompetitorTx(ctx, tx, event.ID, competitorID, "pro")
			if getErr != nil && !apperr.Is(getErr, apperr.KindNotFound) {
				return apperr.Internal(getErr)
			}
			if res == nil {
				id := competitorID
				res = &models.EventResult{ID: uuid.New().String(), TournamentID: event.TournamentID, EventID: event.ID, ProCompetitorID: &id, Status: models.ResultStatusFinalized, CreatedAt: now}
				if err := s.repos.EventResult.UpsertPendingTx(ctx, tx, res); err != nil {
					return apperr.Internal(err)
				}
				res.Version = 1
			}
			position := *p.FinalPosition
			res.FinalPosition = &position
			res.ResultValue = finalValue
			res.Status = models.ResultStatusFinalized
			res.UpdatedAt = now
			finishedAt := now
			res.FinalizedAt = &finishedAt
			payout := event.GetPayouts(position)
			res.PayoutAmount = payout
			comp, err := s.repos.ProCompetitor.GetByID(ctx, competitorID)
			if err != nil {
				return err
			}
			comp.TotalEarnings += payout
			comp.UpdatedAt = now
			if err := s.repos.ProCompetitor.UpdateWithVersionTx(ctx, tx, comp); err != nil {
				return apperr.Internal(err)
			}
			if err := s.repos.EventResult.UpdateWithVersionTx(ctx, tx, res); err != nil {
				return apperr.Internal(err)
			}
		}
	}

	event.UpdatedAt = now
	if err := s.repos.Event.UpdateWithVersionTx(ctx, tx, event); err != nil {
		return apperr.Internal(err)
	}
	if err := s.audit.LogTx(ctx, tx, rc, "partnered_axe.finalize", "event", event.ID, "finalized partnered axe throw bracket"); err != nil {
		return apperr.Internal(err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Internal(err)
	}
	if s.cache != nil {
		_ = s.cache.InvalidateTournament(ctx, event.TournamentID)
	}
	return nil
}

// assignPartneredAxePositions ranks the four finalists 1-4 by final
// score, then assigns the remaining pairs positions 5, 6, ... by prelim
// standing.
func assignPartneredAxePositions(state *models.PartneredAxeState) {
	finalistPairs := make([]*models.PartneredAxePair, 0, 4)
	for _, id := range state.Finalists {
		if p := findPair(state.Pairs, id); p != nil {
			finalistPairs = append(finalistPairs, p)
		}
	}
	sort.SliceStable(finalistPairs, func(i, j int) bool {
		return *finalistPairs[i].FinalScore > *finalistPairs[j].FinalScore
	})
	for i, p := range finalistPairs {
		position := i + 1
		p.FinalPosition = &position
	}

	var remaining []*models.PartneredAxePair
	for i := range state.Pairs {
		if !containsString(state.Finalists, state.Pairs[i].ID) {
			remaining = append(remaining, &state.Pairs[i])
		}
	}
	sort.SliceStable(remaining, func(i, j int) bool {
		return *remaining[i].PrelimScore > *remaining[j].PrelimScore
	})
	for i, p := range remaining {
		position := 5 + i
		p.FinalPosition = &position
	}
}

func findPair(pairs []models.PartneredAxePair, id string) *models.PartneredAxePair {
	for i := range pairs {
		if pairs[i].ID == id {
			return &pairs[i]
		}
	}
	return nil
}

func ensurePartneredAxeState(event *models.Event) *models.PartneredAxeState {
	if event.Bracket == nil {
		event.Bracket = &models.BracketState{Kind: models.BracketKindPartneredAxe}
	}
	if event.Bracket.PartneredAxe == nil {
		event.Bracket.PartneredAxe = &models.PartneredAxeState{Stage: models.PartneredAxeStagePrelims}
	}
	return event.Bracket.PartneredAxe
}

func (s *PartneredAxeService) persist(ctx context.Context, rc reqcontext.RequestContext, event *models.Event, action, detail string) error {
	tx, err := s.repos.BeginTx(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	defer tx.Rollback()

	event.UpdatedAt = time.Now()
	if err := s.repos.Event.UpdateWithVersionTx(ctx, tx, event); err != nil {
		return apperr.Internal(err)
	}
	if err := s.audit.LogTx(ctx, tx, rc, action, "event", event.ID, detail); err != nil {
		return apperr.Internal(err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Internal(err)
	}
	if s.cache != nil {
		_ = s.cache.InvalidateTournament(ctx, event.TournamentID)
	}
	return nil
}

func containsString(list []string, target string) bool {
	for _, v := range list {
		if v == target {
			return true
		}
	}
	return false
}
