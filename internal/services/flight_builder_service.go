// internal/services/flight_builder_service.go
// Global ordering of pro run-1 heats to maximize competitor rest spacing
// with a greedy lookback scorer.

package services

import (
	"context"
	"log"

	"github.com/google/uuid"

	"lumberjack-engine/internal/apperr"
	"lumberjack-engine/internal/config"
	"lumberjack-engine/internal/models"
	"lumberjack-engine/internal/reqcontext"
	"lumberjack-engine/internal/repositories"
)

// FlightBuilderService packs pro run-1 heats into flights.
type FlightBuilderService struct {
	repos  *repositories.Container
	audit  *AuditService
	cache  *CacheService
	cfg    config.TournamentConfig
	logger *log.Logger
}

func NewFlightBuilderService(repos *repositories.Container, audit *AuditService, cache *CacheService, cfg config.TournamentConfig, logger *log.Logger) *FlightBuilderService {
	return &FlightBuilderService{repos: repos, audit: audit, cache: cache, cfg: cfg, logger: logger}
}

// SpacingViolation names a competitor who appears in two output positions
// closer together than MinHeatSpacing allows.
type SpacingViolation struct {
	CompetitorID string
	FirstIndex   int
	SecondIndex  int
	Spacing      int
}

// Order runs the greedy-with-lookback scorer over candidates and returns
// them in final flight order.
func (s *FlightBuilderService) Order(candidates []*models.Heat) []*models.Heat {
	remaining := make([]*models.Heat, len(candidates))
	copy(remaining, candidates)

	last := make(map[string]int)
	out := make([]*models.Heat, 0, len(candidates))

	for len(remaining) > 0 {
		bestIdx := 0
		bestScore := -1.0
		for i, h := range remaining {
			score := scoreCandidate(h, last, len(out), s.cfg.MinHeatSpacing, s.cfg.TargetHeatSpacing)
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		chosen := remaining[bestIdx]
		out = append(out, chosen)
		for _, c := range chosen.Competitors {
			last[c] = len(out) - 1
		}
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return out
}

func scoreCandidate(h *models.Heat, last map[string]int, currentIndex int, minSpacing, targetSpacing int) float64 {
	allNew := true
	minObserved := -1
	sumSpacing := 0
	count := 0
	for _, c := range h.Competitors {
		idx, seen := last[c]
		if !seen {
			continue
		}
		allNew = false
		spacing := currentIndex - idx
		sumSpacing += spacing
		count++
		if minObserved == -1 || spacing < minObserved {
			minObserved = spacing
		}
	}

	if allNew {
		return 1000
	}

	if minObserved < minSpacing {
		score := float64(50 - (minSpacing-minObserved)*100)
		if score < 0 {
			score = 0
		}
		return score
	}

	avgSpacing := float64(sumSpacing) / float64(count)
	score := float64(minObserved*10) + avgSpacing
	if minObserved >= targetSpacing {
		score += 50
	}
	return score
}

// Verify walks a final flight order and reports every spacing violation
// for operator review; it never blocks commit.
func (s *FlightBuilderService) Verify(ordered []*models.Heat) []SpacingViolation {
	last := make(map[string]int)
	var violations []SpacingViolation
	for i, h := range ordered {
		for _, c := range h.Competitors {
			if prevIdx, ok := last[c]; ok {
				spacing := i - prevIdx
				if spacing < s.cfg.MinHeatSpacing {
					violations = append(violations, SpacingViolation{CompetitorID: c, FirstIndex: prevIdx, SecondIndex: i, Spacing: spacing})
				}
			}
			last[c] = i
		}
	}
	return violations
}

// BuildAndPersist orders every pro run-1 heat for the tournament and
// replaces the stored Flight rows with the new split.
func (s *FlightBuilderService) BuildAndPersist(ctx context.Context, rc reqcontext.RequestContext, tournamentID string) ([]*models.Flight, error) {
	if !rc.Role.CanSchedule() {
		return nil, apperr.Permission("role " + string(rc.Role) + " cannot rebuild flights")
	}
	candidates, err := s.repos.Heat.ListRunOneByTournament(ctx, tournamentID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	ordered := s.Order(candidates)

	perFlight := s.cfg.HeatsPerFlight
	if perFlight <= 0 {
		perFlight = 8
	}

	var flights []*models.Flight
	for i := 0; i < len(ordered); i += perFlight {
		end := i + perFlight
		if end > len(ordered) {
			end = len(ordered)
		}
		heatIDs := make([]string, 0, end-i)
		for _, h := range ordered[i:end] {
			heatIDs = append(heatIDs, h.ID)
		}
		flights = append(flights, &models.Flight{
			ID:           uuid.New().String(),
			TournamentID: tournamentID,
			FlightNumber: len(flights) + 1,
			Status:       models.FlightStatusScheduled,
			HeatIDs:      heatIDs,
			Version:      1,
		})
	}

	tx, err := s.repos.BeginTx(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer tx.Rollback()

	if err := s.repos.Flight.ReplaceAllTx(ctx, tx, tournamentID, flights); err != nil {
		return nil, apperr.Internal(err)
	}
	if err := s.audit.LogTx(ctx, tx, rc, "flights.build", "tournament", tournamentID, "rebuilt flight schedule"); err != nil {
		return nil, apperr.Internal(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal(err)
	}

	if s.cache != nil {
		_ = s.cache.InvalidateTournament(ctx, tournamentID)
	}

	return flights, nil
}
