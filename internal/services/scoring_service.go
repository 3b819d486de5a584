// internal/services/scoring_service.go
// Per-heat measurement submission, idempotent finalization, placement
// points/payouts, and outlier flagging.

package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"lumberjack-engine/internal/apperr"
	"lumberjack-engine/internal/config"
	"lumberjack-engine/internal/models"
	"lumberjack-engine/internal/reqcontext"
	"lumberjack-engine/internal/repositories"
)

// ScoringSubmission is one competitor's raw measurement for a heat.
type ScoringSubmission struct {
	CompetitorID   string
	CompetitorType string // "college" or "pro"
	RawValue       string
	Status         models.ResultStatus
}

// ScoringService records heat results and runs event finalization.
type ScoringService struct {
	repos  *repositories.Container
	audit  *AuditService
	cache  *CacheService
	cfg    config.TournamentConfig
	logger *log.Logger
}

func NewScoringService(repos *repositories.Container, audit *AuditService, cache *CacheService, cfg config.TournamentConfig, logger *log.Logger) *ScoringService {
	return &ScoringService{repos: repos, audit: audit, cache: cache, cfg: cfg, logger: logger}
}

// SubmitHeat records measurements for every entry in submissions, marks
// the heat completed, and triggers finalization if the event is not
// dual-run and every heat for it is now complete.
func (s *ScoringService) SubmitHeat(ctx context.Context, rc reqcontext.RequestContext, heatID string, heatVersion int, submissions []ScoringSubmission) (warnings []string, err error) {
	if !rc.Role.CanScore() {
		return nil, apperr.Permission("role " + string(rc.Role) + " cannot score heats")
	}
	heat, err := s.repos.Heat.GetByID(ctx, heatID)
	if err != nil {
		return nil, err
	}
	if heat.Version != heatVersion {
		return nil, apperr.Conflict(fmt.Sprintf("heat %s has been modified since it was loaded", heatID))
	}

	event, err := s.repos.Event.GetByID(ctx, heat.EventID)
	if err != nil {
		return nil, err
	}

	tx, err := s.repos.BeginTx(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, sub := range submissions {
		value, parseErr := strconv.ParseFloat(sub.RawValue, 64)
		if parseErr != nil {
			warnings = append(warnings, fmt.Sprintf("could not parse value %q for competitor %s", sub.RawValue, sub.CompetitorID))
			continue
		}

		res, getErr := s.repos.EventResult.GetByEventAndCompetitorTx(ctx, tx, event.ID, sub.CompetitorID, sub.CompetitorType)
		if getErr != nil && !apperr.Is(getErr, apperr.KindNotFound) {
			return nil, apperr.Internal(getErr)
		}
		if res == nil {
			res = &models.EventResult{
				ID:           newID(),
				TournamentID: event.TournamentID,
				EventID:      event.ID,
				Status:       models.ResultStatusPending,
				CreatedAt:    now,
			}
			id := sub.CompetitorID
			if sub.CompetitorType == "college" {
				res.CollegeCompetitorID = &id
			} else {
				res.ProCompetitorID = &id
			}
			if err := s.repos.EventResult.UpsertPendingTx(ctx, tx, res); err != nil {
				return nil, apperr.Internal(err)
			}
			res.Version = 1
		}

		if event.RequiresDualRuns {
			if heat.RunNumber == 1 {
				res.Run1Value = &value
			} else {
				res.Run2Value = &value
			}
			if res.Run1Value != nil && res.Run2Value != nil {
				best := bestOfTwo(event.ScoringOrder, *res.Run1Value, *res.Run2Value)
				res.BestRun = &best
				res.ResultValue = &best
			}
		} else {
			res.ResultValue = &value
		}
		res.Status = sub.Status
		res.UpdatedAt = now

		if err := s.repos.EventResult.UpdateWithVersionTx(ctx, tx, res); err != nil {
			return nil, apperr.Internal(err)
		}
	}

	heat.Status = models.HeatStatusCompleted
	heat.UpdatedAt = now
	if err := s.repos.Heat.UpdateWithVersionTx(ctx, tx, heat, event.Division); err != nil {
		return nil, apperr.Internal(err)
	}

	if err := s.audit.LogTx(ctx, tx, rc, "heat.submit", "heat", heat.ID, fmt.Sprintf("recorded %d submissions", len(submissions))); err != nil {
		return nil, apperr.Internal(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal(err)
	}

	if s.cache != nil {
		_ = s.cache.InvalidateTournament(ctx, event.TournamentID)
	}

	if !event.RequiresDualRuns {
		allComplete, completeErr := s.allHeatsComplete(ctx, event.ID)
		if completeErr != nil {
			return warnings, completeErr
		}
		if allComplete {
			if err := s.FinalizeEvent(ctx, rc, event.ID); err != nil {
				return warnings, err
			}
		}
	}

	return warnings, nil
}

func (s *ScoringService) allHeatsComplete(ctx context.Context, eventID string) (bool, error) {
	heats, err := s.repos.Heat.ListByEvent(ctx, eventID)
	if err != nil {
		return false, apperr.Internal(err)
	}
	if len(heats) == 0 {
		return false, nil
	}
	for _, h := range heats {
		if h.Status != models.HeatStatusCompleted {
			return false, nil
		}
	}
	return true, nil
}

func bestOfTwo(order models.ScoringOrder, a, b float64) float64 {
	if order == models.ScoringOrderLowestWins {
		return math.Min(a, b)
	}
	return math.Max(a, b)
}

// competitorLedger loads each touched competitor at most once per
// finalization run and accumulates point/earning deltas against that
// single in-memory copy, so an undo and a re-award on the same
// competitor within one finalize() never read stale data back from a
// second connection mid-transaction.
type competitorLedger struct {
	repos   *repositories.Container
	college map[string]*models.CollegeCompetitor
	pro     map[string]*models.ProCompetitor
}

func newCompetitorLedger(repos *repositories.Container) *competitorLedger {
	return &competitorLedger{repos: repos, college: make(map[string]*models.CollegeCompetitor), pro: make(map[string]*models.ProCompetitor)}
}

func (l *competitorLedger) getCollege(ctx context.Context, id string) (*models.CollegeCompetitor, error) {
	if c, ok := l.college[id]; ok {
		return c, nil
	}
	c, err := l.repos.CollegeCompetitor.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	l.college[id] = c
	return c, nil
}

func (l *competitorLedger) getPro(ctx context.Context, id string) (*models.ProCompetitor, error) {
	if p, ok := l.pro[id]; ok {
		return p, nil
	}
	p, err := l.repos.ProCompetitor.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	l.pro[id] = p
	return p, nil
}

// flush writes every touched competitor back exactly once.
func (l *competitorLedger) flush(ctx context.Context, tx *sql.Tx) error {
	now := time.Now()
	for _, c := range l.college {
		c.UpdatedAt = now
		if err := l.repos.CollegeCompetitor.UpdateWithVersionTx(ctx, tx, c); err != nil {
			return apperr.Internal(err)
		}
	}
	for _, p := range l.pro {
		p.UpdatedAt = now
		if err := l.repos.ProCompetitor.UpdateWithVersionTx(ctx, tx, p); err != nil {
			return apperr.Internal(err)
		}
	}
	return nil
}

// FinalizeEvent is idempotent: repeated calls produce the same points/
// payouts/positions as a single call.
func (s *ScoringService) FinalizeEvent(ctx context.Context, rc reqcontext.RequestContext, eventID string) error {
	if !rc.Role.CanScore() {
		return apperr.Permission("role " + string(rc.Role) + " cannot finalize events")
	}
	event, err := s.repos.Event.GetByID(ctx, eventID)
	if err != nil {
		return err
	}

	tx, err := s.repos.BeginTx(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	defer tx.Rollback()

	results, err := s.repos.EventResult.ListByEventTx(ctx, tx, eventID)
	if err != nil {
		return apperr.Internal(err)
	}

	ledger := newCompetitorLedger(s.repos)

	// Step 1: undo previously awarded points/payouts so repeated calls
	// never double-award.
	for _, res := range results {
		if err := undoAward(ctx, ledger, event, res); err != nil {
			return err
		}
	}

	// Step 2: rank completed results by the event's sort metric with
	// dense ranking on ties.
	completed := make([]*models.EventResult, 0, len(results))
	for _, res := range results {
		if res.ResultValue != nil && res.Status != models.ResultStatusDQ {
			completed = append(completed, res)
		}
	}
	sortResults(completed, event.ScoringOrder)
	assignDensePositions(completed)

	// Step 3/4: award points (college) or payouts (pro).
	touchedTeams := make(map[string]bool)
	for _, res := range completed {
		if res.FinalPosition == nil {
			continue
		}
		if event.Division == models.DivisionCollege {
			points := s.cfg.PlacementPoints[*res.FinalPosition]
			res.PointsAwarded = points
			if res.CollegeCompetitorID != nil {
				c, err := ledger.getCollege(ctx, *res.CollegeCompetitorID)
				if err != nil {
					return err
				}
				c.IndividualPoints += points
				touchedTeams[c.TeamID] = true
			}
		} else {
			payout := event.GetPayouts(*res.FinalPosition)
			res.PayoutAmount = payout
			if res.ProCompetitorID != nil {
				p, err := ledger.getPro(ctx, *res.ProCompetitorID)
				if err != nil {
					return err
				}
				p.TotalEarnings += payout
			}
		}
	}

	// Step 5: outlier flagging on the completed numeric set.
	flagOutliers(completed)

	now := time.Now()
	for _, res := range results {
		res.UpdatedAt = now
		if contains(completed, res) {
			res.FinalizedAt = &now
			res.Status = models.ResultStatusFinalized
		}
		if err := s.repos.EventResult.UpdateWithVersionTx(ctx, tx, res); err != nil {
			return apperr.Internal(err)
		}
	}

	if err := ledger.flush(ctx, tx); err != nil {
		return err
	}

	for teamID := range touchedTeams {
		if err := recomputeTeamTotal(ctx, tx, s.repos, teamID, ledger); err != nil {
			return err
		}
	}

	event.Status = models.EventStatusCompleted
	event.UpdatedAt = now
	if err := s.repos.Event.UpdateWithVersionTx(ctx, tx, event); err != nil {
		return apperr.Internal(err)
	}

	if err := s.audit.LogTx(ctx, tx, rc, "event.finalize", "event", event.ID, fmt.Sprintf("finalized %d results", len(completed))); err != nil {
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

// undoAward reverses a previous finalization's points/payout award on the
// competitor it touched, clamping individual_points at zero, then clears
// the result row's award fields. Mutations land on the shared ledger, not
// directly on the store, so a later re-award in the same run composes
// correctly.
func undoAward(ctx context.Context, ledger *competitorLedger, event *models.Event, res *models.EventResult) error {
	if res.PointsAwarded == 0 && res.PayoutAmount == 0 {
		res.FinalPosition = nil
		return nil
	}

	if event.Division == models.DivisionCollege && res.CollegeCompetitorID != nil && res.PointsAwarded != 0 {
		c, err := ledger.getCollege(ctx, *res.CollegeCompetitorID)
		if err != nil {
			return err
		}
		c.IndividualPoints -= res.PointsAwarded
		if c.IndividualPoints < 0 {
			c.IndividualPoints = 0
		}
	}

	if event.Division == models.DivisionPro && res.ProCompetitorID != nil && res.PayoutAmount != 0 {
		p, err := ledger.getPro(ctx, *res.ProCompetitorID)
		if err != nil {
			return err
		}
		p.TotalEarnings -= res.PayoutAmount
		if p.TotalEarnings < 0 {
			p.TotalEarnings = 0
		}
	}

	res.PointsAwarded = 0
	res.PayoutAmount = 0
	res.FinalPosition = nil
	return nil
}

// recomputeTeamTotal sums the individual_points of a team's active
// members (taking the ledger's in-memory value over the stored one for
// members touched this run) and writes it back, keeping the team/
// competitor points invariant true after every college award.
func recomputeTeamTotal(ctx context.Context, tx *sql.Tx, repos *repositories.Container, teamID string, ledger *competitorLedger) error {
	members, err := repos.CollegeCompetitor.ListByTeam(ctx, teamID)
	if err != nil {
		return apperr.Internal(err)
	}
	total := 0
	for _, m := range members {
		points := m.IndividualPoints
		if touched, ok := ledger.college[m.ID]; ok {
			points = touched.IndividualPoints
		}
		if m.Status == models.CompetitorStatusActive {
			total += points
		}
	}

	team, err := repos.Team.GetByID(ctx, teamID)
	if err != nil {
		return apperr.Internal(err)
	}
	team.TotalPoints = total
	team.UpdatedAt = time.Now()
	if err := repos.Team.UpdateWithVersionTx(ctx, tx, team); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func newID() string {
	return uuid.New().String()
}

func contains(list []*models.EventResult, target *models.EventResult) bool {
	for _, r := range list {
		if r.ID == target.ID {
			return true
		}
	}
	return false
}

func sortResults(results []*models.EventResult, order models.ScoringOrder) {
	sort.SliceStable(results, func(i, j int) bool {
		vi, vj := *results[i].ResultValue, *results[j].ResultValue
		if order == models.ScoringOrderLowestWins {
			return vi < vj
		}
		return vi > vj
	})
}

// assignDensePositions walks the already-sorted slice and assigns the
// same position to result rows whose metric compares equal, advancing
// the next distinct metric by the count of tied rows.
func assignDensePositions(results []*models.EventResult) {
	position := 0
	i := 0
	for i < len(results) {
		j := i
		for j < len(results) && *results[j].ResultValue == *results[i].ResultValue {
			j++
		}
		position++
		for k := i; k < j; k++ {
			p := position
			results[k].FinalPosition = &p
		}
		position += (j - i) - 1
		i = j
	}
}

// flagOutliers sets IsFlagged on results whose metric deviates more than
// 2 standard deviations from the mean, when at least 3 numeric values
// are present.
func flagOutliers(results []*models.EventResult) {
	if len(results) < 3 {
		return
	}
	var sum float64
	for _, r := range results {
		sum += *r.ResultValue
	}
	mean := sum / float64(len(results))

	var sumSq float64
	for _, r := range results {
		d := *r.ResultValue - mean
		sumSq += d * d
	}
	stddev := math.Sqrt(sumSq / float64(len(results)))
	if stddev == 0 {
		return
	}
	for _, r := range results {
		if math.Abs(*r.ResultValue-mean) > 2*stddev {
			r.IsFlagged = true
		} else {
			r.IsFlagged = false
		}
	}
}
