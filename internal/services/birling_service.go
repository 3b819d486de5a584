// internal/services/birling_service.go
// Double-elimination bracket for the Birling event: seeding, two-pass
// match linking, and incremental result recording.

package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"lumberjack-engine/internal/apperr"
	"lumberjack-engine/internal/config"
	"lumberjack-engine/internal/models"
	"lumberjack-engine/internal/reqcontext"
	"lumberjack-engine/internal/repositories"
)

// BirlingService drives one event's BirlingState through seeding,
// incremental result recording, and final placement.
type BirlingService struct {
	repos  *repositories.Container
	audit  *AuditService
	cache  *CacheService
	cfg    config.TournamentConfig
	logger *log.Logger
}

func NewBirlingService(repos *repositories.Container, audit *AuditService, cache *CacheService, cfg config.TournamentConfig, logger *log.Logger) *BirlingService {
	return &BirlingService{repos: repos, audit: audit, cache: cache, cfg: cfg, logger: logger}
}

// Seed builds a fresh bracket of size 2^ceil(log2(N)) for competitorIDs,
// auto-advancing byes in round 1, and replaces any existing state.
func (s *BirlingService) Seed(ctx context.Context, rc reqcontext.RequestContext, eventID string, competitorIDs []string) error {
	if !rc.Role.CanScore() {
		return apperr.Permission("role " + string(rc.Role) + " cannot seed the bracket")
	}
	if len(competitorIDs) < 2 {
		return apperr.Validation("TOO_FEW_ENTRANTS", "at least 2 competitors are required to seed a bracket")
	}

	event, err := s.repos.Event.GetByID(ctx, eventID)
	if err != nil {
		return err
	}

	bracketSize := 1
	for bracketSize < len(competitorIDs) {
		bracketSize *= 2
	}

	state := buildBirlingBracket(competitorIDs, bracketSize)
	event.Bracket = &models.BracketState{Kind: models.BracketKindBirling, Birling: state}

	return s.persist(ctx, rc, event, "birling.seed", fmt.Sprintf("seeded %d competitors into a bracket of size %d", len(competitorIDs), bracketSize))
}

// buildBirlingBracket lays out the winners-bracket round-1 matches from
// seeded competitors, auto-advancing byes, then two-pass links every
// subsequent winners and losers round so recordMatchResult never has to
// search the bracket.
func buildBirlingBracket(competitorIDs []string, bracketSize int) *models.BirlingState {
	state := &models.BirlingState{
		BracketSize:      bracketSize,
		TotalEntrants:    len(competitorIDs),
		EliminationCount: 0,
	}

	winnersRounds := int(math.Log2(float64(bracketSize)))

	// Round 1 winners-bracket matches, standard seeding order.
	round1Size := bracketSize / 2
	round1 := make([]models.BirlingMatch, round1Size)
	for i := 0; i < round1Size; i++ {
		m := models.BirlingMatch{ID: uuid.New().String(), Bracket: models.BirlingBracketWinners, Round: 1, Slot: i}
		aIdx := i
		bIdx := bracketSize - 1 - i
		if aIdx < len(competitorIDs) {
			id := competitorIDs[aIdx]
			m.CompetitorAID = &id
		}
		if bIdx < len(competitorIDs) {
			id := competitorIDs[bIdx]
			m.CompetitorBID = &id
		}
		if m.CompetitorAID != nil && m.CompetitorBID == nil {
			m.WinnerID = m.CompetitorAID
			m.IsBye = true
			m.Completed = true
		} else if m.CompetitorBID != nil && m.CompetitorAID == nil {
			m.WinnerID = m.CompetitorBID
			m.IsBye = true
			m.Completed = true
		}
		round1[i] = m
	}
	state.Matches = append(state.Matches, round1...)

	// Subsequent winners rounds, empty until fed by recordMatchResult.
	prevRoundSize := round1Size
	for round := 2; round <= winnersRounds; round++ {
		size := prevRoundSize / 2
		for slot := 0; slot < size; slot++ {
			state.Matches = append(state.Matches, models.BirlingMatch{ID: uuid.New().String(), Bracket: models.BirlingBracketWinners, Round: round, Slot: slot})
		}
		prevRoundSize = size
	}

	// Losers bracket: round 1 pairs off the losers of winners round 1,
	// and each even round 2(r-1) meets the losers of winners round r
	// (r>1) with the winners of the previous losers round, alternating "drop-in" rounds with "consolidation"
	// rounds, standard double-elimination shape.
	losersRoundCount := 2 * (winnersRounds - 1)
	if losersRoundCount < 0 {
		losersRoundCount = 0
	}
	loserSize := round1Size / 2
	for round := 1; round <= losersRoundCount && loserSize > 0; round++ {
		for slot := 0; slot < loserSize; slot++ {
			state.Matches = append(state.Matches, models.BirlingMatch{ID: uuid.New().String(), Bracket: models.BirlingBracketLosers, Round: round, Slot: slot})
		}
		if round%2 == 0 {
			loserSize /= 2
		}
	}

	// Grand final.
	state.Matches = append(state.Matches, models.BirlingMatch{ID: uuid.New().String(), Bracket: models.BirlingBracketFinal, Round: 1, Slot: 0})

	linkBirlingBracket(state, winnersRounds)

	// Resolve byes that feed directly into round-2 winners matches.
	for i := range state.Matches {
		m := &state.Matches[i]
		if m.Completed && m.WinnerID != nil && m.NextMatchID != nil {
			advanceBirlingWinner(state, m)
		}
	}

	return state
}

// linkBirlingBracket is the two-pass step: having laid out every match's
// round/slot/bracket above, this pass wires NextMatchID/NextSlot and
// NextLoserMatchID/NextLoserSlot so recordMatchResult can advance a
// winner or drop a loser in O(1).
func linkBirlingBracket(state *models.BirlingState, winnersRounds int) {
	byRoundBracket := make(map[string][]*models.BirlingMatch)
	key := func(b models.BirlingBracketType, round int) string { return fmt.Sprintf("%s-%d", b, round) }
	for i := range state.Matches {
		m := &state.Matches[i]
		k := key(m.Bracket, m.Round)
		byRoundBracket[k] = append(byRoundBracket[k], m)
	}

	var finalMatch *models.BirlingMatch
	for i := range state.Matches {
		if state.Matches[i].Bracket == models.BirlingBracketFinal {
			finalMatch = &state.Matches[i]
		}
	}

	for round := 1; round < winnersRounds; round++ {
		current := byRoundBracket[key(models.BirlingBracketWinners, round)]
		next := byRoundBracket[key(models.BirlingBracketWinners, round+1)]
		for i, m := range current {
			target := next[i/2]
			m.NextMatchID = &target.ID
			m.NextSlot = i % 2
		}
	}
	if winnersRounds >= 1 {
		finalRound := byRoundBracket[key(models.BirlingBracketWinners, winnersRounds)]
		for _, m := range finalRound {
			m.NextMatchID = &finalMatch.ID
			m.NextSlot = 0
		}
	}

	// Drop losers of winners round 1 into losers round 1; losers of
	// winners round r>1 drop into the losers-bracket consolidation
	// round that follows the matching losers-vs-losers round.
	for round := 1; round <= winnersRounds; round++ {
		current := byRoundBracket[key(models.BirlingBracketWinners, round)]
		var targetLosersRound int
		if round == 1 {
			targetLosersRound = 1
		} else {
			targetLosersRound = 2 * (round - 1)
		}
		target := byRoundBracket[key(models.BirlingBracketLosers, targetLosersRound)]
		if len(target) == 0 {
			continue
		}
		for i, m := range current {
			slotIdx := i
			if round == 1 {
				// Two round-1 losers share each losers-round-1 match.
				slotIdx = i / 2
			}
			if slotIdx >= len(target) {
				slotIdx = slotIdx % len(target)
			}
			t := target[slotIdx]
			m.NextLoserMatchID = &t.ID
			if round == 1 {
				m.NextLoserSlot = i % 2
			} else {
				m.NextLoserSlot = 1
			}
		}
	}

	losersRoundCount := 2 * (winnersRounds - 1)
	for round := 1; round < losersRoundCount; round++ {
		current := byRoundBracket[key(models.BirlingBracketLosers, round)]
		next := byRoundBracket[key(models.BirlingBracketLosers, round+1)]
		if len(next) == 0 {
			continue
		}
		for i, m := range current {
			var target *models.BirlingMatch
			var slot int
			if round%2 == 1 {
				target = next[i]
				slot = 0
			} else {
				target = next[i/2]
				slot = i % 2
			}
			m.NextMatchID = &target.ID
			m.NextSlot = slot
		}
	}
	if losersRoundCount >= 1 {
		lastLosers := byRoundBracket[key(models.BirlingBracketLosers, losersRoundCount)]
		for _, m := range lastLosers {
			m.NextMatchID = &finalMatch.ID
			m.NextSlot = 1
		}
	}
}

// RecordMatchResult advances winnerID into whatever match NextMatchID
// points at, drops or eliminates the loser, and assigns a final
// placement to the loser the moment they're eliminated. Later
// eliminations get lower-numbered (better) positions; the bracket's
// single survivor takes position 1 once the grand final resolves.
func (s *BirlingService) RecordMatchResult(ctx context.Context, rc reqcontext.RequestContext, eventID, matchID, winnerID string) error {
	if !rc.Role.CanScore() {
		return apperr.Permission("role " + string(rc.Role) + " cannot record match results")
	}
	event, err := s.repos.Event.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Bracket == nil || event.Bracket.Birling == nil {
		return apperr.Validation("NO_BRACKET", "this event has no bracket state")
	}
	state := event.Bracket.Birling

	var match *models.BirlingMatch
	for i := range state.Matches {
		if state.Matches[i].ID == matchID {
			match = &state.Matches[i]
			break
		}
	}
	if match == nil {
		return apperr.NotFound("match", matchID)
	}
	if match.Completed {
		return apperr.Validation("MATCH_ALREADY_RECORDED", "this match already has a result")
	}
	if match.CompetitorAID == nil || match.CompetitorBID == nil {
		return apperr.Validation("MATCH_NOT_READY", "this match does not yet have both competitors")
	}
	if winnerID != *match.CompetitorAID && winnerID != *match.CompetitorBID {
		return apperr.Validation("INVALID_WINNER", "winner must be one of the two competitors in this match")
	}

	loserID := *match.CompetitorAID
	if winnerID == loserID {
		loserID = *match.CompetitorBID
	}

	match.WinnerID = &winnerID
	match.Completed = true

	if match.Bracket == models.BirlingBracketFinal {
		// Slot 0 is always fed by the winners-bracket champion (see
		// linkBirlingBracket); the grand final's loser came up through
		// winners only if they sit in slot 0. A true final (Round 2) is
		// winner-takes-all regardless of which slot lost.
		winnersChampLost := match.Round == 1 && loserID == *match.CompetitorAID

		if winnersChampLost {
			state.TrueFinalsRequired = true
			trueFinal := models.BirlingMatch{
				ID:            uuid.New().String(),
				Bracket:       models.BirlingBracketFinal,
				Round:         match.Round + 1,
				Slot:          0,
				CompetitorAID: &winnerID,
				CompetitorBID: &loserID,
			}
			state.Matches = append(state.Matches, trueFinal)
		} else {
			state.EliminationCount++
			runnerUpPos := state.TotalEntrants - state.EliminationCount + 1
			setFinalPosition(state, loserID, runnerUpPos)
			state.EliminationCount++
			championPos := state.TotalEntrants - state.EliminationCount + 1
			setFinalPosition(state, winnerID, championPos)
			state.Completed = true
		}
	} else if match.Bracket == models.BirlingBracketWinners {
		// A winners-bracket loss is not an elimination: the loser drops
		// into the losers bracket.
		advanceBirlingWinner(state, match)
		dropBirlingLoser(state, match, loserID)
	} else {
		state.EliminationCount++
		position := state.TotalEntrants - state.EliminationCount + 1
		setFinalPosition(state, loserID, position)
		advanceBirlingWinner(state, match)
	}

	event.Bracket.Birling = state
	if state.Completed {
		event.Status = models.EventStatusCompleted
	}

	return s.persist(ctx, rc, event, "birling.record_result", fmt.Sprintf("match %s won by %s", matchID, winnerID))
}

func advanceBirlingWinner(state *models.BirlingState, match *models.BirlingMatch) {
	if match.NextMatchID == nil {
		return
	}
	target := findBirlingMatch(state, *match.NextMatchID)
	if target == nil {
		return
	}
	if match.NextSlot == 0 {
		target.CompetitorAID = match.WinnerID
	} else {
		target.CompetitorBID = match.WinnerID
	}
	resolveBirlingBye(state, target)
}

func dropBirlingLoser(state *models.BirlingState, match *models.BirlingMatch, loserID string) {
	if match.NextLoserMatchID == nil {
		return
	}
	target := findBirlingMatch(state, *match.NextLoserMatchID)
	if target == nil {
		return
	}
	id := loserID
	if match.NextLoserSlot == 0 {
		target.CompetitorAID = &id
	} else {
		target.CompetitorBID = &id
	}
	resolveBirlingBye(state, target)
}

// resolveBirlingBye auto-advances a losers-bracket match that received
// only one competitor and is never going to receive a second (both of
// its feeder matches have resolved without filling the other slot), e.g.
// a losers round with fewer entrants than bracket slots.
func resolveBirlingBye(state *models.BirlingState, match *models.BirlingMatch) {
	if match.Completed || match.Bracket != models.BirlingBracketLosers {
		return
	}
	if match.CompetitorAID == nil || match.CompetitorBID != nil {
		return
	}
	if feederStillPending(state, match) {
		return
	}
	match.WinnerID = match.CompetitorAID
	match.IsBye = true
	match.Completed = true
	advanceBirlingWinner(state, match)
}

// feederStillPending reports whether some other match still points at
// match's empty slot and hasn't been completed yet.
func feederStillPending(state *models.BirlingState, match *models.BirlingMatch) bool {
	for i := range state.Matches {
		feeder := &state.Matches[i]
		if feeder.Completed {
			continue
		}
		if feeder.NextMatchID != nil && *feeder.NextMatchID == match.ID {
			return true
		}
		if feeder.NextLoserMatchID != nil && *feeder.NextLoserMatchID == match.ID {
			return true
		}
	}
	return false
}

func findBirlingMatch(state *models.BirlingState, id string) *models.BirlingMatch {
	for i := range state.Matches {
		if state.Matches[i].ID == id {
			return &state.Matches[i]
		}
	}
	return nil
}

// setFinalPosition records a competitor's placement the moment they drop
// out of the bracket; the first recording wins, so a true final never
// overwrites a position assigned at the first grand final.
func setFinalPosition(state *models.BirlingState, competitorID string, position int) {
	if state.Placements == nil {
		state.Placements = make(map[string]int)
	}
	if _, ok := state.Placements[competitorID]; ok {
		return
	}
	state.Placements[competitorID] = position
}

// FinalizePlacements writes one EventResult per competitor carrying
// their final bracket position, once state.Completed.
func (s *BirlingService) FinalizePlacements(ctx context.Context, rc reqcontext.RequestContext, eventID string) error {
	if !rc.Role.CanScore() {
		return apperr.Permission("role " + string(rc.Role) + " cannot finalize placements")
	}
	event, err := s.repos.Event.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Bracket == nil || event.Bracket.Birling == nil || !event.Bracket.Birling.Completed {
		return apperr.Validation("BRACKET_NOT_COMPLETE", "the bracket must be complete before placements can be finalized")
	}
	state := event.Bracket.Birling
	placements := state.Placements

	tx, err := s.repos.BeginTx(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	defer tx.Rollback()

	competitorType := "pro"
	if event.Division == models.DivisionCollege {
		competitorType = "college"
	}

	ledger := newCompetitorLedger(s.repos)
	touchedTeams := make(map[string]bool)

	now := time.Now()
	for competitorID, position := range placements {
		res, getErr := s.repos.EventResult.GetByEventAndCompetitorTx(ctx, tx, event.ID, competitorID, competitorType)
		if getErr != nil && !apperr.Is(getErr, apperr.KindNotFound) {
			return apperr.Internal(getErr)
		}
		if res == nil {
			id := competitorID
			res = &models.EventResult{ID: uuid.New().String(), TournamentID: event.TournamentID, EventID: event.ID, Status: models.ResultStatusFinalized, CreatedAt: now}
			if competitorType == "college" {
				res.CollegeCompetitorID = &id
			} else {
				res.ProCompetitorID = &id
			}
			if err := s.repos.EventResult.UpsertPendingTx(ctx, tx, res); err != nil {
				return apperr.Internal(err)
			}
			res.Version = 1
		}

		// Undo any previous finalization's award so repeat calls never
		// double-count.
		if err := undoAward(ctx, ledger, event, res); err != nil {
			return err
		}

		p := position
		res.FinalPosition = &p
		res.Status = models.ResultStatusFinalized
		res.UpdatedAt = now
		res.FinalizedAt = &now

		if event.Division == models.DivisionCollege {
			points := s.cfg.PlacementPoints[position]
			res.PointsAwarded = points
			c, err := ledger.getCollege(ctx, competitorID)
			if err != nil {
				return err
			}
			c.IndividualPoints += points
			touchedTeams[c.TeamID] = true
		} else {
			payout := event.GetPayouts(position)
			res.PayoutAmount = payout
			pc, err := ledger.getPro(ctx, competitorID)
			if err != nil {
				return err
			}
			pc.TotalEarnings += payout
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
	if err := s.audit.LogTx(ctx, tx, rc, "birling.finalize_placements", "event", event.ID, fmt.Sprintf("finalized %d placements", len(placements))); err != nil {
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

func (s *BirlingService) persist(ctx context.Context, rc reqcontext.RequestContext, event *models.Event, action, detail string) error {
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
