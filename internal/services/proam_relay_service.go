// internal/services/proam_relay_service.go
// Pro-Am Relay lottery, sub-event time recording, and redraw, persisted
// as a models.ProAmRelayState JSON blob on the relay's Event row.

package services

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"lumberjack-engine/internal/apperr"
	"lumberjack-engine/internal/config"
	"lumberjack-engine/internal/models"
	"lumberjack-engine/internal/reqcontext"
	"lumberjack-engine/internal/repositories"
)

// ProAmRelayService drives the lottery draw and result recording for the
// tournament's single Pro-Am Relay event.
type ProAmRelayService struct {
	repos  *repositories.Container
	audit  *AuditService
	cache  *CacheService
	cfg    config.TournamentConfig
	logger *log.Logger
	rng    *rand.Rand
}

func NewProAmRelayService(repos *repositories.Container, audit *AuditService, cache *CacheService, cfg config.TournamentConfig, logger *log.Logger) *ProAmRelayService {
	return &ProAmRelayService{repos: repos, audit: audit, cache: cache, cfg: cfg, logger: logger, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Capacity computes how many relay teams the eligible pool can support:
// min(|proM|//2, |proF|//2, |collM|//2, |collF|//2).
func (s *ProAmRelayService) Capacity(ctx context.Context, tournamentID string) (int, error) {
	proM, proF, collM, collF, err := s.eligiblePools(ctx, tournamentID)
	if err != nil {
		return 0, err
	}
	return capacityOf(proM, proF, collM, collF), nil
}

func capacityOf(proM, proF, collM, collF []string) int {
	c := len(proM) / 2
	if v := len(proF) / 2; v < c {
		c = v
	}
	if v := len(collM) / 2; v < c {
		c = v
	}
	if v := len(collF) / 2; v < c {
		c = v
	}
	return c
}

func (s *ProAmRelayService) eligiblePools(ctx context.Context, tournamentID string) (proM, proF, collM, collF []string, err error) {
	pros, err := s.repos.ProCompetitor.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, nil, nil, nil, apperr.Internal(err)
	}
	for _, p := range pros {
		if !p.LotteryOptIn || p.Status != models.CompetitorStatusActive {
			continue
		}
		if p.Gender == models.GenderMale {
			proM = append(proM, p.ID)
		} else {
			proF = append(proF, p.ID)
		}
	}

	colls, err := s.repos.CollegeCompetitor.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, nil, nil, nil, apperr.Internal(err)
	}
	for _, c := range colls {
		if !c.LotteryOptIn || c.Status != models.CompetitorStatusActive {
			continue
		}
		if c.Gender == models.GenderMale {
			collM = append(collM, c.ID)
		} else {
			collF = append(collF, c.ID)
		}
	}
	return proM, proF, collM, collF, nil
}

// Draw shuffles each eligible bucket, deals two of each bucket to each of
// numTeams in turn, then shuffles each team's internal running order, and
// moves the relay event's status from not_drawn to drawn.
func (s *ProAmRelayService) Draw(ctx context.Context, rc reqcontext.RequestContext, eventID string, numTeams int) error {
	if !rc.Role.CanScore() {
		return apperr.Permission("role " + string(rc.Role) + " cannot draw the relay lottery")
	}
	if numTeams < 1 {
		return apperr.Validation("INVALID_TEAM_COUNT", "at least one team must be drawn")
	}
	event, err := s.repos.Event.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	state := event.Relay
	if state != nil && state.Status != models.ProAmRelayNotDrawn {
		return apperr.Validation("ALREADY_DRAWN", "the relay has already been drawn; redraw first")
	}

	proM, proF, collM, collF, err := s.eligiblePools(ctx, event.TournamentID)
	if err != nil {
		return err
	}
	if numTeams > capacityOf(proM, proF, collM, collF) {
		return apperr.Validation("INSUFFICIENT_POOL", "the eligible pool cannot support this many teams")
	}

	s.rng.Shuffle(len(proM), func(i, j int) { proM[i], proM[j] = proM[j], proM[i] })
	s.rng.Shuffle(len(proF), func(i, j int) { proF[i], proF[j] = proF[j], proF[i] })
	s.rng.Shuffle(len(collM), func(i, j int) { collM[i], collM[j] = collM[j], collM[i] })
	s.rng.Shuffle(len(collF), func(i, j int) { collF[i], collF[j] = collF[j], collF[i] })

	teams := make([]models.ProAmRelayTeam, numTeams)
	for i := 0; i < numTeams; i++ {
		pro := []models.ProAmRelayMember{
			{CompetitorID: proM[2*i], Gender: models.GenderMale},
			{CompetitorID: proM[2*i+1], Gender: models.GenderMale},
			{CompetitorID: proF[2*i], Gender: models.GenderFemale},
			{CompetitorID: proF[2*i+1], Gender: models.GenderFemale},
		}
		college := []models.ProAmRelayMember{
			{CompetitorID: collM[2*i], Gender: models.GenderMale},
			{CompetitorID: collM[2*i+1], Gender: models.GenderMale},
			{CompetitorID: collF[2*i], Gender: models.GenderFemale},
			{CompetitorID: collF[2*i+1], Gender: models.GenderFemale},
		}
		s.rng.Shuffle(len(pro), func(a, b int) { pro[a], pro[b] = pro[b], pro[a] })
		s.rng.Shuffle(len(college), func(a, b int) { college[a], college[b] = college[b], college[a] })
		teams[i] = models.ProAmRelayTeam{
			ID:             uuid.New().String(),
			TeamNumber:     i + 1,
			ProMembers:     pro,
			CollegeMembers: college,
		}
	}
	now := time.Now()
	event.Relay = &models.ProAmRelayState{Status: models.ProAmRelayDrawn, Teams: teams, DrawnAt: &now}

	return s.persist(ctx, rc, event, "proam_relay.draw", fmt.Sprintf("drew %d teams of 8", numTeams))
}

// Redraw resets the relay to not_drawn and re-runs the draw.
func (s *ProAmRelayService) Redraw(ctx context.Context, rc reqcontext.RequestContext, eventID string, numTeams int) error {
	if !rc.Role.CanScore() {
		return apperr.Permission("role " + string(rc.Role) + " cannot redraw the relay lottery")
	}
	event, err := s.repos.Event.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	event.Relay = &models.ProAmRelayState{Status: models.ProAmRelayNotDrawn}
	if err := s.persist(ctx, rc, event, "proam_relay.redraw_reset", "reset relay to not_drawn"); err != nil {
		return err
	}
	return s.Draw(ctx, rc, eventID, numTeams)
}

// RecordSubEventTime sets a team's time for one of the four relay
// sub-events. Once all four are filled, total_time is the sum; once
// every team has a total_time, the relay is marked completed.
func (s *ProAmRelayService) RecordSubEventTime(ctx context.Context, rc reqcontext.RequestContext, eventID, teamID, subEvent string, seconds float64) error {
	if !rc.Role.CanScore() {
		return apperr.Permission("role " + string(rc.Role) + " cannot record relay times")
	}
	if !containsString(models.RelayEvents, subEvent) {
		return apperr.Validation("UNKNOWN_SUB_EVENT", "unrecognized relay sub-event")
	}

	event, err := s.repos.Event.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Relay == nil {
		return apperr.Validation("NOT_DRAWN", "the relay has not been drawn yet")
	}
	state := event.Relay

	found := false
	for i := range state.Teams {
		if state.Teams[i].ID != teamID {
			continue
		}
		found = true
		if state.Teams[i].SubEventTimes == nil {
			state.Teams[i].SubEventTimes = make(map[string]float64)
		}
		state.Teams[i].SubEventTimes[subEvent] = seconds
		if state.Teams[i].AllSubEventsRecorded() {
			total := 0.0
			for _, name := range models.RelayEvents {
				total += state.Teams[i].SubEventTimes[name]
			}
			state.Teams[i].TotalTime = &total
		}
		break
	}
	if !found {
		return apperr.NotFound("relay team", teamID)
	}

	if state.Status == models.ProAmRelayDrawn {
		state.Status = models.ProAmRelayInProgress
	}

	allComplete := true
	for _, t := range state.Teams {
		if t.TotalTime == nil {
			allComplete = false
			break
		}
	}
	if allComplete {
		assignRelayPlacements(state)
		state.Status = models.ProAmRelayCompleted
	}

	return s.persist(ctx, rc, event, "proam_relay.record_time", fmt.Sprintf("team %s recorded %s = %.2f", teamID, subEvent, seconds))
}

// assignRelayPlacements ranks teams by ascending total_time (lowest time
// wins, per the relay's timed-race scoring).
func assignRelayPlacements(state *models.ProAmRelayState) {
	ranked := make([]*models.ProAmRelayTeam, len(state.Teams))
	for i := range state.Teams {
		ranked[i] = &state.Teams[i]
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].TotalTime < *ranked[j].TotalTime
	})
	for i, t := range ranked {
		p := i + 1
		t.Placement = &p
	}
}

// ReplaceCompetitor swaps a team member for a new competitor of the same
// division, gender, and opt-in flag as the one they replace.
func (s *ProAmRelayService) ReplaceCompetitor(ctx context.Context, rc reqcontext.RequestContext, eventID, teamID, oldCompetitorID, newCompetitorID string) error {
	if !rc.Role.CanScore() {
		return apperr.Permission("role " + string(rc.Role) + " cannot edit relay teams")
	}
	event, err := s.repos.Event.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Relay == nil {
		return apperr.Validation("NOT_DRAWN", "the relay has not been drawn yet")
	}
	state := event.Relay

	var team *models.ProAmRelayTeam
	for i := range state.Teams {
		if state.Teams[i].ID == teamID {
			team = &state.Teams[i]
			break
		}
	}
	if team == nil {
		return apperr.NotFound("relay team", teamID)
	}

	member, isPro := findRelayMember(team, oldCompetitorID)
	if member == nil {
		return apperr.Validation("NOT_ON_TEAM", "competitor is not a member of this relay team")
	}

	newGender, newOptIn, err := s.lookupCompetitor(ctx, isPro, newCompetitorID)
	if err != nil {
		return err
	}
	if newGender != member.Gender {
		return apperr.Validation("GENDER_MISMATCH", "replacement competitor must be the same gender as the one they replace")
	}
	if !newOptIn {
		return apperr.Validation("OPT_IN_MISMATCH", "replacement competitor must have opted into the lottery")
	}

	member.CompetitorID = newCompetitorID

	return s.persist(ctx, rc, event, "proam_relay.replace_competitor", fmt.Sprintf("team %s replaced %s with %s", teamID, oldCompetitorID, newCompetitorID))
}

// findRelayMember locates a competitor on a team's pro or college member
// list, reporting which division list they sit on.
func findRelayMember(team *models.ProAmRelayTeam, competitorID string) (member *models.ProAmRelayMember, isPro bool) {
	for i := range team.ProMembers {
		if team.ProMembers[i].CompetitorID == competitorID {
			return &team.ProMembers[i], true
		}
	}
	for i := range team.CollegeMembers {
		if team.CollegeMembers[i].CompetitorID == competitorID {
			return &team.CollegeMembers[i], false
		}
	}
	return nil, false
}

func (s *ProAmRelayService) lookupCompetitor(ctx context.Context, isPro bool, competitorID string) (models.Gender, bool, error) {
	if isPro {
		p, err := s.repos.ProCompetitor.GetByID(ctx, competitorID)
		if err != nil {
			return "", false, err
		}
		return p.Gender, p.LotteryOptIn, nil
	}
	c, err := s.repos.CollegeCompetitor.GetByID(ctx, competitorID)
	if err != nil {
		return "", false, err
	}
	return c.Gender, c.LotteryOptIn, nil
}

func (s *ProAmRelayService) persist(ctx context.Context, rc reqcontext.RequestContext, event *models.Event, action, detail string) error {
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
