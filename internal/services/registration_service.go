// internal/services/registration_service.go
// Team/competitor CRUD plus the college-roster and pro-entry import
// contracts, including the operator review-flag pass over parsed entry
// rows.

package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"lumberjack-engine/internal/apperr"
	"lumberjack-engine/internal/config"
	"lumberjack-engine/internal/models"
	"lumberjack-engine/internal/reqcontext"
	"lumberjack-engine/internal/repositories"
)

// RegistrationService owns team and competitor registration, including
// bulk import from parsed roster and entry-form rows.
type RegistrationService struct {
	repos  *repositories.Container
	audit  *AuditService
	cache  *CacheService
	cfg    config.TournamentConfig
	logger *log.Logger
}

func NewRegistrationService(repos *repositories.Container, audit *AuditService, cache *CacheService, cfg config.TournamentConfig, logger *log.Logger) *RegistrationService {
	return &RegistrationService{repos: repos, audit: audit, cache: cache, cfg: cfg, logger: logger}
}

// RegisterTeam creates a team after validating its roster.
func (s *RegistrationService) RegisterTeam(ctx context.Context, rc reqcontext.RequestContext, team *models.Team, members []*models.CollegeCompetitor) error {
	if !rc.Role.CanRegister() {
		return apperr.Permission("role " + string(rc.Role) + " cannot register teams")
	}
	result := ValidateTeam(team, members)
	if !result.Valid() {
		return validationError(result)
	}
	now := time.Now()
	team.ID = uuid.New().String()
	team.CreatedAt = now
	team.UpdatedAt = now
	if team.Status == "" {
		team.Status = models.TeamStatusActive
	}
	if err := s.repos.Team.Create(ctx, team); err != nil {
		return apperr.Internal(err)
	}
	if s.cache != nil {
		_ = s.cache.InvalidateTournament(ctx, team.TournamentID)
	}
	return nil
}

// RegisterCollegeCompetitor creates one college competitor against an
// existing team's cap rules.
func (s *RegistrationService) RegisterCollegeCompetitor(ctx context.Context, rc reqcontext.RequestContext, c *models.CollegeCompetitor) error {
	if !rc.Role.CanRegister() {
		return apperr.Permission("role " + string(rc.Role) + " cannot register competitors")
	}
	result := ValidateCollegeCompetitor(c, s.cfg)
	if !result.Valid() {
		return validationError(result)
	}
	now := time.Now()
	c.ID = uuid.New().String()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = models.CompetitorStatusActive
	}
	if err := s.repos.CollegeCompetitor.Create(ctx, c); err != nil {
		return apperr.Internal(err)
	}
	if s.cache != nil {
		_ = s.cache.InvalidateTournament(ctx, c.TournamentID)
	}
	return nil
}

// RegisterProCompetitor creates one pro competitor; warnings from
// validation are non-blocking and simply not surfaced here, the way
// they are when an operator confirms a pro entry row individually.
func (s *RegistrationService) RegisterProCompetitor(ctx context.Context, rc reqcontext.RequestContext, p *models.ProCompetitor) error {
	if !rc.Role.CanRegister() {
		return apperr.Permission("role " + string(rc.Role) + " cannot register competitors")
	}
	result := ValidateProCompetitor(p)
	if !result.Valid() {
		return validationError(result)
	}
	now := time.Now()
	p.ID = uuid.New().String()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = models.CompetitorStatusActive
	}
	if err := s.repos.ProCompetitor.Create(ctx, p); err != nil {
		return apperr.Internal(err)
	}
	if s.cache != nil {
		_ = s.cache.InvalidateTournament(ctx, p.TournamentID)
	}
	return nil
}

func validationError(result ValidationResult) error {
	first := result.Errors[0]
	return apperr.ValidationField(first.Code, first.Message, first.Field, first.EntityID)
}

// CollegeRosterRow is one already-parsed row of a college roster import;
// header-tolerant matching happens upstream of the engine.
type CollegeRosterRow struct {
	School        string
	TeamCode      string
	Name          string
	Gender        string
	Events        []string
	Partners      map[string]string
	LotteryOptIn  bool
}

// RosterImportResult reports how many new rows an import created.
type RosterImportResult struct {
	TeamsCreated       int
	CompetitorsCreated int
}

// ImportCollegeRoster groups rows by team code, creates any team that
// doesn't already exist (validating its final roster against the
// 4-8-member / gender-balance invariants), and creates one competitor
// per row.
func (s *RegistrationService) ImportCollegeRoster(ctx context.Context, rc reqcontext.RequestContext, tournamentID string, rows []CollegeRosterRow) (*RosterImportResult, error) {
	if !rc.Role.CanRegister() {
		return nil, apperr.Permission("role " + string(rc.Role) + " cannot import rosters")
	}
	byTeam := make(map[string][]CollegeRosterRow)
	var order []string
	for _, row := range rows {
		code := strings.TrimSpace(row.TeamCode)
		if _, seen := byTeam[code]; !seen {
			order = append(order, code)
		}
		byTeam[code] = append(byTeam[code], row)
	}

	result := &RosterImportResult{}
	for _, code := range order {
		teamRows := byTeam[code]
		team, err := s.repos.Team.GetByCode(ctx, tournamentID, code)
		if err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Internal(err)
		}
		if team == nil {
			team = &models.Team{TournamentID: tournamentID, TeamCode: code, SchoolName: teamRows[0].School, SchoolAbbrev: code}
			members := make([]*models.CollegeCompetitor, 0, len(teamRows))
			for _, row := range teamRows {
				members = append(members, &models.CollegeCompetitor{Gender: models.Gender(row.Gender), Status: models.CompetitorStatusActive})
			}
			if err := s.RegisterTeam(ctx, rc, team, members); err != nil {
				return nil, err
			}
			result.TeamsCreated++
		}

		for _, row := range teamRows {
			competitor := &models.CollegeCompetitor{
				TournamentID: tournamentID,
				TeamID:       team.ID,
				Gender:       models.Gender(row.Gender),
				EventsEntered: row.Events,
				Partners:      row.Partners,
				LotteryOptIn:  row.LotteryOptIn,
			}
			competitor.FirstName, competitor.LastName = splitName(row.Name)
			if err := s.RegisterCollegeCompetitor(ctx, rc, competitor); err != nil {
				return nil, err
			}
			result.CompetitorsCreated++
		}
	}
	return result, nil
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// ProEntryRow is one already-parsed pro entry form submission.
type ProEntryRow struct {
	Name                string
	Gender              string
	Email               string
	Phone               string
	MailingAddress      string
	ALAMember           bool
	Events              []string
	RelayLottery        bool
	Partners            map[string]string
	GearSharing         map[string]string
	GearSharingDetails  string
	WaiverAccepted      bool
	WaiverSignature     string
	Notes               string
	TotalFees           float64
}

// ReviewFlag is a non-blocking condition an operator must acknowledge
// before confirming a pro entry.
type ReviewFlag struct {
	Severity string // red or yellow
	Code     string
	Message  string
}

// reviewFlags computes the red/yellow flags an operator sees before
// confirming one pro entry row: missing waiver is blocking-severity
// red, an unresolved partner or gear-sharing without details is
// advisory yellow.
func reviewFlags(row ProEntryRow) []ReviewFlag {
	var flags []ReviewFlag
	if !row.WaiverAccepted {
		flags = append(flags, ReviewFlag{Severity: "red", Code: "MISSING_WAIVER", Message: "waiver not accepted"})
	}
	for event, partner := range row.Partners {
		if strings.TrimSpace(partner) == "" {
			flags = append(flags, ReviewFlag{Severity: "yellow", Code: "UNRESOLVED_PARTNER", Message: "partner not named for " + event})
		}
	}
	if len(row.GearSharing) > 0 && strings.TrimSpace(row.GearSharingDetails) == "" {
		flags = append(flags, ReviewFlag{Severity: "yellow", Code: "GEAR_SHARING_NO_DETAILS", Message: "gear sharing indicated without details"})
	}
	return flags
}

// ProEntryReview pairs one submitted row with the flags an operator
// must see before confirming it.
type ProEntryReview struct {
	Row   ProEntryRow
	Flags []ReviewFlag
}

// ReviewProEntries computes review flags for a batch of parsed pro
// entry rows without writing anything; it is the read-only step before
// ConfirmProEntry.
func ReviewProEntries(rows []ProEntryRow) []ProEntryReview {
	reviews := make([]ProEntryReview, len(rows))
	for i, row := range rows {
		reviews[i] = ProEntryReview{Row: row, Flags: reviewFlags(row)}
	}
	return reviews
}

// ConfirmProEntry inserts or updates (by email, not duplicated on
// re-import) a pro competitor from one reviewed row, then creates
// pending EventResult rows for each entered event that exists in the
// tournament.
func (s *RegistrationService) ConfirmProEntry(ctx context.Context, rc reqcontext.RequestContext, tournamentID string, row ProEntryRow) error {
	if !rc.Role.CanRegister() {
		return apperr.Permission("role " + string(rc.Role) + " cannot confirm pro entries")
	}
	existing, err := s.repos.ProCompetitor.GetByContact(ctx, tournamentID, row.Email)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return apperr.Internal(err)
	}

	now := time.Now()
	var competitor *models.ProCompetitor
	isNew := existing == nil
	if isNew {
		competitor = &models.ProCompetitor{TournamentID: tournamentID, Status: models.CompetitorStatusActive}
	} else {
		competitor = existing
	}
	competitor.FirstName, competitor.LastName = splitName(row.Name)
	competitor.Gender = models.Gender(row.Gender)
	competitor.Contact = row.Email
	competitor.EventsEntered = row.Events
	competitor.Partners = row.Partners
	competitor.GearSharing = row.GearSharing
	competitor.IsALAMember = row.ALAMember
	competitor.LotteryOptIn = row.RelayLottery
	competitor.UpdatedAt = now
	if competitor.FeesPaid == nil {
		competitor.FeesPaid = make(map[string]bool)
	}
	for _, ev := range row.Events {
		if _, ok := competitor.FeesPaid[ev]; !ok {
			competitor.FeesPaid[ev] = row.TotalFees <= 0
		}
	}

	if isNew {
		if err := s.RegisterProCompetitor(ctx, rc, competitor); err != nil {
			return err
		}
	} else {
		if err := s.repos.ProCompetitor.UpdateWithVersion(ctx, competitor); err != nil {
			return apperr.Internal(err)
		}
	}

	tx, err := s.repos.BeginTx(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	defer tx.Rollback()

	for _, eventName := range row.Events {
		event, err := s.repos.Event.GetByName(ctx, tournamentID, eventName)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				continue
			}
			return apperr.Internal(err)
		}
		existingResult, err := s.repos.EventResult.GetByEventAndCompetitorTx(ctx, tx, event.ID, competitor.ID, "pro")
		if err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return apperr.Internal(err)
		}
		if existingResult != nil {
			continue
		}
		competitorID := competitor.ID
		pending := &models.EventResult{
			ID:              uuid.New().String(),
			TournamentID:    tournamentID,
			EventID:         event.ID,
			ProCompetitorID: &competitorID,
			CompetitorName:  competitor.FullName(),
			Status:          models.ResultStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.repos.EventResult.UpsertPendingTx(ctx, tx, pending); err != nil {
			return apperr.Internal(err)
		}
	}

	if err := s.audit.LogTx(ctx, tx, rc, "registration.confirm_pro_entry", "pro_competitor", competitor.ID, "confirmed pro entry for "+competitor.FullName()); err != nil {
		return apperr.Internal(err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Internal(err)
	}
	if s.cache != nil {
		_ = s.cache.InvalidateTournament(ctx, tournamentID)
	}
	return nil
}
