// internal/services/readview_service.go
// Derived standings/spectator/payout payloads, built by pure functions
// over the repository Store and cached under deterministic keys with a
// TTL drawn from configuration; independent Store reads for one payload
// are hydrated concurrently with golang.org/x/sync/errgroup.

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"lumberjack-engine/internal/apperr"
	"lumberjack-engine/internal/config"
	"lumberjack-engine/internal/models"
	"lumberjack-engine/internal/repositories"
)

// ReadViewService builds and caches the report/portal/poll payloads
// spectators and operators read.
type ReadViewService struct {
	repos  *repositories.Container
	cache  *CacheService
	cfg    config.TournamentConfig
	logger *log.Logger
}

func NewReadViewService(repos *repositories.Container, cache *CacheService, cfg config.TournamentConfig, logger *log.Logger) *ReadViewService {
	return &ReadViewService{repos: repos, cache: cache, cfg: cfg, logger: logger}
}

// StandingEntry is one ranked row in an individual or team standings
// list; dense ranking keeps tied scores on the same rank.
type StandingEntry struct {
	Rank   int     `json:"rank"`
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Points float64 `json:"points"`
}

// CollegeStandings pairs individual and team standings for the report
// view, plus the Bull and Belle of the Woods races (top male and female
// competitors by individual points).
type CollegeStandings struct {
	Individuals []StandingEntry `json:"individuals"`
	Teams       []StandingEntry `json:"teams"`
	Bull        []StandingEntry `json:"bull"`
	Belle       []StandingEntry `json:"belle"`
}

// CollegeStandings returns individual and team standings, cached for
// ReportCacheTTL and hydrated concurrently on a miss.
func (s *ReadViewService) CollegeStandings(ctx context.Context, tournamentID string) (*CollegeStandings, error) {
	var out CollegeStandings
	err := s.cached(ctx, fmt.Sprintf("reports:%s:college_standings", tournamentID), s.cfg.ReportCacheTTL, &out, func() (interface{}, error) {
		g, gctx := errgroup.WithContext(ctx)
		var individuals []*models.CollegeCompetitor
		var teams []*models.Team

		g.Go(func() error {
			var err error
			individuals, err = s.repos.CollegeCompetitor.ListByTournament(gctx, tournamentID)
			return err
		})
		g.Go(func() error {
			var err error
			teams, err = s.repos.Team.ListByTournament(gctx, tournamentID)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		return CollegeStandings{
			Individuals: rankCompetitors(individuals),
			Teams:       rankTeams(teams),
			Bull:        topN(rankCompetitors(filterByGender(individuals, models.GenderMale)), 5),
			Belle:       topN(rankCompetitors(filterByGender(individuals, models.GenderFemale)), 5),
		}, nil
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &out, nil
}

func filterByGender(competitors []*models.CollegeCompetitor, g models.Gender) []*models.CollegeCompetitor {
	out := make([]*models.CollegeCompetitor, 0, len(competitors))
	for _, c := range competitors {
		if c.Gender == g {
			out = append(out, c)
		}
	}
	return out
}

func rankCompetitors(competitors []*models.CollegeCompetitor) []StandingEntry {
	active := make([]*models.CollegeCompetitor, 0, len(competitors))
	for _, c := range competitors {
		if c.Status == models.CompetitorStatusActive {
			active = append(active, c)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].IndividualPoints > active[j].IndividualPoints })

	out := make([]StandingEntry, len(active))
	rank := 0
	previous := -1
	for i, c := range active {
		if c.IndividualPoints != previous {
			rank = i + 1
			previous = c.IndividualPoints
		}
		out[i] = StandingEntry{Rank: rank, ID: c.ID, Name: c.FullName(), Points: float64(c.IndividualPoints)}
	}
	return out
}

func rankTeams(teams []*models.Team) []StandingEntry {
	active := make([]*models.Team, 0, len(teams))
	for _, t := range teams {
		if t.Status == models.TeamStatusActive {
			active = append(active, t)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].TotalPoints > active[j].TotalPoints })

	out := make([]StandingEntry, len(active))
	rank := 0
	previous := -1
	for i, t := range active {
		if t.TotalPoints != previous {
			rank = i + 1
			previous = t.TotalPoints
		}
		out[i] = StandingEntry{Rank: rank, ID: t.ID, Name: t.SchoolName, Points: float64(t.TotalPoints)}
	}
	return out
}

// PayoutSummaryEntry is one pro competitor's running earnings.
type PayoutSummaryEntry struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Earnings float64 `json:"earnings"`
	Settled  bool    `json:"settled"`
}

// PayoutSummary lists every pro competitor's current earnings, highest
// first.
func (s *ReadViewService) PayoutSummary(ctx context.Context, tournamentID string) ([]PayoutSummaryEntry, error) {
	var out []PayoutSummaryEntry
	err := s.cached(ctx, fmt.Sprintf("reports:%s:payout_summary", tournamentID), s.cfg.ReportCacheTTL, &out, func() (interface{}, error) {
		pros, err := s.repos.ProCompetitor.ListByTournament(ctx, tournamentID)
		if err != nil {
			return nil, err
		}
		entries := make([]PayoutSummaryEntry, len(pros))
		for i, p := range pros {
			entries[i] = PayoutSummaryEntry{ID: p.ID, Name: p.FullName(), Earnings: p.TotalEarnings, Settled: p.PayoutSettled}
		}
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Earnings > entries[j].Earnings })
		return entries, nil
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// SpectatorSummary is the portal-facing snapshot for one division: live
// standings plus the events still in progress.
type SpectatorSummary struct {
	Standings     []StandingEntry `json:"standings"`
	ActiveEvents  []string        `json:"active_events"`
	UpcomingCount int             `json:"upcoming_count"`
}

// CollegeSpectatorSummary builds the portal:college:<tid> payload.
func (s *ReadViewService) CollegeSpectatorSummary(ctx context.Context, tournamentID string) (*SpectatorSummary, error) {
	var out SpectatorSummary
	err := s.cached(ctx, fmt.Sprintf("portal:college:%s", tournamentID), s.cfg.PollCacheTTL, &out, func() (interface{}, error) {
		g, gctx := errgroup.WithContext(ctx)
		var competitors []*models.CollegeCompetitor
		var events []*models.Event

		g.Go(func() error {
			var err error
			competitors, err = s.repos.CollegeCompetitor.ListByTournament(gctx, tournamentID)
			return err
		})
		g.Go(func() error {
			var err error
			events, err = s.repos.Event.ListByTournament(gctx, tournamentID, models.DivisionCollege)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		summary := SpectatorSummary{Standings: rankCompetitors(competitors)}
		fillEventCounts(&summary, events)
		return summary, nil
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &out, nil
}

// ProSpectatorSummary builds the portal:pro:<tid> payload.
func (s *ReadViewService) ProSpectatorSummary(ctx context.Context, tournamentID string) (*SpectatorSummary, error) {
	var out SpectatorSummary
	err := s.cached(ctx, fmt.Sprintf("portal:pro:%s", tournamentID), s.cfg.PollCacheTTL, &out, func() (interface{}, error) {
		g, gctx := errgroup.WithContext(ctx)
		var pros []*models.ProCompetitor
		var events []*models.Event

		g.Go(func() error {
			var err error
			pros, err = s.repos.ProCompetitor.ListByTournament(gctx, tournamentID)
			return err
		})
		g.Go(func() error {
			var err error
			events, err = s.repos.Event.ListByTournament(gctx, tournamentID, models.DivisionPro)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		standings := make([]StandingEntry, len(pros))
		for i, p := range pros {
			standings[i] = StandingEntry{ID: p.ID, Name: p.FullName(), Points: p.TotalEarnings}
		}
		sort.SliceStable(standings, func(i, j int) bool { return standings[i].Points > standings[j].Points })
		for i := range standings {
			standings[i].Rank = i + 1
		}

		summary := SpectatorSummary{Standings: standings}
		fillEventCounts(&summary, events)
		return summary, nil
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &out, nil
}

func fillEventCounts(summary *SpectatorSummary, events []*models.Event) {
	for _, e := range events {
		switch e.Status {
		case models.EventStatusInProgress:
			summary.ActiveEvents = append(summary.ActiveEvents, e.DisplayName)
		case models.EventStatusScheduled:
			summary.UpcomingCount++
		}
	}
}

// StandingsPoll is the lightweight payload polled every few seconds by
// the live ticker; it carries only the leaders, not the full standings
// payload.
type StandingsPoll struct {
	CollegeTop5 []StandingEntry `json:"college_top5"`
	ProTop5     []StandingEntry `json:"pro_top5"`
}

// StandingsPollView builds the api:standings-poll:<tid> payload with the
// short PollCacheTTL.
func (s *ReadViewService) StandingsPollView(ctx context.Context, tournamentID string) (*StandingsPoll, error) {
	var out StandingsPoll
	err := s.cached(ctx, fmt.Sprintf("api:standings-poll:%s", tournamentID), s.cfg.PollCacheTTL, &out, func() (interface{}, error) {
		college, err := s.CollegeStandings(ctx, tournamentID)
		if err != nil {
			return nil, err
		}
		pro, err := s.PayoutSummary(ctx, tournamentID)
		if err != nil {
			return nil, err
		}
		return StandingsPoll{CollegeTop5: topN(college.Individuals, 5), ProTop5: payoutsToEntries(topNPayouts(pro, 5))}, nil
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &out, nil
}

func topN(entries []StandingEntry, n int) []StandingEntry {
	if len(entries) < n {
		return entries
	}
	return entries[:n]
}

func topNPayouts(entries []PayoutSummaryEntry, n int) []PayoutSummaryEntry {
	if len(entries) < n {
		return entries
	}
	return entries[:n]
}

func payoutsToEntries(entries []PayoutSummaryEntry) []StandingEntry {
	out := make([]StandingEntry, len(entries))
	for i, e := range entries {
		out[i] = StandingEntry{Rank: i + 1, ID: e.ID, Name: e.Name, Points: e.Earnings}
	}
	return out
}

// CompletedResultRow is one placed finish in a completed event.
type CompletedResultRow struct {
	Position    int     `json:"position"`
	Name        string  `json:"name"`
	PartnerName string  `json:"partner_name,omitempty"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit,omitempty"`
	Points      int     `json:"points,omitempty"`
	Payout      float64 `json:"payout,omitempty"`
}

// CompletedEventResults groups one completed event's placed finishes.
type CompletedEventResults struct {
	EventID   string               `json:"event_id"`
	EventName string               `json:"event_name"`
	EventType models.Division      `json:"event_type"`
	Results   []CompletedResultRow `json:"results"`
}

// CompletedResults builds the reports:<tid>:completed_results payload:
// every completed event's placed finishes, both divisions, in position
// order.
func (s *ReadViewService) CompletedResults(ctx context.Context, tournamentID string) ([]CompletedEventResults, error) {
	var out []CompletedEventResults
	err := s.cached(ctx, fmt.Sprintf("reports:%s:completed_results", tournamentID), s.cfg.ReportCacheTTL, &out, func() (interface{}, error) {
		college, err := s.repos.Event.ListByTournament(ctx, tournamentID, models.DivisionCollege)
		if err != nil {
			return nil, err
		}
		pro, err := s.repos.Event.ListByTournament(ctx, tournamentID, models.DivisionPro)
		if err != nil {
			return nil, err
		}

		var views []CompletedEventResults
		for _, e := range append(college, pro...) {
			if e.Status != models.EventStatusCompleted {
				continue
			}
			results, err := s.repos.EventResult.ListByEvent(ctx, e.ID)
			if err != nil {
				return nil, err
			}
			view := CompletedEventResults{EventID: e.ID, EventName: e.DisplayName, EventType: e.Division}
			for _, r := range results {
				if r.FinalPosition == nil || r.ResultValue == nil {
					continue
				}
				row := CompletedResultRow{
					Position: *r.FinalPosition,
					Name:     r.CompetitorName,
					Value:    *r.ResultValue,
					Unit:     r.ResultUnit,
					Points:   r.PointsAwarded,
					Payout:   r.PayoutAmount,
				}
				if r.PartnerName != nil {
					row.PartnerName = *r.PartnerName
				}
				view.Results = append(view.Results, row)
			}
			sort.SliceStable(view.Results, func(i, j int) bool { return view.Results[i].Position < view.Results[j].Position })
			views = append(views, view)
		}
		return views, nil
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// ScheduleHeatView is one heat hydrated for display: its competitors,
// stand assignments, and owning flight if one has been built.
type ScheduleHeatView struct {
	HeatID           string         `json:"heat_id"`
	HeatNumber       int            `json:"heat_number"`
	RunNumber        int            `json:"run_number"`
	Competitors      []string       `json:"competitors"`
	StandAssignments map[string]int `json:"stand_assignments"`
	FlightNumber     *int           `json:"flight_number,omitempty"`
}

// ScheduleEventView is one event's slot in the published schedule with
// its heats attached.
type ScheduleEventView struct {
	EventID   string             `json:"event_id"`
	Label     string             `json:"label"`
	EventType models.Division    `json:"event_type"`
	StandType models.StandType   `json:"stand_type"`
	Heats     []ScheduleHeatView `json:"heats"`
}

// ScheduleView builds the reports:<tid>:schedule payload: every event in
// both divisions with its heats, stand assignments, and flight numbers.
func (s *ReadViewService) ScheduleView(ctx context.Context, tournamentID string) ([]ScheduleEventView, error) {
	var out []ScheduleEventView
	err := s.cached(ctx, fmt.Sprintf("reports:%s:schedule", tournamentID), s.cfg.ReportCacheTTL, &out, func() (interface{}, error) {
		college, err := s.repos.Event.ListByTournament(ctx, tournamentID, models.DivisionCollege)
		if err != nil {
			return nil, err
		}
		pro, err := s.repos.Event.ListByTournament(ctx, tournamentID, models.DivisionPro)
		if err != nil {
			return nil, err
		}

		flights, err := s.repos.Flight.ListByTournament(ctx, tournamentID)
		if err != nil {
			return nil, err
		}
		flightByHeat := make(map[string]int)
		for _, f := range flights {
			for _, heatID := range f.HeatIDs {
				flightByHeat[heatID] = f.FlightNumber
			}
		}

		var views []ScheduleEventView
		for _, e := range append(college, pro...) {
			heats, err := s.repos.Heat.ListByEvent(ctx, e.ID)
			if err != nil {
				return nil, err
			}
			view := ScheduleEventView{EventID: e.ID, Label: e.DisplayName, EventType: e.Division, StandType: e.StandType}
			for _, h := range heats {
				hv := ScheduleHeatView{
					HeatID:           h.ID,
					HeatNumber:       h.HeatNumber,
					RunNumber:        h.RunNumber,
					Competitors:      h.Competitors,
					StandAssignments: h.StandAssignments,
				}
				if n, ok := flightByHeat[h.ID]; ok {
					fn := n
					hv.FlightNumber = &fn
				}
				view.Heats = append(view.Heats, hv)
			}
			views = append(views, view)
		}
		return views, nil
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// cached routes every read view through CacheService.GetOrSet: a cache
// hit decodes straight into dest, a miss calls build, caches the
// result, and round-trips it into dest through JSON so dest ends up
// with the same concrete value build returned. Falls back to calling
// build directly when no cache is configured (e.g. in tests). Every
// miss also durably persists the freshly computed payload to
// ReadViewStore. A miss always recomputes from the Store; the durable
// copy is returned only when that recomputation fails.
func (s *ReadViewService) cached(ctx context.Context, key string, ttl time.Duration, dest interface{}, build func() (interface{}, error)) error {
	tournamentID, viewName := splitCacheKey(key)

	wrappedBuild := func() (interface{}, error) {
		value, err := build()
		if err != nil {
			return nil, err
		}
		if s.repos.ReadView != nil && tournamentID != "" {
			if putErr := s.repos.ReadView.Put(ctx, tournamentID, viewName, value); putErr != nil {
				s.logger.Printf("read view durable persist failed for %s: %v", key, putErr)
			}
		}
		return value, nil
	}

	if s.cache == nil {
		value, err := wrappedBuild()
		if err != nil {
			if s.repos.ReadView != nil && tournamentID != "" {
				if found, fallbackErr := s.repos.ReadView.Get(ctx, tournamentID, viewName, dest); fallbackErr == nil && found {
					return nil
				}
			}
			return err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return json.Unmarshal(encoded, dest)
	}

	if err := s.cache.GetOrSet(ctx, key, dest, wrappedBuild, ttl); err != nil {
		if s.repos.ReadView != nil && tournamentID != "" {
			if found, fallbackErr := s.repos.ReadView.Get(ctx, tournamentID, viewName, dest); fallbackErr == nil && found {
				return nil
			}
		}
		return err
	}
	return nil
}

// splitCacheKey splits a cache key into the (tournamentID, viewName)
// pair the durable store files it under: the second colon-separated
// segment, and the other segments joined, e.g.
// "reports:t1:college_standings" -> ("t1", "reports:college_standings").
// Keys that carry the tournament id last ("portal:college:t1",
// "api:standings-poll:t1") yield the middle segment as tournamentID and
// keep the id inside viewName; each key still maps to its own pair.
func splitCacheKey(key string) (tournamentID, viewName string) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 2 {
		return "", key
	}
	if len(parts) == 2 {
		return parts[1], parts[0]
	}
	return parts[1], parts[0] + ":" + parts[2]
}
