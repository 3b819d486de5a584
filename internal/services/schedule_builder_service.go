// internal/services/schedule_builder_service.go
// Composes the Friday day block, Friday feature block, and Saturday show
// block from a tournament's configured events.

package services

import (
	"context"
	"sort"
	"strings"

	"lumberjack-engine/internal/apperr"
	"lumberjack-engine/internal/models"
	"lumberjack-engine/internal/repositories"
)

// ScheduleSlot is one entry in a composed schedule block.
type ScheduleSlot struct {
	Slot      int
	EventID   string
	Label     string
	EventType models.Division
	StandType models.StandType
}

// Schedule is the three ordered blocks a tournament's day is built from.
type Schedule struct {
	FridayDay     []ScheduleSlot
	FridayFeature []ScheduleSlot
	SaturdayShow  []ScheduleSlot
}

// DefaultFeatureEvents names the collegiate events that run in the Friday
// feature block alongside the operator-selected pro events when no
// override is given.
var DefaultFeatureEvents = []string{"1-Board Springboard"}

// ScheduleBuilderService composes a tournament's day structure from its
// configured events.
type ScheduleBuilderService struct {
	repos *repositories.Container
}

func NewScheduleBuilderService(repos *repositories.Container) *ScheduleBuilderService {
	return &ScheduleBuilderService{repos: repos}
}

// ScheduleOptions carries the operator choices that can't be derived from
// event rows alone.
type ScheduleOptions struct {
	FridayProEventIDs       []string
	SaturdayCollegeSpillover []string
	FeatureEventNames       []string
	ChokermansRaceEventID   *string
}

// Build loads every event for the tournament and partitions it into the
// three ordered blocks.
func (s *ScheduleBuilderService) Build(ctx context.Context, tournamentID string, opts ScheduleOptions) (*Schedule, error) {
	collegeEvents, err := s.repos.Event.ListByTournament(ctx, tournamentID, models.DivisionCollege)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	proEvents, err := s.repos.Event.ListByTournament(ctx, tournamentID, models.DivisionPro)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	fridayProSet := toSet(opts.FridayProEventIDs)
	saturdayCollegeSet := toSet(opts.SaturdayCollegeSpillover)
	featureNames := opts.FeatureEventNames
	if len(featureNames) == 0 {
		featureNames = DefaultFeatureEvents
	}
	featureNameSet := make(map[string]bool, len(featureNames))
	for _, n := range featureNames {
		featureNameSet[n] = true
	}

	var fridayDayEvents []*models.Event
	var featureCollegeEvents []*models.Event
	for _, e := range collegeEvents {
		if saturdayCollegeSet[e.ID] {
			continue
		}
		if featureNameSet[e.Name] {
			featureCollegeEvents = append(featureCollegeEvents, e)
			continue
		}
		fridayDayEvents = append(fridayDayEvents, e)
	}
	sortCollegeCanonical(fridayDayEvents)
	sortCollegeCanonical(featureCollegeEvents)

	var fridayFeaturePro []*models.Event
	var saturdayPro []*models.Event
	for _, e := range proEvents {
		if fridayProSet[e.ID] {
			fridayFeaturePro = append(fridayFeaturePro, e)
		} else {
			saturdayPro = append(saturdayPro, e)
		}
	}
	sortProCanonical(fridayFeaturePro)
	sortProCanonical(saturdayPro)

	schedule := &Schedule{}

	slot := 1
	for _, e := range fridayDayEvents {
		schedule.FridayDay = append(schedule.FridayDay, toSlot(slot, e))
		slot++
	}

	slot = 1
	for _, e := range featureCollegeEvents {
		schedule.FridayFeature = append(schedule.FridayFeature, toSlot(slot, e))
		slot++
	}
	for _, e := range fridayFeaturePro {
		schedule.FridayFeature = append(schedule.FridayFeature, toSlot(slot, e))
		slot++
	}

	schedule.SaturdayShow = interleave(saturdayPro, opts.SaturdayCollegeSpillover, collegeEvents)

	if opts.ChokermansRaceEventID != nil {
		for _, e := range append(collegeEvents, proEvents...) {
			if e.ID == *opts.ChokermansRaceEventID {
				next := len(schedule.SaturdayShow) + 1
				schedule.SaturdayShow = append(schedule.SaturdayShow, ScheduleSlot{
					Slot: next, EventID: e.ID, Label: e.DisplayName + " (Run 2)", EventType: e.Division, StandType: e.StandType,
				})
			}
		}
	}

	return schedule, nil
}

// interleave places the operator-selected college spillover events every
// third slot among the Saturday pro events. The spillover list runs in
// the fixed Saturday priority order, not the order the operator listed
// the ids in.
func interleave(proEvents []*models.Event, spilloverIDs []string, collegeEvents []*models.Event) []ScheduleSlot {
	wanted := toSet(spilloverIDs)
	var spillover []*models.Event
	for _, e := range collegeEvents {
		if wanted[e.ID] {
			spillover = append(spillover, e)
		}
	}
	sortSpillover(spillover)

	out := make([]ScheduleSlot, 0, len(proEvents)+len(spillover))
	slot := 1
	spilloverIdx := 0
	for i, e := range proEvents {
		out = append(out, toSlot(slot, e))
		slot++
		if (i+1)%3 == 0 && spilloverIdx < len(spillover) {
			out = append(out, toSlot(slot, spillover[spilloverIdx]))
			slot++
			spilloverIdx++
		}
	}
	for ; spilloverIdx < len(spillover); spilloverIdx++ {
		out = append(out, toSlot(slot, spillover[spilloverIdx]))
		slot++
	}
	return out
}

func toSlot(slot int, e *models.Event) ScheduleSlot {
	return ScheduleSlot{Slot: slot, EventID: e.ID, Label: e.DisplayName, EventType: e.Division, StandType: e.StandType}
}

func toSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

// collegeEventOrder and proEventOrder are the canonical running orders
// the day schedules rank events by. Names are matched after folding
// case and punctuation, so "Chokerman's Race" and "chokermans race"
// rank the same.
var collegeEventOrder = []string{
	"Axe Throw",
	"Peavey Log Roll",
	"Caber Toss",
	"Pulp Toss",
	"Underhand Hard Hit",
	"Underhand Speed",
	"Standing Block Hard Hit",
	"Standing Block Speed",
	"Single Buck",
	"Double Buck",
	"Jack & Jill Sawing",
	"Stock Saw",
	"Speed Climb",
	"Obstacle Pole",
	"Chokerman's Race",
	"1-Board Springboard",
	"Birling",
}

var proEventOrder = []string{
	"Springboard",
	"Underhand",
	"Standing Block",
	"Stock Saw",
	"Hot Saw",
	"Single Buck",
	"Double Buck",
	"Jack & Jill Sawing",
	"Obstacle Pole",
	"Cookie Stack",
	"Pole Climb",
	"Partnered Axe Throw",
	"Pro 1-Board",
	"3-Board Jigger",
}

// foldEventName lowercases and strips everything but letters and digits.
func foldEventName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// lookupRank returns a name's index in an ordered table; unknown names
// sort after every listed one.
func lookupRank(name string, ordered []string) int {
	target := foldEventName(name)
	for i, candidate := range ordered {
		if foldEventName(candidate) == target {
			return i
		}
	}
	return len(ordered) + 100
}

func collegeNameRank(name string) int { return lookupRank(name, collegeEventOrder) }

func proNameRank(name string) int { return lookupRank(name, proEventOrder) }

// sortCollegeCanonical orders Friday college events birling-last, OPEN
// before CLOSED, then canonical event rank, then gender M before F.
func sortCollegeCanonical(events []*models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		aBirling := strings.Contains(strings.ToLower(a.Name), "birling")
		bBirling := strings.Contains(strings.ToLower(b.Name), "birling")
		if aBirling != bBirling {
			return !aBirling
		}
		if a.IsOpen != b.IsOpen {
			return a.IsOpen
		}
		if ra, rb := collegeNameRank(a.Name), collegeNameRank(b.Name); ra != rb {
			return ra < rb
		}
		return genderRank(a.Gender) < genderRank(b.Gender)
	})
}

// sortProCanonical orders pro events by canonical rank, then gender.
func sortProCanonical(events []*models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if ra, rb := proNameRank(a.Name), proNameRank(b.Name); ra != rb {
			return ra < rb
		}
		return genderRank(a.Gender) < genderRank(b.Gender)
	})
}

// spilloverPriority fixes the Saturday running order for the college
// events that commonly spill over from Friday; anything else sorts
// after them by gender.
var spilloverPriority = map[string]int{
	"Standing Block Speed|M":    1,
	"Standing Block Hard Hit|M": 2,
	"Standing Block Speed|F":    3,
	"Standing Block Hard Hit|F": 4,
	"Obstacle Pole|M":           5,
}

func spilloverRank(e *models.Event) int {
	g := ""
	if e.Gender != nil {
		g = string(*e.Gender)
	}
	if rank, ok := spilloverPriority[e.Name+"|"+g]; ok {
		return rank
	}
	return 999
}

func sortSpillover(events []*models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if ra, rb := spilloverRank(events[i]), spilloverRank(events[j]); ra != rb {
			return ra < rb
		}
		return genderRank(events[i].Gender) < genderRank(events[j].Gender)
	})
}

func genderRank(g *models.Gender) int {
	if g == nil {
		return 2
	}
	if *g == models.GenderMale {
		return 0
	}
	return 1
}
