// internal/services/validator_service.go
// Pure validation functions over entities, sharing one errors+warnings
// result shape across the registration and heat rules. Nothing here
// touches the Store.

package services

import (
	"strconv"
	"strings"

	"lumberjack-engine/internal/config"
	"lumberjack-engine/internal/models"
)

// ValidationIssue is one error or warning produced by a validate* function.
type ValidationIssue struct {
	Code     string
	Message  string
	Field    string
	EntityID string
}

// ValidationResult carries blocking errors and non-blocking warnings.
type ValidationResult struct {
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

// Valid reports whether the result carries no blocking errors.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) addError(code, message, field, entityID string) {
	r.Errors = append(r.Errors, ValidationIssue{Code: code, Message: message, Field: field, EntityID: entityID})
}

func (r *ValidationResult) addWarning(code, message, field, entityID string) {
	r.Warnings = append(r.Warnings, ValidationIssue{Code: code, Message: message, Field: field, EntityID: entityID})
}

// ValidateTeam enforces the 4-8 active member / gender-balance rule.
// Only members with CompetitorStatusActive count toward the totals.
func ValidateTeam(team *models.Team, members []*models.CollegeCompetitor) ValidationResult {
	var result ValidationResult

	var active []*models.CollegeCompetitor
	for _, m := range members {
		if m.Status == models.CompetitorStatusActive {
			active = append(active, m)
		}
	}

	if len(active) < 4 {
		result.addError("TEAM_TOO_SMALL", "team must have at least 4 active members", "members", team.ID)
	}
	if len(active) > 8 {
		result.addError("TEAM_TOO_LARGE", "team may have at most 8 active members", "members", team.ID)
	}

	var males, females int
	for _, m := range active {
		switch m.Gender {
		case models.GenderMale:
			males++
		case models.GenderFemale:
			females++
		}
	}
	if males < 2 {
		result.addError("TEAM_GENDER_BALANCE", "team must have at least 2 male members", "members", team.ID)
	}
	if females < 2 {
		result.addError("TEAM_GENDER_BALANCE", "team must have at least 2 female members", "members", team.ID)
	}

	return result
}

// ValidateCollegeCompetitor enforces required fields, team linkage, and
// the closed/chopping event caps from cfg.
func ValidateCollegeCompetitor(c *models.CollegeCompetitor, cfg config.TournamentConfig) ValidationResult {
	var result ValidationResult

	if c.FirstName == "" || c.LastName == "" {
		result.addError("COMPETITOR_NAME_REQUIRED", "first and last name are required", "name", c.ID)
	}
	if c.TeamID == "" {
		result.addError("COMPETITOR_TEAM_REQUIRED", "a college competitor must belong to a team", "team_id", c.ID)
	}
	if c.Gender != models.GenderMale && c.Gender != models.GenderFemale {
		result.addError("COMPETITOR_GENDER_REQUIRED", "gender must be M or F", "gender", c.ID)
	}

	var closedCount, choppingCount int
	for _, eventName := range c.EventsEntered {
		if cfg.ClosedEvents[eventName] {
			closedCount++
		}
		if cfg.ChoppingEvents[eventName] {
			choppingCount++
		}
	}
	if closedCount > 6 {
		result.addError("CLOSED_EVENT_CAP", "may enter at most 6 closed events", "events_entered", c.ID)
	}
	if choppingCount > 2 {
		result.addError("CHOPPING_EVENT_CAP", "may enter at most 2 chopping events", "events_entered", c.ID)
	}

	return result
}

// ValidateProCompetitor enforces required fields and surfaces non-blocking
// warnings for incomplete registrations that are still admissible.
func ValidateProCompetitor(p *models.ProCompetitor) ValidationResult {
	var result ValidationResult

	if p.FirstName == "" || p.LastName == "" {
		result.addError("COMPETITOR_NAME_REQUIRED", "first and last name are required", "name", p.ID)
	}
	if p.Gender != models.GenderMale && p.Gender != models.GenderFemale {
		result.addError("COMPETITOR_GENDER_REQUIRED", "gender must be M or F", "gender", p.ID)
	}

	if !p.IsALAMember {
		result.addWarning("NOT_ALA_MEMBER", "competitor is not an ALA member", "is_ala_member", p.ID)
	}
	if len(p.EventsEntered) == 0 {
		result.addWarning("NO_EVENTS_ENTERED", "competitor has not entered any events", "events_entered", p.ID)
	}
	for event, paid := range p.FeesPaid {
		if !paid {
			result.addWarning("UNPAID_FEE", "entry fee unpaid for "+event, "fees_paid", p.ID)
		}
	}

	return result
}

// ValidateHeat checks stand capacity and gear-sharing conflicts for an
// already-built heat against its event's configured stand type.
func ValidateHeat(heat *models.Heat, event *models.Event, cfg config.TournamentConfig) ValidationResult {
	var result ValidationResult

	standCfg, ok := cfg.StandConfigs[string(event.StandType)]
	if !ok {
		result.addError("UNKNOWN_STAND_TYPE", "no stand configuration for "+string(event.StandType), "stand_type", heat.ID)
		return result
	}

	maxPerHeat := standCfg.Total
	if event.StandType == models.StandTypeSawHand && maxPerHeat > 4 {
		maxPerHeat = 4
	}
	if len(heat.Competitors) > maxPerHeat {
		result.addError("HEAT_OVER_CAPACITY", "heat exceeds stand capacity", "competitors", heat.ID)
	}

	allowed := make(map[int]bool, standCfg.Total)
	if event.StandType == models.StandTypeStockSaw && event.Division == models.DivisionCollege {
		for _, s := range standCfg.SpecificStands {
			allowed[s] = true
		}
	} else {
		for s := 1; s <= standCfg.Total; s++ {
			allowed[s] = true
		}
	}

	seenStands := make(map[int]bool)
	for _, stand := range heat.StandAssignments {
		if seenStands[stand] {
			result.addError("STAND_COLLISION", "stand "+strconv.Itoa(stand)+" assigned more than once", "stand_assignments", heat.ID)
		}
		seenStands[stand] = true
		if !allowed[stand] {
			result.addError("STAND_OUT_OF_RANGE", "stand "+strconv.Itoa(stand)+" is not in this event's stand set", "stand_assignments", heat.ID)
		}
	}

	return result
}

// gearSharingConflict reports whether two competitors conflict for an
// event per their gear_sharing maps: a conflict exists when either's
// entry for this event (keyed by event name, case/space-normalized)
// names the other competitor's id, or when both carry the same group
// token. The name-reference checks are one-sided and run independently
// in each direction, so a declaration on only one competitor still
// counts; only the group-token rule needs both sides to hold an entry.
func gearSharingConflict(eventName string, aID string, aSharing map[string]string, bID string, bSharing map[string]string) bool {
	norm := normalizeEventKey(eventName)
	aToken, aOK := lookupNormalized(aSharing, norm)
	bToken, bOK := lookupNormalized(bSharing, norm)

	if aOK && aToken == bID {
		return true
	}
	if bOK && bToken == aID {
		return true
	}
	return aOK && bOK && aToken != "" && aToken == bToken
}

func lookupNormalized(m map[string]string, normKey string) (string, bool) {
	for k, v := range m {
		if matchesEventKey(normalizeEventKey(k), normKey) {
			return v, true
		}
	}
	return "", false
}

func normalizeEventKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// crosscutEvents and chainsawEvents map normalized event names into the
// two gear categories a sharing entry may name instead of a single event.
var crosscutEvents = map[string]bool{
	"single buck":        true,
	"double buck":        true,
	"jack & jill sawing": true,
}

var chainsawEvents = map[string]bool{
	"stock saw": true,
	"hot saw":   true,
}

// matchesEventKey reports whether a sharing-map key addresses an event:
// exact normalized name, or the gear category the event's saw falls in.
func matchesEventKey(normKey, normEventName string) bool {
	if normKey == normEventName {
		return true
	}
	switch normKey {
	case "crosscut":
		return crosscutEvents[normEventName]
	case "chainsaw":
		return chainsawEvents[normEventName]
	}
	return false
}
