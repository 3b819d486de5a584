// internal/models/bracket.go
// BracketState is a discriminated union persisted as a single JSON column
// on Event; Kind pins the payload to one concrete Go type so nothing in
// the engine unmarshals into interface{}.

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// BracketKind identifies which bracket payload BracketState carries.
type BracketKind string

const (
	BracketKindPartneredAxe BracketKind = "partnered_axe"
	BracketKindBirling      BracketKind = "birling"
)

// BracketState wraps exactly one of PartneredAxe or Birling, selected by
// Kind, so Store/Valuer code never branches on raw map keys.
type BracketState struct {
	Kind         BracketKind       `json:"kind"`
	PartneredAxe *PartneredAxeState `json:"partnered_axe,omitempty"`
	Birling      *BirlingState      `json:"birling,omitempty"`
}

// Scan implements sql.Scanner.
func (b *BracketState) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into BracketState", value)
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, b)
}

// Value implements driver.Valuer.
func (b BracketState) Value() (driver.Value, error) {
	return json.Marshal(b)
}

// PartneredAxeStage tracks where the prelims->finals state machine sits.
type PartneredAxeStage string

const (
	PartneredAxeStagePrelims   PartneredAxeStage = "prelims"
	PartneredAxeStageFinals    PartneredAxeStage = "finals"
	PartneredAxeStageCompleted PartneredAxeStage = "completed"
)

// PartneredAxePair is one registered two-person throwing pair.
type PartneredAxePair struct {
	ID                string   `json:"id"`
	CompetitorAID     string   `json:"competitor_a_id"`
	CompetitorBID     string   `json:"competitor_b_id"`
	RegistrationOrder int      `json:"registration_order"`
	PrelimScore       *float64 `json:"prelim_score,omitempty"`
	FinalScore        *float64 `json:"final_score,omitempty"`
	FinalPosition     *int     `json:"final_position,omitempty"`
}

// PartneredAxeState is the full bracket state for one Partnered Axe Throw
// event.
type PartneredAxeState struct {
	Stage     PartneredAxeStage  `json:"stage"`
	Pairs     []PartneredAxePair `json:"pairs"`
	Finalists []string           `json:"finalists"` // pair IDs, top 4 by prelim score
}

// BirlingBracketType marks whether a match belongs to the winners or
// losers side of the double-elimination tree.
type BirlingBracketType string

const (
	BirlingBracketWinners BirlingBracketType = "winners"
	BirlingBracketLosers  BirlingBracketType = "losers"
	BirlingBracketFinal   BirlingBracketType = "final"
)

// BirlingMatch is one double-elimination bracket slot. SourceMatch1ID/
// SourceMatch2ID record which matches feed into it (for display only);
// the two-pass linking step at bracket generation time populates
// NextMatchID/NextSlot and NextLoserMatchID/NextLoserSlot so
// recordMatchResult never has to search the bracket at record time.
type BirlingMatch struct {
	ID               string             `json:"id"`
	Bracket          BirlingBracketType `json:"bracket"`
	Round            int                `json:"round"`
	Slot             int                `json:"slot"`
	CompetitorAID    *string            `json:"competitor_a_id,omitempty"`
	CompetitorBID    *string            `json:"competitor_b_id,omitempty"`
	WinnerID         *string            `json:"winner_id,omitempty"`
	IsBye            bool               `json:"is_bye"`
	Completed        bool               `json:"completed"`
	NextMatchID      *string            `json:"next_match_id,omitempty"`
	NextSlot         int                `json:"next_slot,omitempty"`
	NextLoserMatchID *string            `json:"next_loser_match_id,omitempty"`
	NextLoserSlot    int                `json:"next_loser_slot,omitempty"`
}

// BirlingState is the full double-elimination bracket for one Birling
// event.
type BirlingState struct {
	BracketSize        int            `json:"bracket_size"`
	TotalEntrants      int            `json:"total_entrants"`
	Matches            []BirlingMatch `json:"matches"`
	EliminationCount   int            `json:"elimination_count"`
	// Placements records each competitor's final position the moment
	// they are eliminated (or win); a competitor appears at most once.
	Placements         map[string]int `json:"placements,omitempty"`
	TrueFinalsRequired bool           `json:"true_finals_required"`
	Completed          bool           `json:"completed"`
}
