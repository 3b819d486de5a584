// internal/models/result.go
package models

import "time"

// ResultStatus tracks one competitor's row through submission and
// finalization.
type ResultStatus string

const (
	ResultStatusPending   ResultStatus = "pending"
	ResultStatusSubmitted ResultStatus = "submitted"
	ResultStatusFinalized ResultStatus = "finalized"
	ResultStatusDQ        ResultStatus = "dq"
)

// EventResult is one competitor's outcome in one event. Totals recorded
// here must always match the competitor's running point/payout totals;
// the scoring engine enforces this by updating both inside the same
// transaction. Run1Value/Run2Value are populated for RequiresDualRuns
// events; BestRun is the min (time events) or max (score/distance/hits)
// of the two, and is what ResultValue mirrors for sorting once both runs
// land. Non-dual-run events write ResultValue directly and leave the
// run columns unset.
type EventResult struct {
	ID                  string
	TournamentID        string
	EventID             string
	CollegeCompetitorID *string
	ProCompetitorID     *string
	CompetitorName      string
	PartnerName         *string
	ResultValue         *float64
	ResultUnit          string
	Run1Value           *float64
	Run2Value           *float64
	BestRun             *float64
	FinalPosition       *int
	PointsAwarded       int
	PayoutAmount        float64
	IsFlagged           bool
	Status              ResultStatus
	FinalizedAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Version             int
}

// CompetitorID returns whichever competitor reference is set.
func (r EventResult) CompetitorID() string {
	if r.CollegeCompetitorID != nil {
		return *r.CollegeCompetitorID
	}
	if r.ProCompetitorID != nil {
		return *r.ProCompetitorID
	}
	return ""
}

// CompetitorType returns "college" or "pro" matching whichever foreign
// key is populated, for the (event_id, competitor_id, competitor_type)
// uniqueness constraint.
func (r EventResult) CompetitorType() string {
	if r.CollegeCompetitorID != nil {
		return "college"
	}
	return "pro"
}
