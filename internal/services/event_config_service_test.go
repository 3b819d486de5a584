package services

import (
	"testing"

	"lumberjack-engine/internal/models"
)

func TestScoringOrderForMeasurementTypes(t *testing.T) {
	cases := map[string]models.ScoringOrder{
		"time":     models.ScoringOrderLowestWins,
		"score":    models.ScoringOrderHighestWins,
		"distance": models.ScoringOrderHighestWins,
		"hits":     models.ScoringOrderHighestWins,
		"bracket":  models.ScoringOrderLowestWins,
	}
	for scoringType, want := range cases {
		if got := scoringOrderFor(scoringType); got != want {
			t.Errorf("scoringOrderFor(%q) = %v, want %v", scoringType, got, want)
		}
	}
}

func TestEventSignatureDistinguishesGender(t *testing.T) {
	m, f := models.GenderMale, models.GenderFemale
	sigM := eventSignature("Single Buck", models.DivisionCollege, &m)
	sigF := eventSignature("Single Buck", models.DivisionCollege, &f)
	sigNone := eventSignature("Single Buck", models.DivisionCollege, nil)
	if sigM == sigF || sigM == sigNone || sigF == sigNone {
		t.Errorf("signatures must differ across genders: %q %q %q", sigM, sigF, sigNone)
	}
	if eventSignature("Single Buck", models.DivisionCollege, &m) != sigM {
		t.Errorf("signature is not deterministic")
	}
}
