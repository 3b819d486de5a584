package services

import "testing"

func TestSplitName(t *testing.T) {
	cases := []struct {
		full      string
		wantFirst string
		wantLast  string
	}{
		{"Pat Sawyer", "Pat", "Sawyer"},
		{"Mary Jo Smith", "Mary", "Jo Smith"},
		{"Cher", "Cher", ""},
		{"  ", "", ""},
		{"  Leading Space", "Leading", "Space"},
	}
	for _, tc := range cases {
		first, last := splitName(tc.full)
		if first != tc.wantFirst || last != tc.wantLast {
			t.Errorf("splitName(%q) = (%q, %q), want (%q, %q)", tc.full, first, last, tc.wantFirst, tc.wantLast)
		}
	}
}

func TestReviewFlagsMissingWaiverIsRed(t *testing.T) {
	row := ProEntryRow{Name: "Jess Cutter", WaiverAccepted: false}
	flags := reviewFlags(row)
	if len(flags) != 1 || flags[0].Severity != "red" || flags[0].Code != "MISSING_WAIVER" {
		t.Fatalf("expected a single red MISSING_WAIVER flag, got %+v", flags)
	}
}

func TestReviewFlagsUnresolvedPartnerIsYellow(t *testing.T) {
	row := ProEntryRow{
		Name:           "Jess Cutter",
		WaiverAccepted: true,
		Partners:       map[string]string{"Partnered Axe Throw": ""},
	}
	flags := reviewFlags(row)
	if len(flags) != 1 || flags[0].Severity != "yellow" || flags[0].Code != "UNRESOLVED_PARTNER" {
		t.Fatalf("expected a single yellow UNRESOLVED_PARTNER flag, got %+v", flags)
	}
}

func TestReviewFlagsGearSharingWithoutDetailsIsYellow(t *testing.T) {
	row := ProEntryRow{
		Name:           "Jess Cutter",
		WaiverAccepted: true,
		GearSharing:    map[string]string{"Stock Saw": "teamB-bob"},
	}
	flags := reviewFlags(row)
	if len(flags) != 1 || flags[0].Severity != "yellow" || flags[0].Code != "GEAR_SHARING_NO_DETAILS" {
		t.Fatalf("expected a single yellow GEAR_SHARING_NO_DETAILS flag, got %+v", flags)
	}
}

func TestReviewFlagsCleanRowHasNone(t *testing.T) {
	row := ProEntryRow{
		Name:               "Jess Cutter",
		WaiverAccepted:     true,
		Partners:           map[string]string{"Partnered Axe Throw": "Alex Cutter"},
		GearSharing:        map[string]string{"Stock Saw": "teamB-bob"},
		GearSharingDetails: "sharing a borrowed saw with teamB-bob",
	}
	if flags := reviewFlags(row); len(flags) != 0 {
		t.Errorf("expected no flags for a clean row, got %+v", flags)
	}
}

func TestReviewProEntriesPairsRowsWithFlags(t *testing.T) {
	rows := []ProEntryRow{
		{Name: "A", WaiverAccepted: true},
		{Name: "B", WaiverAccepted: false},
	}
	reviews := ReviewProEntries(rows)
	if len(reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(reviews))
	}
	if len(reviews[0].Flags) != 0 {
		t.Errorf("expected the accepted-waiver row to have no flags")
	}
	if len(reviews[1].Flags) != 1 {
		t.Errorf("expected the missing-waiver row to carry one flag")
	}
}
