package assignment

import "testing"

func TestProfileEntryEvaluate(t *testing.T) {
	e := ProfileEntry{DepartureTime: 100, OriginConnection: 1, PAT: 10}
	got := e.Evaluate(40, 0.5)
	if got != 100 {
		t.Errorf("Evaluate(40, 0.5) = %v, want 100 (10 + (100-40)*1.5)", got)
	}

	if got := unreachableEntry.Evaluate(0, 0); !got.Unreachable() {
		t.Errorf("unreachableEntry.Evaluate = %v, want Unreachable", got)
	}
}

func TestProfileFindAtOrAfterPicksSmallestQualifyingDepartureTime(t *testing.T) {
	// Entries stored largest-departure-time first, matching how the
	// backward scan appends them as it walks time in decreasing order.
	p := Profile{
		{DepartureTime: 100, PAT: 1},
		{DepartureTime: 50, PAT: 2},
		{DepartureTime: 10, PAT: 3},
	}

	if got := p.findAtOrAfter(60); got.DepartureTime != 100 {
		t.Errorf("findAtOrAfter(60) = DT %d, want 100", got.DepartureTime)
	}
	if got := p.findAtOrAfter(30); got.DepartureTime != 50 {
		t.Errorf("findAtOrAfter(30) = DT %d, want 50", got.DepartureTime)
	}
	if got := p.findAtOrAfter(10); got.DepartureTime != 10 {
		t.Errorf("findAtOrAfter(10) = DT %d, want 10 (boundary is inclusive)", got.DepartureTime)
	}
	if got := p.findAtOrAfter(200); !got.PAT.Unreachable() {
		t.Errorf("findAtOrAfter(200) should find nothing, got %+v", got)
	}
}

func TestProfileFindStrictlyAfterExcludesExactMatch(t *testing.T) {
	p := Profile{
		{DepartureTime: 100, PAT: 1},
		{DepartureTime: 50, PAT: 2},
	}
	if got := p.findStrictlyAfter(50); got.DepartureTime != 100 {
		t.Errorf("findStrictlyAfter(50) = DT %d, want 100 (50 itself excluded)", got.DepartureTime)
	}
	if got := p.findStrictlyAfter(100); !got.PAT.Unreachable() {
		t.Errorf("findStrictlyAfter(100) should find nothing past the latest entry, got %+v", got)
	}
}

func TestProfileInsertDropsDominatedEntries(t *testing.T) {
	var p Profile
	weight := 0.0

	if ok := p.insert(ProfileEntry{DepartureTime: 100, PAT: 10}, weight); !ok {
		t.Fatal("first insert into an empty profile must succeed")
	}
	if ok := p.insert(ProfileEntry{DepartureTime: 80, PAT: 5}, weight); !ok {
		t.Fatal("an entry with strictly lower offset must be accepted")
	}
	if len(p) != 1 {
		t.Fatalf("lower-offset entry should have evicted the dominated one, len=%d", len(p))
	}

	if ok := p.insert(ProfileEntry{DepartureTime: 60, PAT: 100}, weight); ok {
		t.Error("an entry with higher offset than the current best must be rejected")
	}
	if len(p) != 1 {
		t.Fatalf("rejected insert must not change profile length, len=%d", len(p))
	}

	if ok := p.insert(ProfileEntry{DepartureTime: 40, PAT: 1}, weight); !ok {
		t.Fatal("a strictly improving entry must be accepted")
	}
	if len(p) != 1 || p[0].DepartureTime != 40 {
		t.Fatalf("profile should hold only the dominating entry, got %+v", p)
	}
}

func TestStopLabelWaitingRoundTrip(t *testing.T) {
	var s StopLabel
	s.AddWaitingEntry(ProfileEntry{DepartureTime: 100, OriginConnection: 7, PAT: 20}, 0)

	got := s.GetSkipEntry(90)
	if got.OriginConnection != 7 || got.DepartureTime != 100 {
		t.Errorf("GetSkipEntry(90) = %+v, want the connection 7 entry", got)
	}

	if got := s.GetFailureEntry(100); !got.PAT.Unreachable() {
		t.Errorf("GetFailureEntry(100) should find nothing strictly after the only entry, got %+v", got)
	}
}

func TestStopLabelAddTransferEntryShiftsTimeAndAddsWalkingCost(t *testing.T) {
	var s StopLabel
	ok := s.AddTransferEntry(100, 5, PerceivedTime(10), 20, 5, 0, 0)
	if !ok {
		t.Fatal("AddTransferEntry should accept the first entry into an empty profile")
	}

	got := s.EvaluateTransferWithDelay(75, 0, 0)
	if got != 30 {
		t.Errorf("EvaluateTransferWithDelay(75) = %v, want 30 (10 + 20*1, at the shifted departure time 100-20-5=75)", got)
	}
}

func TestStopLabelAddTransferEntryRejectsUnreachablePAT(t *testing.T) {
	var s StopLabel
	if ok := s.AddTransferEntry(100, 5, Unreachable, 0, 0, 0, 0); ok {
		t.Error("an unreachable PAT must never be inserted into a transfer profile")
	}
}
