package report

import (
	"context"
	"errors"
	"testing"

	"tradesnap/pkg/vehicle"
)

type failingLookup struct{}

func (failingLookup) Lookup(context.Context, string) (vehicle.Vehicle, error) {
	return vehicle.Vehicle{}, vehicle.ErrNotFound
}

type brokenMOT struct{}

func (brokenMOT) MOTAndTax(context.Context, string) (vehicle.MOTAndTax, error) {
	return vehicle.MOTAndTax{}, errors.New("upstream timeout")
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}

func TestAssembleFullReport(t *testing.T) {
	a := NewAssembler()
	rep, err := a.Assemble(context.Background(), "AB12 CDE")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if rep.Summary == nil || rep.MOT == nil || rep.History == nil || rep.Valuation == nil {
		t.Fatalf("expected all sections, missing=%v", rep.Missing)
	}
	if len(rep.Missing) != 0 {
		t.Fatalf("unexpected missing sections: %v", rep.Missing)
	}
	if len(rep.Tags()) == 0 {
		t.Fatal("report with summary should expose tags")
	}
}

func TestAssemblePartialFailureIsolation(t *testing.T) {
	a := NewAssembler()
	a.Lookup = failingLookup{}
	rep, err := a.Assemble(context.Background(), "AB12 CDE")
	if err != nil {
		t.Fatalf("assemble must not fail on a provider miss: %v", err)
	}
	if rep.Summary != nil {
		t.Fatal("summary should be absent")
	}
	if !contains(rep.Missing, SectionSummary) {
		t.Fatalf("summary not marked missing: %v", rep.Missing)
	}
	// Other sections still populate.
	if rep.MOT == nil || rep.History == nil {
		t.Fatalf("independent sections should survive, missing=%v", rep.Missing)
	}
	// Valuation depends on the summary, so it is absent too.
	if rep.Valuation != nil || !contains(rep.Missing, SectionValuation) {
		t.Fatalf("valuation should be missing without a summary: %v", rep.Missing)
	}
	if rep.Tags() != nil {
		t.Fatal("no tags without a summary")
	}
}

func TestAssembleProviderErrorIsolation(t *testing.T) {
	a := NewAssembler()
	a.MOT = brokenMOT{}
	rep, err := a.Assemble(context.Background(), "KT68 XYZ")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if rep.MOT != nil || !contains(rep.Missing, SectionMOT) {
		t.Fatalf("MOT section should be marked missing: %v", rep.Missing)
	}
	if rep.Summary == nil || rep.Valuation == nil {
		t.Fatal("other sections should still populate")
	}
}

func TestAssembleCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewAssembler().Assemble(ctx, "AB12 CDE"); err == nil {
		t.Fatal("cancelled context should abort assembly")
	}
}

func TestOpenRecallCount(t *testing.T) {
	rep := &Report{Recalls: []vehicle.Recall{
		{ID: "R-1", Open: true},
		{ID: "R-2", Open: false},
		{ID: "R-3", Open: true},
	}}
	if got := rep.OpenRecallCount(); got != 2 {
		t.Fatalf("open recalls = %d, want 2", got)
	}
}
