package vehicle

import (
	"context"
	"errors"
	"testing"
)

func TestMockLookupDeterministic(t *testing.T) {
	ctx := context.Background()
	a, err := MockLookup{}.Lookup(ctx, "AB12 CDE")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	b, err := MockLookup{}.Lookup(ctx, "ab12cde")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if a != b {
		t.Fatalf("same plate (modulo spacing/case) should agree: %+v vs %+v", a, b)
	}
	if a.Make == "" || a.Model == "" || a.VIN == "" || a.Year == 0 {
		t.Fatalf("incomplete summary: %+v", a)
	}
}

func TestMockLookupQPlateNotFound(t *testing.T) {
	_, err := MockLookup{}.Lookup(context.Background(), "Q123 ABC")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Q plate: got %v, want ErrNotFound", err)
	}
}

func TestMockMOTHistoryOrderedNewestFirst(t *testing.T) {
	mt, err := MockMOT{}.MOTAndTax(context.Background(), "KT68 XYZ")
	if err != nil {
		t.Fatalf("mot: %v", err)
	}
	if len(mt.History) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(mt.History))
	}
	for i := 1; i < len(mt.History); i++ {
		if mt.History[i].Date >= mt.History[i-1].Date {
			t.Fatalf("history not newest-first: %v", mt.History)
		}
		if mt.History[i].Mileage >= mt.History[i-1].Mileage {
			t.Fatalf("mileage should decrease back in time: %v", mt.History)
		}
	}
}

func TestMockProvidersAreTotal(t *testing.T) {
	// Any syntactically valid registration yields a structured result.
	ctx := context.Background()
	for _, reg := range []string{"AB12 CDE", "P123 ABC", "ABC 123D", "1234 AB"} {
		if _, err := (MockMOT{}).MOTAndTax(ctx, reg); err != nil {
			t.Fatalf("MOTAndTax(%q): %v", reg, err)
		}
		if _, err := (MockRecalls{}).Recalls(ctx, reg); err != nil {
			t.Fatalf("Recalls(%q): %v", reg, err)
		}
		if _, err := (MockHistory{}).HistoryFlags(ctx, reg); err != nil {
			t.Fatalf("HistoryFlags(%q): %v", reg, err)
		}
	}
}

func TestMockValuerBandAndFloor(t *testing.T) {
	v := Vehicle{Year: 2018, Mileage: 54000}
	val, err := MockValuer{}.Estimate(v, ConditionGood)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if !(val.Low <= val.Mid && val.Mid < val.High) {
		t.Fatalf("band out of order: %+v", val)
	}
	if val.High != val.Mid+StockPriorityBonus+SameDayBonus {
		t.Fatalf("high should carry bonuses: %+v", val)
	}
	if val.ValidHours != ValuationValidityHours {
		t.Fatalf("validity hours: %+v", val)
	}

	// An ancient high-mileage vehicle still gets the floor, never negative.
	old := Vehicle{Year: 1990, Mileage: 250000}
	val, err = MockValuer{}.Estimate(old, ConditionPoor)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if val.Low < 100 || val.Mid < 100 {
		t.Fatalf("floor violated: %+v", val)
	}
}

func TestConditionMultipliers(t *testing.T) {
	cases := map[Condition]float64{
		ConditionExcellent: 1.05,
		ConditionGood:      1.0,
		ConditionFair:      0.9,
		ConditionPoor:      0.8,
	}
	for c, want := range cases {
		if got := c.Multiplier(); got != want {
			t.Fatalf("%s multiplier = %v, want %v", c, got, want)
		}
	}
	if _, err := ParseCondition("pristine"); err == nil {
		t.Fatal("unknown condition should be rejected")
	}
	if c, err := ParseCondition(""); err != nil || c != ConditionGood {
		t.Fatalf("empty condition should default to good, got %v %v", c, err)
	}
}
