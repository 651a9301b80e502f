package vehicle

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"
)

// Mock providers for development and demos. All pseudo-random fields are
// seeded from the registration so repeated lookups of the same plate agree,
// and every syntactically valid registration yields a structured result.
// Registrations starting with Q (the DVLA marker for vehicles of uncertain
// provenance) report ErrNotFound from the basic lookup.

type mockCatalogEntry struct {
	make      string
	model     string
	bodyStyle string
	class     string
}

var mockCatalog = []mockCatalogEntry{
	{"BMW", "3 Series", "saloon", "premium"},
	{"BMW", "5 Series", "saloon", "executive"},
	{"BMW", "X3", "suv", "premium"},
	{"BMW", "4 Series Coupe", "coupe", "premium"},
	{"BMW", "1 Series", "hatchback", "compact"},
	{"MINI", "Cooper", "hatchback", "compact"},
	{"BMW", "X5", "suv", "executive"},
	{"BMW", "i4", "saloon", "electric"},
}

func seedFor(reg string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToUpper(strings.ReplaceAll(reg, " ", ""))))
	return int64(h.Sum64())
}

func isQPlate(reg string) bool {
	cleaned := strings.ToUpper(strings.TrimSpace(reg))
	return strings.HasPrefix(cleaned, "Q")
}

// MockLookup is the development stand-in for the DVLA basic lookup.
type MockLookup struct{}

func (MockLookup) Lookup(_ context.Context, reg string) (Vehicle, error) {
	if isQPlate(reg) {
		return Vehicle{}, ErrNotFound
	}
	rng := rand.New(rand.NewSource(seedFor(reg)))
	entry := mockCatalog[rng.Intn(len(mockCatalog))]
	year := time.Now().Year() - 2 - rng.Intn(9)
	mileage := 8000*(time.Now().Year()-year) + rng.Intn(12000)
	return Vehicle{
		Reg:       strings.ToUpper(strings.ReplaceAll(reg, " ", "")),
		Make:      entry.make,
		Model:     entry.model,
		Year:      year,
		VIN:       fmt.Sprintf("WBA8B%011d", rng.Int63n(100_000_000_000)),
		Mileage:   mileage,
		BodyStyle: entry.bodyStyle,
		Class:     entry.class,
	}, nil
}

// MockMOT is the development stand-in for the DVSA MOT/tax lookup.
type MockMOT struct{}

func (MockMOT) MOTAndTax(_ context.Context, reg string) (MOTAndTax, error) {
	rng := rand.New(rand.NewSource(seedFor(reg) ^ 0x4d4f54)) // distinct stream per provider
	today := time.Now()
	mileage := 30000 + rng.Intn(60000)
	history := make([]MOTEntry, 0, 3)
	for i := 0; i < 3; i++ {
		result := "Pass"
		if rng.Intn(4) == 0 {
			result = "Advisory"
		}
		history = append(history, MOTEntry{
			Date:    today.AddDate(-(i + 1), 0, -rng.Intn(20)).Format("2006-01-02"),
			Result:  result,
			Mileage: mileage - i*(6000+rng.Intn(3000)),
		})
	}
	return MOTAndTax{
		MOTNextDue: today.AddDate(0, 0, 30+rng.Intn(300)).Format("2006-01-02"),
		TaxExpiry:  today.AddDate(0, 0, 10+rng.Intn(170)).Format("2006-01-02"),
		History:    history,
	}, nil
}

var recallCatalog = []Recall{
	{ID: "R-2023-001", Summary: "Airbag inflator recall - replace module", Open: true},
	{ID: "R-2022-012", Summary: "Steering column check", Open: false},
	{ID: "R-2024-007", Summary: "High-voltage battery fixing bolts torque check", Open: true},
	{ID: "R-2021-030", Summary: "EGR cooler inspection", Open: false},
}

// MockRecalls is the development stand-in for the manufacturer recall feed.
type MockRecalls struct{}

func (MockRecalls) Recalls(_ context.Context, regOrVIN string) ([]Recall, error) {
	rng := rand.New(rand.NewSource(seedFor(regOrVIN) ^ 0x52434c))
	n := rng.Intn(3) // 0-2 recalls
	out := make([]Recall, 0, n)
	perm := rng.Perm(len(recallCatalog))
	for i := 0; i < n; i++ {
		out = append(out, recallCatalog[perm[i]])
	}
	return out, nil
}

// MockHistory is the development stand-in for the HPI-style history check.
type MockHistory struct{}

func (MockHistory) HistoryFlags(_ context.Context, reg string) (HistoryFlags, error) {
	rng := rand.New(rand.NewSource(seedFor(reg) ^ 0x485049))
	flags := HistoryFlags{
		WriteOff:       rng.Intn(10) == 0,
		Theft:          rng.Intn(20) == 0,
		MileageAnomaly: rng.Intn(5) == 0,
	}
	if flags.MileageAnomaly {
		flags.Note = fmt.Sprintf("Mileage shows a %d,000 jump in an earlier record", 3+rng.Intn(5))
	}
	return flags, nil
}

// MockValuer prices a trade-in with the desk's placeholder formula: a flat
// ceiling depreciated by age and mileage, floored, then adjusted for
// condition. The band spreads around that mid estimate and High carries the
// deal-accelerator bonuses.
type MockValuer struct{}

func (MockValuer) Estimate(v Vehicle, cond Condition) (Valuation, error) {
	base := 25000 - v.Age()*2000 - v.Mileage/10
	if base < 100 {
		base = 100
	}
	mid := int(float64(base) * cond.Multiplier())
	if mid < 100 {
		mid = 100
	}
	low := mid - 500
	if low < 100 {
		low = 100
	}
	return Valuation{
		Low:          low,
		Mid:          mid,
		High:         mid + StockPriorityBonus + SameDayBonus,
		Condition:    cond,
		StockBonus:   StockPriorityBonus,
		SameDayBonus: SameDayBonus,
		ValidHours:   ValuationValidityHours,
	}, nil
}
