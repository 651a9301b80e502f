package vehicle

import (
	"fmt"
	"strings"
	"time"
)

// Condition is the staff-assessed overall state of a trade-in vehicle.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

// ParseCondition validates a user-supplied condition string; empty defaults
// to good.
func ParseCondition(s string) (Condition, error) {
	switch Condition(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return ConditionGood, nil
	case ConditionExcellent:
		return ConditionExcellent, nil
	case ConditionGood:
		return ConditionGood, nil
	case ConditionFair:
		return ConditionFair, nil
	case ConditionPoor:
		return ConditionPoor, nil
	}
	return "", fmt.Errorf("unknown condition %q", s)
}

// Multiplier adjusts a base valuation for condition.
func (c Condition) Multiplier() float64 {
	switch c {
	case ConditionExcellent:
		return 1.05
	case ConditionFair:
		return 0.9
	case ConditionPoor:
		return 0.8
	default:
		return 1.0
	}
}

// Vehicle is the summary record returned by the basic lookup.
type Vehicle struct {
	Reg       string `json:"reg"`
	Make      string `json:"make"`
	Model     string `json:"model"`
	Year      int    `json:"year"`
	VIN       string `json:"vin"`
	Mileage   int    `json:"mileage"`
	BodyStyle string `json:"body_style"`
	Class     string `json:"class"`
}

func (v Vehicle) Age() int {
	age := time.Now().Year() - v.Year
	if age < 0 {
		age = 0
	}
	return age
}

func (v Vehicle) DisplayName() string {
	return v.Make + " " + v.Model
}

// MOTEntry is a single MOT test record.
type MOTEntry struct {
	Date    string `json:"date"`
	Result  string `json:"result"`
	Mileage int    `json:"mileage"`
}

func (e MOTEntry) IsPass() bool {
	return strings.EqualFold(e.Result, "pass")
}

// MOTAndTax carries the statutory test and tax position, history newest first.
type MOTAndTax struct {
	MOTNextDue string     `json:"mot_next_due"`
	TaxExpiry  string     `json:"tax_expiry"`
	History    []MOTEntry `json:"mot_history"`
}

// Recall is a manufacturer safety notice for the vehicle.
type Recall struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Open    bool   `json:"open"`
}

// HistoryFlags are the HPI-style provenance indicators.
type HistoryFlags struct {
	WriteOff       bool   `json:"write_off"`
	Theft          bool   `json:"theft"`
	MileageAnomaly bool   `json:"mileage_anomaly"`
	Note           string `json:"note,omitempty"`
}

func (f HistoryFlags) HasIssues() bool {
	return f.WriteOff || f.Theft || f.MileageAnomaly
}

func (f HistoryFlags) IssueCount() int {
	n := 0
	for _, b := range []bool{f.WriteOff, f.Theft, f.MileageAnomaly} {
		if b {
			n++
		}
	}
	return n
}

// Deal-accelerator bonuses and offer validity, carried over from the
// business rules of the trade-in desk.
const (
	StockPriorityBonus     = 500
	SameDayBonus           = 200
	ValuationValidityHours = 48
)

// Valuation is the low/mid/high trade-in estimate band. Mid is the
// condition-adjusted estimate; High includes the deal-accelerator bonuses.
type Valuation struct {
	Low          int       `json:"low"`
	Mid          int       `json:"mid"`
	High         int       `json:"high"`
	Condition    Condition `json:"condition"`
	StockBonus   int       `json:"stock_bonus"`
	SameDayBonus int       `json:"same_day_bonus"`
	ValidHours   int       `json:"valid_hours"`
}
