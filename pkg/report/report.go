package report

import (
	"context"
	"log"

	"tradesnap/pkg/vehicle"
)

// Section names used to mark absent report parts.
const (
	SectionSummary   = "summary"
	SectionMOT       = "mot"
	SectionRecalls   = "recalls"
	SectionHistory   = "history"
	SectionValuation = "valuation"
)

// Report is the display-ready aggregate for one registration. Sections whose
// provider failed or had no record are nil and listed in Missing; a partial
// report is a valid outcome, not an error.
type Report struct {
	Registration string                `json:"registration"`
	Summary      *vehicle.Vehicle      `json:"summary,omitempty"`
	MOT          *vehicle.MOTAndTax    `json:"mot,omitempty"`
	Recalls      []vehicle.Recall      `json:"recalls"`
	History      *vehicle.HistoryFlags `json:"history,omitempty"`
	Valuation    *vehicle.Valuation    `json:"valuation,omitempty"`
	Missing      []string              `json:"missing,omitempty"`
}

// OpenRecallCount counts recalls still open against the vehicle.
func (r *Report) OpenRecallCount() int {
	n := 0
	for _, rec := range r.Recalls {
		if rec.Open {
			n++
		}
	}
	return n
}

// Tags derives the category keywords (make, body style, class) used by the
// buyer matcher. A report without a summary section has no tags.
func (r *Report) Tags() []string {
	if r.Summary == nil {
		return nil
	}
	var tags []string
	for _, t := range []string{r.Summary.Make, r.Summary.BodyStyle, r.Summary.Class} {
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Assembler fans a normalized registration out to every provider and merges
// the results. Providers are interfaces so the mocks can be swapped for real
// DVLA/DVSA/HPI integrations without touching this type.
type Assembler struct {
	Lookup    vehicle.Lookup
	MOT       vehicle.MOTProvider
	Recalls   vehicle.RecallProvider
	History   vehicle.HistoryProvider
	Valuer    vehicle.Valuer
	Condition vehicle.Condition
}

// NewAssembler wires the assembler to the mock provider set.
func NewAssembler() *Assembler {
	return &Assembler{
		Lookup:    vehicle.MockLookup{},
		MOT:       vehicle.MockMOT{},
		Recalls:   vehicle.MockRecalls{},
		History:   vehicle.MockHistory{},
		Valuer:    vehicle.MockValuer{},
		Condition: vehicle.ConditionGood,
	}
}

// Assemble builds a report for a normalized registration. Individual
// provider failures mark their section absent and assembly continues; the
// returned error is reserved for contexts cancelled mid-assembly.
func (a *Assembler) Assemble(ctx context.Context, reg string) (*Report, error) {
	return a.AssembleWithCondition(ctx, reg, a.Condition)
}

// AssembleWithCondition is Assemble with an explicit valuation condition.
func (a *Assembler) AssembleWithCondition(ctx context.Context, reg string, cond vehicle.Condition) (*Report, error) {
	rep := &Report{Registration: reg, Recalls: []vehicle.Recall{}}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if v, err := a.Lookup.Lookup(ctx, reg); err != nil {
		rep.markMissing(SectionSummary, reg, err)
	} else {
		rep.Summary = &v
	}

	if mt, err := a.MOT.MOTAndTax(ctx, reg); err != nil {
		rep.markMissing(SectionMOT, reg, err)
	} else {
		rep.MOT = &mt
	}

	recallKey := reg
	if rep.Summary != nil && rep.Summary.VIN != "" {
		recallKey = rep.Summary.VIN
	}
	if recs, err := a.Recalls.Recalls(ctx, recallKey); err != nil {
		rep.markMissing(SectionRecalls, reg, err)
	} else {
		rep.Recalls = recs
	}

	if hf, err := a.History.HistoryFlags(ctx, reg); err != nil {
		rep.markMissing(SectionHistory, reg, err)
	} else {
		rep.History = &hf
	}

	if rep.Summary == nil {
		// valuation needs a summary to price against
		rep.markMissing(SectionValuation, reg, vehicle.ErrNotFound)
	} else if val, err := a.Valuer.Estimate(*rep.Summary, cond); err != nil {
		rep.markMissing(SectionValuation, reg, err)
	} else {
		rep.Valuation = &val
	}

	return rep, ctx.Err()
}

func (r *Report) markMissing(section, reg string, err error) {
	log.Printf("report %s: %s section unavailable: %v", reg, section, err)
	r.Missing = append(r.Missing, section)
}
