package vehicle

import (
	"context"
	"errors"
)

// ErrNotFound is returned by providers when no record exists for a
// registration. Callers treat it as an absent report section, never a fault.
var ErrNotFound = errors.New("vehicle not found")

// One interface per external data source so production implementations can
// replace the mocks without touching the report assembler.

// Lookup resolves a registration to its summary record.
type Lookup interface {
	Lookup(ctx context.Context, reg string) (Vehicle, error)
}

// MOTProvider returns the MOT/tax position for a registration.
type MOTProvider interface {
	MOTAndTax(ctx context.Context, reg string) (MOTAndTax, error)
}

// RecallProvider returns open and closed recalls for a registration or VIN.
type RecallProvider interface {
	Recalls(ctx context.Context, regOrVIN string) ([]Recall, error)
}

// HistoryProvider returns the HPI-style history flags for a registration.
type HistoryProvider interface {
	HistoryFlags(ctx context.Context, reg string) (HistoryFlags, error)
}

// Valuer estimates a trade-in valuation band for a vehicle and condition.
type Valuer interface {
	Estimate(v Vehicle, cond Condition) (Valuation, error)
}
