package models

import "time"

// Lookup outcome values.
const (
	LookupOK      = "ok"
	LookupPartial = "partial"
	LookupInvalid = "invalid"
)

// Lookup sources.
const (
	LookupSourceManual = "manual"
	LookupSourceScan   = "scan"
	LookupSourceBatch  = "batch"
)

// LookupRecord audits one registration resolution. The vehicle report itself
// is never stored; it is rebuilt per request.
type LookupRecord struct {
	ID           uint `gorm:"primaryKey"`
	CreatedAt    time.Time
	UserID       uint   `gorm:"index"`
	RawInput     string `gorm:"size:64"`
	Registration string `gorm:"size:16;index"`
	Source       string `gorm:"size:16"` // manual, scan or batch
	Outcome      string `gorm:"size:16"`
	Missing      string `gorm:"size:128"` // comma-joined absent report sections
}
