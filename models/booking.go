package models

import "time"

// Booking kinds.
const (
	BookingRecall     = "recall"
	BookingInspection = "inspection"
)

// Booking is a confirmed recall-repair or trade-in-inspection slot.
type Booking struct {
	ID            uint `gorm:"primaryKey"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Reference     string    `gorm:"size:64;not null;uniqueIndex"`
	Kind          string    `gorm:"size:16;not null;index"`
	Registration  string    `gorm:"size:16;not null;index"`
	RecallID      string    `gorm:"size:32"` // set for recall bookings
	Garage        string    `gorm:"size:128;not null"`
	Date          time.Time `gorm:"not null"`
	TimeSlot      string    `gorm:"size:32;not null"`
	CustomerName  string    `gorm:"size:128;not null"`
	CustomerPhone string    `gorm:"size:64;not null"`
	CustomerEmail string    `gorm:"size:255"`
	OfferValue    int       // captured offer for inspection bookings
	UserID        uint      `gorm:"index"`
}
