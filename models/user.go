package models

import (
	"time"
)

// User is a staff account on the trade-in desk.
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time `gorm:"index"`
	Username       string     `gorm:"size:255;not null;unique"`
	HashedPassword []byte     `gorm:"not null"`
	RoleID         *uint      `gorm:"index"`
	Role           Role       `gorm:"foreignKey:RoleID;references:ID"`
	Uploads        []Upload   `gorm:"foreignKey:UserID"`
	Bookings       []Booking  `gorm:"foreignKey:UserID"`
}
