package models

import (
	"time"
)

// Upload records one plate photo pushed through the scan pipeline. Failed
// scans keep their row so staff can review what the camera produced.
type Upload struct {
	ID           uint `gorm:"primaryKey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	FileName     string `gorm:"size:255;not null;uniqueIndex:idx_user_upload_file"`
	StorePath    string `gorm:"column:store_path;size:512"`
	UserID       uint   `gorm:"index;not null;uniqueIndex:idx_user_upload_file"`
	ContentType  string `gorm:"size:128"`
	Registration string `gorm:"size:16;index"` // normalized plate when OCR succeeded
	Confidence   float64
	Failed       bool   `gorm:"default:false;index"`
	FailedReason string `gorm:"size:255"`
}
