package db

import "time"

// ReportedAlert remembers which alert files were already sent so a restart
// does not report them twice.
type ReportedAlert struct {
	ID         uint   `gorm:"primaryKey"`
	Path       string `gorm:"uniqueIndex;size:1024"`
	Severity   string `gorm:"size:16"`
	ReportedAt time.Time
	CreatedAt  time.Time
}

// ExecutedCommand records commands whose result could not be delivered yet.
type ExecutedCommand struct {
	ID         uint   `gorm:"primaryKey"`
	CommandID  int64  `gorm:"uniqueIndex"`
	Status     string `gorm:"size:16"`
	Message    string `gorm:"type:text"`
	Delivered  bool   `gorm:"index"`
	ExecutedAt time.Time
}
