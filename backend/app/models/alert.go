package models

import "time"

type Severity string

const (
	SeverityNormal   Severity = "Normal"
	SeverityMinor    Severity = "Minor"
	SeverityMajor    Severity = "Major"
	SeverityCritical Severity = "Critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityNormal, SeverityMinor, SeverityMajor, SeverityCritical:
		return true
	}
	return false
}

type Alert struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	ServerID   int64     `gorm:"not null;index:idx_alerts_server_active,priority:1" json:"server_id"`
	Severity   Severity  `gorm:"size:16;not null;index:idx_alerts_severity" json:"severity"`
	Source     string    `gorm:"size:255" json:"source"`
	AlertText  string    `gorm:"type:text;not null" json:"alert"`
	Counter    int       `gorm:"not null;default:1" json:"counter"`
	Stacktrace string    `gorm:"type:text" json:"stackTrace,omitempty"`
	Timestamp  time.Time `gorm:"not null" json:"timestamp"`
	Active     bool      `gorm:"not null;default:true;index:idx_alerts_server_active,priority:2" json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}
