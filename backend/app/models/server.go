package models

import (
	"time"

	"gorm.io/datatypes"
)

type Region struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Server is a monitored host. Its ID is chosen by the agent, not generated.
type Server struct {
	ID           int64          `gorm:"primaryKey;autoIncrement:false" json:"id"`
	RegionID     *uint          `gorm:"index:idx_servers_region" json:"region_id,omitempty"`
	Region       *Region        `gorm:"constraint:OnDelete:SET NULL" json:"region,omitempty"`
	IP           string         `gorm:"size:64" json:"ip"`
	CGMVersion   string         `gorm:"column:cgm_version;size:64" json:"cgm_version"`
	AdminVersion string         `gorm:"column:admin_version;size:64" json:"admin_version"`
	LastUpdate   *time.Time     `gorm:"index:idx_servers_last_update" json:"last_update,omitempty"`
	LastStatus   datatypes.JSON `json:"last_status,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`

	AgentKeys []AgentKey `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Alerts    []Alert    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Commands  []Command  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
