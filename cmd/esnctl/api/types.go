package api

import (
	"encoding/json"
	"time"
)

type Server struct {
	ID                int64      `json:"id" yaml:"id"`
	RegionID          *uint      `json:"region_id" yaml:"region_id"`
	RegionName        string     `json:"region_name" yaml:"region_name"`
	IP                string     `json:"ip" yaml:"ip"`
	CGMVersion        string     `json:"cgm_version" yaml:"cgm_version"`
	AdminVersion      string     `json:"admin_version" yaml:"admin_version"`
	LastUpdate        *time.Time `json:"last_update" yaml:"last_update"`
	HasCriticalAlerts bool       `json:"has_critical_alerts" yaml:"has_critical_alerts"`
}

type Alert struct {
	ID         int64     `json:"id" yaml:"id"`
	Severity   string    `json:"severity" yaml:"severity"`
	Source     string    `json:"source" yaml:"source"`
	Alert      string    `json:"alert" yaml:"alert"`
	Counter    int       `json:"counter" yaml:"counter"`
	StackTrace string    `json:"stackTrace,omitempty" yaml:"stack_trace,omitempty"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
}

type Command struct {
	ID            int64           `json:"id" yaml:"id"`
	ServerID      int64           `json:"server_id" yaml:"server_id"`
	Type          string          `json:"type" yaml:"type"`
	Payload       json.RawMessage `json:"payload" yaml:"-"`
	Status        string          `json:"status" yaml:"status"`
	CreatedAt     time.Time       `json:"created_at" yaml:"created_at"`
	ExecutedAt    *time.Time      `json:"executed_at,omitempty" yaml:"executed_at,omitempty"`
	CorrelationID *string         `json:"correlation_id,omitempty" yaml:"correlation_id,omitempty"`
}

type CommandResult struct {
	ID        int64     `json:"id" yaml:"id"`
	Status    string    `json:"status" yaml:"status"`
	Message   *string   `json:"message,omitempty" yaml:"message,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

type CommandDetail struct {
	Command `yaml:",inline"`
	Results []CommandResult `json:"results" yaml:"results"`
}

type Queued struct {
	Message   string `json:"message" yaml:"message"`
	CommandID int64  `json:"command_id" yaml:"command_id"`
}

type SendCommandRequest struct {
	ServerID   int64           `json:"server_id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	TTLSeconds int             `json:"ttl_seconds,omitempty"`
}
