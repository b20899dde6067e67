package dto

import (
	"encoding/json"
	"time"
)

// AgentKey fields in request bodies are accepted for compatibility with older
// agents and ignored; the credential is read from the header.

type AgentStatusRequest struct {
	AgentKey     string           `json:"agent_key,omitempty"`
	ServerID     int64            `json:"server_id"`
	RegionID     *uint            `json:"region_id,omitempty"`
	IP           string           `json:"ip"`
	CGMVersion   string           `json:"cgm_version"`
	AdminVersion string           `json:"admin_version"`
	Timestamp    time.Time        `json:"timestamp"`
	RawStatus    *json.RawMessage `json:"raw_status,omitempty"`
}

type AgentStatusResponse struct {
	Message  string `json:"message"`
	ServerID int64  `json:"server_id"`
}

type AlertItem struct {
	Severity   string     `json:"severity"`
	Source     string     `json:"source"`
	Alert      string     `json:"alert"`
	Counter    *int       `json:"counter,omitempty"`
	StackTrace *string    `json:"stackTrace,omitempty"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

type AgentAlertsRequest struct {
	AgentKey string      `json:"agent_key,omitempty"`
	ServerID int64       `json:"server_id"`
	Alerts   []AlertItem `json:"alerts"`
}

type AgentAlertsResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type AgentCommand struct {
	ID      int64           `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type CommandResultRequest struct {
	Status  string  `json:"status"`
	Message *string `json:"message,omitempty"`
}

type CommandResultResponse struct {
	Message   string `json:"message"`
	CommandID int64  `json:"command_id"`
	ResultID  int64  `json:"result_id"`
}
