package dto

import (
	"encoding/json"
	"time"
)

type AdminSendCommandRequest struct {
	ServerID   int64           `json:"server_id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	TTLSeconds int             `json:"ttl_seconds,omitempty"`
}

type AdminSendCommandResponse struct {
	Message       string `json:"message"`
	CommandID     int64  `json:"command_id"`
	Status        string `json:"status"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

type DeleteAlertResponse struct {
	Message   string `json:"message"`
	Filename  string `json:"filename"`
	ServerID  int64  `json:"server_id"`
	CommandID int64  `json:"command_id"`
}

type AlertView struct {
	ID         int64     `json:"id"`
	Severity   string    `json:"severity"`
	Source     string    `json:"source"`
	Alert      string    `json:"alert"`
	Counter    int       `json:"counter"`
	StackTrace string    `json:"stackTrace,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type AlertListResponse struct {
	ServerID int64       `json:"server_id"`
	Alerts   []AlertView `json:"alerts"`
}

type RevokeKeyResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}
