package models

import (
	"time"

	"gorm.io/datatypes"
)

type CommandType string

const (
	CommandDeleteAlert CommandType = "DELETE_ALERT"
	CommandCustom      CommandType = "CUSTOM"
)

func (t CommandType) Valid() bool {
	switch t {
	case CommandDeleteAlert, CommandCustom:
		return true
	}
	return false
}

// CommandStatus follows pending -> sent -> done, with failed reachable from
// any non-terminal state. sent is reserved: nothing in the backend sets it.
type CommandStatus string

const (
	CommandPending CommandStatus = "pending"
	CommandSent    CommandStatus = "sent"
	CommandDone    CommandStatus = "done"
	CommandFailed  CommandStatus = "failed"
)

func (s CommandStatus) Valid() bool {
	switch s {
	case CommandPending, CommandSent, CommandDone, CommandFailed:
		return true
	}
	return false
}

func (s CommandStatus) Terminal() bool { return s == CommandDone || s == CommandFailed }

// Result statuses reported by agents. Other strings are stored as-is.
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)

// Command is a unit of work queued for one server's agent.
type Command struct {
	ID            int64           `gorm:"primaryKey" json:"id"`
	ServerID      int64           `gorm:"not null;index:idx_commands_server_status,priority:1" json:"server_id"`
	Type          CommandType     `gorm:"size:32;not null" json:"type"`
	Payload       datatypes.JSON  `json:"payload"`
	Status        CommandStatus   `gorm:"size:16;not null;default:'pending';index:idx_commands_server_status,priority:2;index:idx_commands_status_created,priority:1" json:"status"`
	CreatedAt     time.Time       `gorm:"index:idx_commands_status_created,priority:2" json:"created_at"`
	ExecutedAt    *time.Time      `json:"executed_at,omitempty"`
	Attempts      int             `gorm:"not null;default:0" json:"attempts"`
	CorrelationID *string         `gorm:"size:36" json:"correlation_id,omitempty"`
	TTLUntil      *time.Time      `gorm:"column:ttl_until" json:"ttl_until,omitempty"`
	Results       []CommandResult `gorm:"constraint:OnDelete:CASCADE" json:"results,omitempty"`
}

func (Command) TableName() string { return "command_queue" }

// CommandResult is an append-only outcome report for a Command.
type CommandResult struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	CommandID int64     `gorm:"not null;index:idx_command_results_command" json:"command_id"`
	Status    string    `gorm:"size:64;not null" json:"status"`
	Message   *string   `gorm:"type:text" json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
