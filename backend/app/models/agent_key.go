package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AgentKey stores one credential hash for a server. KeyHash is not unique:
// duplicates are allowed and each one is checked during verification.
type AgentKey struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	ServerID  int64      `gorm:"not null;index:idx_agent_keys_server" json:"server_id"`
	KeyHash   string     `gorm:"size:255;not null" json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at,omitempty"`
}

func (k *AgentKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	return nil
}

func (k *AgentKey) IsRevoked() bool { return k.RevokedAt != nil }
