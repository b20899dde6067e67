package models

import "time"

const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

type AdminUser struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;size:191;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:32;not null;default:'viewer';index:idx_admin_role"`
	CreatedAt    time.Time
	LastLogin    *time.Time
}

func (AdminUser) TableName() string { return "admin_users" }

// All lists every model managed by AutoMigrate, parents first.
func All() []any {
	return []any{&Region{}, &Server{}, &AgentKey{}, &Alert{}, &Command{}, &CommandResult{}, &AdminUser{}}
}
