package repo

import (
	"context"
	"time"

	"esn-monitor/backend/app/models"

	"gorm.io/gorm"
)

type AgentKeyRepository struct{ db *gorm.DB }

func NewAgentKeyRepository(db *gorm.DB) *AgentKeyRepository { return &AgentKeyRepository{db: db} }

// ListActive returns every non-revoked key in insertion order.
func (r *AgentKeyRepository) ListActive(ctx context.Context) ([]models.AgentKey, error) {
	var out []models.AgentKey
	err := r.db.WithContext(ctx).Where("revoked_at IS NULL").Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *AgentKeyRepository) ListByServer(ctx context.Context, serverID int64) ([]models.AgentKey, error) {
	var out []models.AgentKey
	err := r.db.WithContext(ctx).Where("server_id = ?", serverID).Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *AgentKeyRepository) Create(ctx context.Context, k *models.AgentKey) error {
	return r.db.WithContext(ctx).Create(k).Error
}

func (r *AgentKeyRepository) FindByID(ctx context.Context, id string) (*models.AgentKey, error) {
	var k models.AgentKey
	if err := r.db.WithContext(ctx).First(&k, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &k, nil
}

// Revoke stamps revoked_at on an active key. Revoking twice is a no-op.
func (r *AgentKeyRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.AgentKey{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at).Error
}
