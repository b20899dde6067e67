package repo

import (
	"context"

	"esn-monitor/backend/app/models"

	"gorm.io/gorm"
)

type AlertRepository struct{ db *gorm.DB }

func NewAlertRepository(db *gorm.DB) *AlertRepository { return &AlertRepository{db: db} }

func (r *AlertRepository) CreateBatch(ctx context.Context, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&alerts).Error
}

func (r *AlertRepository) ActiveByServer(ctx context.Context, serverID int64) ([]models.Alert, error) {
	var out []models.Alert
	err := r.db.WithContext(ctx).
		Where("server_id = ? AND active = ?", serverID, true).
		Order("timestamp DESC, id DESC").Find(&out).Error
	return out, err
}
