package repo

import (
	"context"
	"time"

	"esn-monitor/backend/app/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServerRepository struct{ db *gorm.DB }

func NewServerRepository(db *gorm.DB) *ServerRepository { return &ServerRepository{db: db} }

func (r *ServerRepository) FindByID(ctx context.Context, id int64) (*models.Server, error) {
	var s models.Server
	if err := r.db.WithContext(ctx).Preload("Region").First(&s, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *ServerRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Server{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *ServerRepository) ListAll(ctx context.Context) ([]models.Server, error) {
	var out []models.Server
	err := r.db.WithContext(ctx).Preload("Region").Order("id ASC").Find(&out).Error
	return out, err
}

// UpdateStatus applies the reported fields to an existing server. It never
// creates a row; ErrNotFound is returned when the id is unknown.
func (r *ServerRepository) UpdateStatus(ctx context.Context, id int64, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Server{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero affected rows when values are unchanged.
		ok, err := r.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
	}
	return nil
}

// CriticalServerIDs returns the ids of servers holding at least one active
// Critical alert.
func (r *ServerRepository) CriticalServerIDs(ctx context.Context) (map[int64]bool, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&models.Alert{}).
		Where("active = ? AND severity = ?", true, models.SeverityCritical).
		Distinct("server_id").Pluck("server_id", &ids).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// EnsureRegion returns the region with the given name, creating it if needed.
func (r *ServerRepository) EnsureRegion(ctx context.Context, name string) (*models.Region, error) {
	var reg models.Region
	err := r.db.WithContext(ctx).Where(models.Region{Name: name}).FirstOrCreate(&reg).Error
	return &reg, err
}

// EnsureServer inserts a minimal server row if id is not taken yet.
func (r *ServerRepository) EnsureServer(ctx context.Context, s *models.Server) error {
	now := time.Now().UTC()
	if s.LastUpdate == nil {
		s.LastUpdate = &now
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(s).Error
}
