package repo

import (
	"context"
	"time"

	"esn-monitor/backend/app/models"

	"gorm.io/gorm"
)

type CommandRepository struct{ db *gorm.DB }

func NewCommandRepository(db *gorm.DB) *CommandRepository { return &CommandRepository{db: db} }

// Transaction runs fn against a repository bound to a single database
// transaction. Returning an error from fn rolls everything back.
func (r *CommandRepository) Transaction(ctx context.Context, fn func(tx *CommandRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&CommandRepository{db: tx})
	})
}

func (r *CommandRepository) Create(ctx context.Context, cmd *models.Command) error {
	return r.db.WithContext(ctx).Create(cmd).Error
}

func (r *CommandRepository) FindByID(ctx context.Context, id int64) (*models.Command, error) {
	var c models.Command
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ListByServer returns the server's commands ordered by creation time then
// id. An empty status lists every state.
func (r *CommandRepository) ListByServer(ctx context.Context, serverID int64, status models.CommandStatus) ([]models.Command, error) {
	q := r.db.WithContext(ctx).Where("server_id = ?", serverID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.Command
	err := q.Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}

func (r *CommandRepository) CreateResult(ctx context.Context, res *models.CommandResult) error {
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *CommandRepository) ListResults(ctx context.Context, commandID int64) ([]models.CommandResult, error) {
	var out []models.CommandResult
	err := r.db.WithContext(ctx).Where("command_id = ?", commandID).Order("id ASC").Find(&out).Error
	return out, err
}

// UpdateStatus sets the status and, when executedAt is non-nil, executed_at.
func (r *CommandRepository) UpdateStatus(ctx context.Context, id int64, status models.CommandStatus, executedAt *time.Time) error {
	fields := map[string]any{"status": status}
	if executedAt != nil {
		fields["executed_at"] = *executedAt
	}
	return r.db.WithContext(ctx).Model(&models.Command{}).Where("id = ?", id).Updates(fields).Error
}
