package db

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store is the agent's local state in SQLite.
type Store struct{ db *gorm.DB }

func Init(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return Open(sqlite.Open(path))
}

func Open(d gorm.Dialector) (*Store, error) {
	gdb, err := gorm.Open(d, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	if err := gdb.AutoMigrate(&ReportedAlert{}, &ExecutedCommand{}); err != nil {
		return nil, err
	}
	return &Store{db: gdb}, nil
}

func (s *Store) AlertReported(path string) (bool, error) {
	var n int64
	err := s.db.Model(&ReportedAlert{}).Where("path = ?", path).Count(&n).Error
	return n > 0, err
}

func (s *Store) MarkAlertReported(path, severity string) error {
	rec := ReportedAlert{Path: path, Severity: severity, ReportedAt: time.Now().UTC()}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"severity", "reported_at"}),
	}).Create(&rec).Error
}

// ForgetAlert drops the record so a file recreated under the same name is
// reported again.
func (s *Store) ForgetAlert(path string) error {
	return s.db.Where("path = ?", path).Delete(&ReportedAlert{}).Error
}

// SaveExecution stores a command outcome before it is reported.
func (s *Store) SaveExecution(commandID int64, status, message string) error {
	rec := ExecutedCommand{CommandID: commandID, Status: status, Message: message, ExecutedAt: time.Now().UTC()}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "command_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "message", "executed_at", "delivered"}),
	}).Create(&rec).Error
}

func (s *Store) Execution(commandID int64) (*ExecutedCommand, error) {
	var rec ExecutedCommand
	err := s.db.Where("command_id = ?", commandID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &rec, err
}

func (s *Store) MarkDelivered(commandID int64) error {
	return s.db.Model(&ExecutedCommand{}).Where("command_id = ?", commandID).Update("delivered", true).Error
}
