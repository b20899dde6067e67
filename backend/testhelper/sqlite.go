package testhelper

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"esn-monitor/backend/app/db"
	"esn-monitor/backend/app/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_]`)

// SetupSQLite opens a migrated in-memory database private to t.
func SetupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	name := unsafeName.ReplaceAllString(t.Name(), "_")
	dsn := db.SQLiteDSN(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))

	gdb, err := db.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

// SeedServer inserts a server row (and its region when name is non-empty).
func SeedServer(t *testing.T, gdb *gorm.DB, id int64, region string) *models.Server {
	t.Helper()
	srv := &models.Server{ID: id, IP: "10.0.0.1", CGMVersion: "1.0", AdminVersion: "1.0"}
	if region != "" {
		reg := &models.Region{Name: region}
		if err := gdb.WithContext(context.Background()).Create(reg).Error; err != nil {
			t.Fatalf("seed region: %v", err)
		}
		srv.RegionID = &reg.ID
	}
	now := time.Now().UTC()
	srv.LastUpdate = &now
	if err := gdb.Create(srv).Error; err != nil {
		t.Fatalf("seed server %d: %v", id, err)
	}
	return srv
}
