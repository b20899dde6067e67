//go:build integration

package testhelper

import (
	"context"
	"testing"

	"esn-monitor/backend/app/db"

	"github.com/testcontainers/testcontainers-go"
	mysqlcontainer "github.com/testcontainers/testcontainers-go/modules/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type TestMySQL struct {
	DB        *gorm.DB
	Container testcontainers.Container
}

func SetupTestMySQL(t *testing.T) *TestMySQL {
	ctx := context.Background()

	container, err := mysqlcontainer.Run(ctx, "mysql:8.0.36",
		mysqlcontainer.WithDatabase("esn"),
		mysqlcontainer.WithUsername("esn"),
		mysqlcontainer.WithPassword("esn"),
	)
	if err != nil {
		t.Fatalf("Failed to start MySQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "charset=utf8mb4", "parseTime=True", "loc=UTC")
	if err != nil {
		t.Fatalf("Failed to get MySQL connection string: %v", err)
	}

	gdb, err := db.Open(mysql.Open(dsn))
	if err != nil {
		t.Fatalf("open mysql: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &TestMySQL{DB: gdb, Container: container}
}
