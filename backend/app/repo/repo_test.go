package repo_test

import (
	"context"
	"testing"
	"time"

	"esn-monitor/backend/app/models"
	"esn-monitor/backend/app/repo"
	"esn-monitor/backend/testhelper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestServerRepository_UpdateStatus(t *testing.T) {
	gdb := testhelper.SetupSQLite(t)
	testhelper.SeedServer(t, gdb, 1, "eu")
	servers := repo.NewServerRepository(gdb)
	ctx := context.Background()

	err := servers.UpdateStatus(ctx, 1, map[string]any{"ip": "10.1.1.1", "last_status": datatypes.JSON(`{"ok":true}`)})
	require.NoError(t, err)

	srv, err := servers.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "10.1.1.1", srv.IP)
	assert.JSONEq(t, `{"ok":true}`, string(srv.LastStatus))
	require.NotNil(t, srv.Region)
	assert.Equal(t, "eu", srv.Region.Name)

	// unchanged values still succeed
	require.NoError(t, servers.UpdateStatus(ctx, 1, map[string]any{"ip": "10.1.1.1"}))

	err = servers.UpdateStatus(ctx, 99, map[string]any{"ip": "10.9.9.9"})
	assert.ErrorIs(t, err, repo.ErrNotFound)
	ok, err := servers.Exists(ctx, 99)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestServerRepository_CriticalServerIDs(t *testing.T) {
	gdb := testhelper.SetupSQLite(t)
	testhelper.SeedServer(t, gdb, 1, "")
	testhelper.SeedServer(t, gdb, 2, "")
	testhelper.SeedServer(t, gdb, 3, "")
	alerts := repo.NewAlertRepository(gdb)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, alerts.CreateBatch(ctx, []models.Alert{
		{ServerID: 1, Severity: models.SeverityCritical, AlertText: "down", Timestamp: now, Active: true},
		{ServerID: 1, Severity: models.SeverityCritical, AlertText: "still down", Timestamp: now, Active: true},
		{ServerID: 2, Severity: models.SeverityMajor, AlertText: "slow", Timestamp: now, Active: true},
	}))
	require.NoError(t, gdb.Create(&models.Alert{ServerID: 3, Severity: models.SeverityCritical, AlertText: "old", Timestamp: now}).Error)
	require.NoError(t, gdb.Model(&models.Alert{}).Where("server_id = ?", 3).Update("active", false).Error)

	ids, err := repo.NewServerRepository(gdb).CriticalServerIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{1: true}, ids)
}

func TestServerRepository_EnsureIsIdempotent(t *testing.T) {
	gdb := testhelper.SetupSQLite(t)
	servers := repo.NewServerRepository(gdb)
	ctx := context.Background()

	r1, err := servers.EnsureRegion(ctx, "test")
	require.NoError(t, err)
	r2, err := servers.EnsureRegion(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, r1.ID, r2.ID)

	require.NoError(t, servers.EnsureServer(ctx, &models.Server{ID: 5, RegionID: &r1.ID, IP: "127.0.0.1"}))
	require.NoError(t, servers.EnsureServer(ctx, &models.Server{ID: 5, RegionID: &r1.ID, IP: "10.0.0.5"}))

	srv, err := servers.FindByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", srv.IP)
}

func TestCommandRepository_ListOrderAndFilter(t *testing.T) {
	gdb := testhelper.SetupSQLite(t)
	testhelper.SeedServer(t, gdb, 1, "")
	commands := repo.NewCommandRepository(gdb)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mk := func(at time.Time, status models.CommandStatus) *models.Command {
		c := &models.Command{ServerID: 1, Type: models.CommandCustom, Payload: datatypes.JSON(`{}`), Status: status, CreatedAt: at}
		require.NoError(t, commands.Create(ctx, c))
		return c
	}
	late := mk(base.Add(time.Minute), models.CommandPending)
	early := mk(base, models.CommandPending)
	tie := mk(base, models.CommandPending)
	mk(base, models.CommandDone)

	pending, err := commands.ListByServer(ctx, 1, models.CommandPending)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, []int64{early.ID, tie.ID, late.ID}, []int64{pending[0].ID, pending[1].ID, pending[2].ID})

	all, err := commands.ListByServer(ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	none, err := commands.ListByServer(ctx, 2, "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCommandRepository_TransactionRollsBack(t *testing.T) {
	gdb := testhelper.SetupSQLite(t)
	testhelper.SeedServer(t, gdb, 1, "")
	commands := repo.NewCommandRepository(gdb)
	ctx := context.Background()

	cmd := &models.Command{ServerID: 1, Type: models.CommandCustom, Payload: datatypes.JSON(`{}`), Status: models.CommandPending, CreatedAt: time.Now().UTC()}
	require.NoError(t, commands.Create(ctx, cmd))

	err := commands.Transaction(ctx, func(tx *repo.CommandRepository) error {
		if err := tx.CreateResult(ctx, &models.CommandResult{CommandID: cmd.ID, Status: "success", CreatedAt: time.Now().UTC()}); err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, cmd.ID, models.CommandDone, nil); err != nil {
			return err
		}
		_, err := tx.FindByID(ctx, cmd.ID+100)
		return err
	})
	assert.ErrorIs(t, err, repo.ErrNotFound)

	results, err := commands.ListResults(ctx, cmd.ID)
	require.NoError(t, err)
	assert.Empty(t, results)
	got, err := commands.FindByID(ctx, cmd.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommandPending, got.Status)
}

func TestAgentKeyRepository_RevokeHidesKey(t *testing.T) {
	gdb := testhelper.SetupSQLite(t)
	testhelper.SeedServer(t, gdb, 1, "")
	keys := repo.NewAgentKeyRepository(gdb)
	ctx := context.Background()

	a := &models.AgentKey{ServerID: 1, KeyHash: "sha256:aa", CreatedAt: time.Now().UTC().Add(-time.Minute)}
	b := &models.AgentKey{ServerID: 1, KeyHash: "sha256:aa", CreatedAt: time.Now().UTC()}
	require.NoError(t, keys.Create(ctx, a))
	require.NoError(t, keys.Create(ctx, b))
	assert.NotEmpty(t, a.ID)

	active, err := keys.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, a.ID, active[0].ID)

	at := time.Now().UTC()
	require.NoError(t, keys.Revoke(ctx, a.ID, at))
	require.NoError(t, keys.Revoke(ctx, a.ID, at.Add(time.Hour)))

	active, err = keys.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, b.ID, active[0].ID)

	got, err := keys.FindByID(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, got.IsRevoked())
	assert.WithinDuration(t, at, *got.RevokedAt, time.Second)

	assert.ErrorIs(t, keys.Revoke(ctx, "missing", at), repo.ErrNotFound)
}

func TestUserRepository(t *testing.T) {
	gdb := testhelper.SetupSQLite(t)
	users := repo.NewUserRepository(gdb)
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &models.AdminUser{Username: "root", PasswordHash: "x", Role: models.RoleAdmin}))
	n, err := users.CountByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = users.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	assert.Error(t, users.Create(ctx, &models.AdminUser{Username: "root", PasswordHash: "y", Role: models.RoleViewer}))
}
