package services_test

import (
	"context"
	"strings"
	"testing"

	"esn-monitor/backend/app/services"
	"esn-monitor/backend/testhelper"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyService_SeedBootstrapsServer(t *testing.T) {
	f := newFixture(t)
	keys := services.NewKeyService(f.keys, f.servers, zerolog.Nop())
	ctx := context.Background()

	issued, err := keys.Seed(ctx, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.Equal(t, int64(1), issued.ServerID)

	srv, err := f.servers.FindByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, srv.Region)
	assert.Equal(t, "test", srv.Region.Name)
	assert.Equal(t, "127.0.0.1", srv.IP)
	assert.Equal(t, "unknown", srv.CGMVersion)

	// the seeded token authenticates, and seeding again adds a second key
	_, err = f.gateway.PollCommands(ctx, issued.Token, 1)
	require.NoError(t, err)

	again, err := keys.Seed(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, issued.Token, again.Token)

	list, err := keys.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, k := range list {
		assert.True(t, strings.HasPrefix(k.HashPreview, "sha256:"))
		assert.True(t, strings.HasSuffix(k.HashPreview, "..."))
		assert.NotContains(t, k.HashPreview, issued.Token)
	}
}

func TestKeyService_IssueRequiresServer(t *testing.T) {
	f := newFixture(t)
	keys := services.NewKeyService(f.keys, f.servers, zerolog.Nop())

	_, err := keys.Issue(context.Background(), 9)
	assert.ErrorIs(t, err, services.ErrNotFound)

	testhelper.SeedServer(t, f.db, 9, "")
	issued, err := keys.Issue(context.Background(), 9)
	require.NoError(t, err)
	assert.Len(t, issued.Token, 43)
}

func TestKeyService_RevokeStopsAuthentication(t *testing.T) {
	f := newFixture(t)
	testhelper.SeedServer(t, f.db, 1, "")
	keys := services.NewKeyService(f.keys, f.servers, zerolog.Nop())
	ctx := context.Background()

	issued, err := keys.Issue(ctx, 1)
	require.NoError(t, err)
	_, err = f.gateway.PollCommands(ctx, issued.Token, 1)
	require.NoError(t, err)

	require.NoError(t, keys.Revoke(ctx, issued.ID))

	_, err = f.gateway.PollCommands(ctx, issued.Token, 1)
	assert.ErrorIs(t, err, services.ErrUnauthorized)

	list, err := keys.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotNil(t, list[0].RevokedAt)

	assert.ErrorIs(t, keys.Revoke(ctx, "no-such-key"), services.ErrNotFound)
}
