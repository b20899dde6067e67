package agentkey

import (
	"context"
	"errors"
	"strings"
	"testing"

	"esn-monitor/backend/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLister struct{ mock.Mock }

func (m *mockLister) ListActive(ctx context.Context) ([]models.AgentKey, error) {
	args := m.Called(ctx)
	keys, _ := args.Get(0).([]models.AgentKey)
	return keys, args.Error(1)
}

func listing(keys ...models.AgentKey) *mockLister {
	m := &mockLister{}
	m.On("ListActive", mock.Anything).Return(keys, nil)
	return m
}

func TestVerify_EmptyIsRejectedWithoutStore(t *testing.T) {
	m := &mockLister{}
	v := NewVerifier([]string{"agent-key-1"}, m)

	res, err := v.Verify(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, Rejected, res.Outcome)
	m.AssertNotCalled(t, "ListActive", mock.Anything)
}

func TestVerify_DevKeySkipsStore(t *testing.T) {
	m := &mockLister{}
	v := NewVerifier([]string{" agent-key-1 ", "", "agent-key-2"}, m)

	for _, k := range []string{"agent-key-1", "agent-key-2"} {
		res, err := v.Verify(context.Background(), k)
		require.NoError(t, err)
		assert.Equal(t, AuthorizedDevKey, res.Outcome)
		assert.Empty(t, res.KeyID)
	}
	m.AssertNotCalled(t, "ListActive", mock.Anything)
}

func TestVerify_DevKeysAreCopied(t *testing.T) {
	keys := []string{"agent-key-1"}
	v := NewVerifier(keys, listing())
	keys[0] = "changed"

	res, err := v.Verify(context.Background(), "agent-key-1")
	require.NoError(t, err)
	assert.Equal(t, AuthorizedDevKey, res.Outcome)
}

func TestVerify_StoredShapes(t *testing.T) {
	token := "tok-123"
	digest := Digest(token)

	tests := []struct {
		name   string
		stored string
		kind   HashKind
	}{
		{"colon prefixed", "sha256:" + digest, Prefixed},
		{"dollar prefixed", "sha256$" + digest, Prefixed},
		{"bare hex", digest, BareHex},
		{"bare hex uppercase", strings.ToUpper(digest), BareHex},
		{"legacy plaintext", token, Plain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVerifier(nil, listing(models.AgentKey{ID: "k1", ServerID: 7, KeyHash: tt.stored}))
			res, err := v.Verify(context.Background(), token)
			require.NoError(t, err)
			assert.Equal(t, AuthorizedStored, res.Outcome)
			assert.Equal(t, "k1", res.KeyID)
			assert.Equal(t, int64(7), res.ServerID)
			assert.Equal(t, tt.kind, res.Kind)
		})
	}
}

func TestVerify_PrefixedValueIsCaseSensitive(t *testing.T) {
	token := "tok-123"
	stored := "sha256:" + strings.ToUpper(Digest(token))
	v := NewVerifier(nil, listing(models.AgentKey{ID: "k1", KeyHash: stored}))

	res, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, Rejected, res.Outcome)
}

func TestVerify_RecordEqualToTokenMatches(t *testing.T) {
	// A token that itself looks like a hash still matches its own plaintext record.
	token := "sha256:not-a-digest"
	v := NewVerifier(nil, listing(models.AgentKey{ID: "k1", KeyHash: token}))

	res, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, AuthorizedStored, res.Outcome)
}

func TestVerify_FirstMatchWins(t *testing.T) {
	token := "dup"
	v := NewVerifier(nil, listing(
		models.AgentKey{ID: "other", ServerID: 1, KeyHash: HashForStorage("nope")},
		models.AgentKey{ID: "first", ServerID: 2, KeyHash: HashForStorage(token)},
		models.AgentKey{ID: "second", ServerID: 3, KeyHash: HashForStorage(token)},
	))

	res, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "first", res.KeyID)
	assert.Equal(t, int64(2), res.ServerID)
}

func TestVerify_UnknownTokenRejected(t *testing.T) {
	v := NewVerifier([]string{"agent-key-1"}, listing(models.AgentKey{ID: "k1", KeyHash: HashForStorage("real")}))

	res, err := v.Verify(context.Background(), "guess")
	require.NoError(t, err)
	assert.False(t, res.Outcome.Authorized())
	assert.Equal(t, "rejected", res.Outcome.String())
}

func TestVerify_StoreFailureIsRejection(t *testing.T) {
	m := &mockLister{}
	boom := errors.New("connection refused")
	m.On("ListActive", mock.Anything).Return(nil, boom)
	v := NewVerifier(nil, m)

	res, err := v.Verify(context.Background(), "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Rejected, res.Outcome)
}
