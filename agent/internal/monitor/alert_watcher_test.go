package monitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	dir := t.TempDir()

	p, err := Resolve(dir, "disk.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "disk.json"), p)

	for _, name := range []string{"", ".", "..", "../x.json", "a/b.json", `a\b.json`, "/etc/passwd"} {
		_, err := Resolve(dir, name)
		assert.ErrorIs(t, err, ErrOutsideDir, name)
	}
}

func TestAlertWatcher(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`x`), 0o644))

	w, err := NewAlertWatcher(dir, 50*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	existing, err := w.Existing()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(w.Dir(), "old.json")}, existing)

	events := w.Events()
	fresh := filepath.Join(w.Dir(), "fresh.json")
	require.NoError(t, os.WriteFile(fresh, []byte(`{"severity":"Minor","alert":"x"}`), 0o644))

	ev := next(t, events)
	assert.Equal(t, ActionReady, ev.Action)
	assert.Equal(t, fresh, ev.Path)

	require.NoError(t, os.Remove(fresh))
	ev = next(t, events)
	assert.Equal(t, ActionRemove, ev.Action)
	assert.Equal(t, fresh, ev.Path)

	require.NoError(t, w.Close())
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func next(t *testing.T, ch <-chan FileEvent) FileEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "events closed")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for alert event")
	}
	return FileEvent{}
}
