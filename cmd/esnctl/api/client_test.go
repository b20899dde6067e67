package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_LogsInOnceAndSendsBearer(t *testing.T) {
	var logins atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/admin/auth/login":
			logins.Add(1)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body["password"] != "pw" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer"}`))
		case "/api/v1/admin/servers":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`[{"id":1,"ip":"10.0.0.1","has_critical_alerts":true}]`))
		case "/api/v1/admin/alerts/a b.json":
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "2", r.URL.Query().Get("server_id"))
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"message":"Deletion command created","command_id":11}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin", "pw")
	ctx := context.Background()

	servers, err := c.ListServers(ctx)
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.True(t, servers[0].HasCriticalAlerts)

	q, err := c.DeleteAlert(ctx, 2, "a b.json")
	require.NoError(t, err)
	assert.Equal(t, int64(11), q.CommandID)
	assert.Equal(t, int32(1), logins.Load())

	_, err = c.GetCommand(ctx, 99)
	assert.ErrorContains(t, err, "404 not found")

	c.SetCredentials(srv.URL, "admin", "bad")
	_, err = c.ListServers(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorContains(t, err, "invalid credentials")
}
