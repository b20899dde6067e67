package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"esn-monitor/backend/app/models"
	"esn-monitor/backend/app/services"
	"esn-monitor/backend/testhelper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueue_StoresPendingAndPublishes(t *testing.T) {
	f := newFixture(t)
	testhelper.SeedServer(t, f.db, 1, "")
	ctx := context.Background()

	cmd, err := f.queue.Enqueue(ctx, services.EnqueueRequest{
		ServerID: 1,
		Type:     models.CommandDeleteAlert,
		Payload:  json.RawMessage(`{"filename":"disk.json"}`),
		TTL:      time.Minute,
	})
	require.NoError(t, err)
	assert.NotZero(t, cmd.ID)
	assert.Equal(t, models.CommandPending, cmd.Status)
	require.NotNil(t, cmd.CorrelationID)
	require.NotNil(t, cmd.TTLUntil)
	assert.Equal(t, cmd.CreatedAt.Add(time.Minute), *cmd.TTLUntil)
	assert.Nil(t, cmd.ExecutedAt)

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, cmd.ID, f.pub.events[0].CommandID)
	assert.Equal(t, "DELETE_ALERT", f.pub.events[0].Type)
	assert.Equal(t, *cmd.CorrelationID, f.pub.events[0].CorrelationID)

	pending, err := f.queue.ListPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.JSONEq(t, `{"filename":"disk.json"}`, string(pending[0].Payload))
}

func TestEnqueue_DefaultsPayloadToEmptyObject(t *testing.T) {
	f := newFixture(t)
	testhelper.SeedServer(t, f.db, 1, "")

	for _, raw := range []json.RawMessage{nil, json.RawMessage("null")} {
		cmd, err := f.queue.Enqueue(context.Background(), services.EnqueueRequest{ServerID: 1, Type: models.CommandCustom, Payload: raw})
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(cmd.Payload))
		assert.Nil(t, cmd.TTLUntil)
	}
}

func TestEnqueue_Validation(t *testing.T) {
	f := newFixture(t)
	testhelper.SeedServer(t, f.db, 1, "")

	tests := []struct {
		name string
		req  services.EnqueueRequest
	}{
		{"unknown type", services.EnqueueRequest{ServerID: 1, Type: "REBOOT"}},
		{"array payload", services.EnqueueRequest{ServerID: 1, Type: models.CommandCustom, Payload: json.RawMessage(`[1]`)}},
		{"string payload", services.EnqueueRequest{ServerID: 1, Type: models.CommandCustom, Payload: json.RawMessage(`"x"`)}},
		{"negative ttl", services.EnqueueRequest{ServerID: 1, Type: models.CommandCustom, TTL: -time.Second}},
		{"ttl over a year", services.EnqueueRequest{ServerID: 1, Type: models.CommandCustom, TTL: services.MaxCommandTTL + time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.queue.Enqueue(context.Background(), tt.req)
			assert.ErrorIs(t, err, services.ErrValidation)
		})
	}
	all, err := f.queue.List(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, f.pub.events)
}

func TestTTLFromSeconds(t *testing.T) {
	ttl, err := services.TTLFromSeconds(0)
	require.NoError(t, err)
	assert.Zero(t, ttl)

	ttl, err = services.TTLFromSeconds(90)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, ttl)

	ttl, err = services.TTLFromSeconds(int(services.MaxCommandTTL / time.Second))
	require.NoError(t, err)
	assert.Equal(t, services.MaxCommandTTL, ttl)

	for _, secs := range []int{-1, int(services.MaxCommandTTL/time.Second) + 1, math.MaxInt} {
		_, err = services.TTLFromSeconds(secs)
		assert.ErrorIs(t, err, services.ErrValidation, secs)
	}
}

func TestEnqueue_UnknownServerCreatesNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.queue.Enqueue(context.Background(), services.EnqueueRequest{ServerID: 42, Type: models.CommandCustom})
	assert.ErrorIs(t, err, services.ErrNotFound)

	var count int64
	require.NoError(t, f.db.Model(&models.Command{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, f.pub.events)
}

func TestEnqueue_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	testhelper.SeedServer(t, f.db, 1, "")
	f.pub.err = errors.New("redis down")

	cmd, err := f.queue.Enqueue(context.Background(), services.EnqueueRequest{ServerID: 1, Type: models.CommandCustom})
	require.NoError(t, err)
	_, err = f.queue.Get(context.Background(), cmd.ID)
	assert.NoError(t, err)
}

func TestListPending_OnlyPendingForServer(t *testing.T) {
	f := newFixture(t)
	testhelper.SeedServer(t, f.db, 1, "")
	testhelper.SeedServer(t, f.db, 2, "")
	ctx := context.Background()

	first, err := f.queue.Enqueue(ctx, services.EnqueueRequest{ServerID: 1, Type: models.CommandCustom, Payload: json.RawMessage(`{"n":1}`)})
	require.NoError(t, err)
	second, err := f.queue.Enqueue(ctx, services.EnqueueRequest{ServerID: 1, Type: models.CommandCustom, Payload: json.RawMessage(`{"n":2}`)})
	require.NoError(t, err)
	_, err = f.queue.Enqueue(ctx, services.EnqueueRequest{ServerID: 2, Type: models.CommandCustom})
	require.NoError(t, err)

	_, err = f.queue.RecordResult(ctx, first.ID, models.ResultSuccess, nil)
	require.NoError(t, err)

	pending, err := f.queue.ListPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	none, err := f.queue.ListPending(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecordResult_Transitions(t *testing.T) {
	f := newFixture(t)
	testhelper.SeedServer(t, f.db, 1, "")
	ctx := context.Background()

	enqueue := func() *models.Command {
		c, err := f.queue.Enqueue(ctx, services.EnqueueRequest{ServerID: 1, Type: models.CommandCustom})
		require.NoError(t, err)
		return c
	}

	t.Run("success marks done with executed_at", func(t *testing.T) {
		c := enqueue()
		res, err := f.queue.RecordResult(ctx, c.ID, "success", strPtr("ok"))
		require.NoError(t, err)
		assert.NotZero(t, res.ID)

		d, err := f.queue.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CommandDone, d.Status)
		require.NotNil(t, d.ExecutedAt)
		assert.WithinDuration(t, res.CreatedAt, *d.ExecutedAt, time.Second)
		require.Len(t, d.Results, 1)
		assert.Equal(t, "ok", *d.Results[0].Message)
	})

	t.Run("failed marks failed without executed_at", func(t *testing.T) {
		c := enqueue()
		_, err := f.queue.RecordResult(ctx, c.ID, "failed", strPtr("boom"))
		require.NoError(t, err)

		d, err := f.queue.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CommandFailed, d.Status)
		assert.Nil(t, d.ExecutedAt)
	})

	t.Run("other statuses only append", func(t *testing.T) {
		c := enqueue()
		_, err := f.queue.RecordResult(ctx, c.ID, "progress", nil)
		require.NoError(t, err)

		d, err := f.queue.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CommandPending, d.Status)
		assert.Len(t, d.Results, 1)
	})

	t.Run("last report wins", func(t *testing.T) {
		c := enqueue()
		_, err := f.queue.RecordResult(ctx, c.ID, "success", nil)
		require.NoError(t, err)
		_, err = f.queue.RecordResult(ctx, c.ID, "failed", nil)
		require.NoError(t, err)

		d, err := f.queue.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CommandFailed, d.Status)
		assert.Len(t, d.Results, 2)
	})
}

func TestRecordResult_Errors(t *testing.T) {
	f := newFixture(t)
	testhelper.SeedServer(t, f.db, 1, "")
	ctx := context.Background()

	_, err := f.queue.RecordResult(ctx, 12345, "success", nil)
	assert.ErrorIs(t, err, services.ErrNotFound)

	var count int64
	require.NoError(t, f.db.Model(&models.CommandResult{}).Count(&count).Error)
	assert.Zero(t, count)

	_, err = f.queue.RecordResult(ctx, 1, "", nil)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestRecordResult_RollsBackOnStatusFailure(t *testing.T) {
	f := newFixture(t)
	testhelper.SeedServer(t, f.db, 1, "")
	ctx := context.Background()

	c, err := f.queue.Enqueue(ctx, services.EnqueueRequest{ServerID: 1, Type: models.CommandCustom})
	require.NoError(t, err)

	failOn(t, f.db, "command_queue", errInjected)

	_, err = f.queue.RecordResult(ctx, c.ID, "success", nil)
	assert.ErrorIs(t, err, services.ErrStore)

	d, err := f.queue.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommandPending, d.Status)
	assert.Empty(t, d.Results)
}

func TestList_FiltersAndValidatesStatus(t *testing.T) {
	f := newFixture(t)
	testhelper.SeedServer(t, f.db, 1, "")
	ctx := context.Background()

	a, err := f.queue.Enqueue(ctx, services.EnqueueRequest{ServerID: 1, Type: models.CommandCustom})
	require.NoError(t, err)
	_, err = f.queue.Enqueue(ctx, services.EnqueueRequest{ServerID: 1, Type: models.CommandCustom})
	require.NoError(t, err)
	_, err = f.queue.RecordResult(ctx, a.ID, "failed", nil)
	require.NoError(t, err)

	failed, err := f.queue.List(ctx, 1, models.CommandFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, a.ID, failed[0].ID)

	all, err := f.queue.List(ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.queue.List(ctx, 1, "bogus")
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = f.queue.Get(ctx, 999)
	assert.ErrorIs(t, err, services.ErrNotFound)
}
