package services

import (
	"context"
	"encoding/json"
	"time"

	"esn-monitor/backend/app/metrics"
	"esn-monitor/backend/app/models"
	"esn-monitor/backend/app/notify"
	"esn-monitor/backend/app/repo"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
)

// EnqueueRequest describes a command to queue. A zero TTL leaves ttl_until
// unset.
type EnqueueRequest struct {
	ServerID int64
	Type     models.CommandType
	Payload  json.RawMessage
	TTL      time.Duration
}

// PendingCommand is the agent-facing view of a queued command.
type PendingCommand struct {
	ID      int64              `json:"id"`
	Type    models.CommandType `json:"type"`
	Payload datatypes.JSON     `json:"payload"`
}

// CommandDetail is a command together with every result reported for it.
type CommandDetail struct {
	models.Command
	Results []models.CommandResult `json:"results"`
}

type CommandQueue struct {
	commands  *repo.CommandRepository
	servers   *repo.ServerRepository
	publisher notify.Publisher
	log       zerolog.Logger
	now       func() time.Time
}

func NewCommandQueue(commands *repo.CommandRepository, servers *repo.ServerRepository, publisher notify.Publisher, log zerolog.Logger) *CommandQueue {
	if publisher == nil {
		publisher = notify.Noop{}
	}
	return &CommandQueue{
		commands:  commands,
		servers:   servers,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// MaxCommandTTL bounds the ttl accepted for a queued command.
const MaxCommandTTL = 365 * 24 * time.Hour

// TTLFromSeconds converts a ttl_seconds request field, rejecting values
// outside [0, MaxCommandTTL] before they can overflow a Duration.
func TTLFromSeconds(secs int) (time.Duration, error) {
	if secs < 0 {
		return 0, validationf("ttl must not be negative")
	}
	if int64(secs) > int64(MaxCommandTTL/time.Second) {
		return 0, validationf("ttl must not exceed %s", MaxCommandTTL)
	}
	return time.Duration(secs) * time.Second, nil
}

// Enqueue stores a new pending command for an existing server and announces
// it once committed.
func (q *CommandQueue) Enqueue(ctx context.Context, req EnqueueRequest) (*models.Command, error) {
	if !req.Type.Valid() {
		return nil, validationf("unknown command type %q", req.Type)
	}
	payload, err := normalizePayload(req.Payload)
	if err != nil {
		return nil, err
	}
	if req.TTL < 0 {
		return nil, validationf("ttl must not be negative")
	}
	if req.TTL > MaxCommandTTL {
		return nil, validationf("ttl must not exceed %s", MaxCommandTTL)
	}

	ok, err := q.servers.Exists(ctx, req.ServerID)
	if err != nil {
		return nil, storeErr("enqueue", err)
	}
	if !ok {
		return nil, storeErr("enqueue", repo.ErrNotFound)
	}

	corr := uuid.NewString()
	cmd := &models.Command{
		ServerID:      req.ServerID,
		Type:          req.Type,
		Payload:       payload,
		Status:        models.CommandPending,
		CreatedAt:     q.now(),
		CorrelationID: &corr,
	}
	if req.TTL > 0 {
		until := cmd.CreatedAt.Add(req.TTL)
		cmd.TTLUntil = &until
	}
	if err := q.commands.Create(ctx, cmd); err != nil {
		return nil, storeErr("enqueue", err)
	}
	metrics.CommandsEnqueued.WithLabelValues(string(cmd.Type)).Inc()

	ev := notify.Event{CommandID: cmd.ID, ServerID: cmd.ServerID, Type: string(cmd.Type), CorrelationID: corr, CreatedAt: cmd.CreatedAt}
	if err := q.publisher.CommandQueued(ctx, ev); err != nil {
		q.log.Warn().Err(err).Int64("command_id", cmd.ID).Msg("publish command event failed")
	}
	return cmd, nil
}

func normalizePayload(raw json.RawMessage) (datatypes.JSON, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return datatypes.JSON("{}"), nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, validationf("payload must be a JSON object")
	}
	return datatypes.JSON(raw), nil
}

// ListPending returns the server's pending commands, oldest first. Expired
// TTLs are not filtered.
func (q *CommandQueue) ListPending(ctx context.Context, serverID int64) ([]PendingCommand, error) {
	cmds, err := q.commands.ListByServer(ctx, serverID, models.CommandPending)
	if err != nil {
		return nil, storeErr("list pending", err)
	}
	out := make([]PendingCommand, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, PendingCommand{ID: c.ID, Type: c.Type, Payload: c.Payload})
	}
	return out, nil
}

// List is the admin view of a server's queue, optionally filtered by status.
func (q *CommandQueue) List(ctx context.Context, serverID int64, status models.CommandStatus) ([]models.Command, error) {
	if status != "" && !status.Valid() {
		return nil, validationf("unknown command status %q", status)
	}
	cmds, err := q.commands.ListByServer(ctx, serverID, status)
	return cmds, storeErr("list commands", err)
}

func (q *CommandQueue) Get(ctx context.Context, id int64) (*CommandDetail, error) {
	cmd, err := q.commands.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("get command", err)
	}
	results, err := q.commands.ListResults(ctx, id)
	if err != nil {
		return nil, storeErr("get command", err)
	}
	return &CommandDetail{Command: *cmd, Results: results}, nil
}

// RecordResult appends a result and applies the matching transition in one
// transaction. success moves the command to done and stamps executed_at with
// the result time; failed moves it to failed; other statuses only append.
// Terminal commands are not protected: the last report wins.
func (q *CommandQueue) RecordResult(ctx context.Context, commandID int64, status string, message *string) (*models.CommandResult, error) {
	if status == "" {
		return nil, validationf("status is required")
	}
	res := &models.CommandResult{CommandID: commandID, Status: status, Message: message}
	err := q.commands.Transaction(ctx, func(tx *repo.CommandRepository) error {
		if _, err := tx.FindByID(ctx, commandID); err != nil {
			return err
		}
		res.CreatedAt = q.now()
		if err := tx.CreateResult(ctx, res); err != nil {
			return err
		}
		switch status {
		case models.ResultSuccess:
			executed := res.CreatedAt
			return tx.UpdateStatus(ctx, commandID, models.CommandDone, &executed)
		case models.ResultFailed:
			return tx.UpdateStatus(ctx, commandID, models.CommandFailed, nil)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("record result", err)
	}
	metrics.CommandResults.WithLabelValues(status).Inc()

	if _, err := q.commands.FindByID(ctx, commandID); err != nil {
		q.log.Warn().Err(err).Int64("command_id", commandID).Msg("refresh command after result failed")
	}
	return res, nil
}
