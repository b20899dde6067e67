package services

import (
	"context"
	"encoding/json"
	"time"

	"esn-monitor/backend/app/agentkey"
	"esn-monitor/backend/app/metrics"
	"esn-monitor/backend/app/models"
	"esn-monitor/backend/app/repo"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
)

// StatusReport is a heartbeat from an agent. RawStatus is optional: nil
// leaves the stored last_status untouched.
type StatusReport struct {
	ServerID     int64
	RegionID     *uint
	IP           string
	CGMVersion   string
	AdminVersion string
	Timestamp    time.Time
	RawStatus    *json.RawMessage
}

type AlertItem struct {
	Severity   models.Severity
	Source     string
	Alert      string
	Counter    *int
	Stacktrace *string
	Timestamp  *time.Time
}

// Gateway is the agent-facing boundary. Every operation verifies the
// presented credential before touching the store.
type Gateway struct {
	verifier *agentkey.Verifier
	servers  *repo.ServerRepository
	alerts   *repo.AlertRepository
	queue    *CommandQueue
	log      zerolog.Logger
	now      func() time.Time
}

func NewGateway(verifier *agentkey.Verifier, servers *repo.ServerRepository, alerts *repo.AlertRepository, queue *CommandQueue, log zerolog.Logger) *Gateway {
	return &Gateway{
		verifier: verifier,
		servers:  servers,
		alerts:   alerts,
		queue:    queue,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (g *Gateway) authorize(ctx context.Context, credential string) error {
	if credential == "" {
		metrics.KeyVerifications.WithLabelValues("missing").Inc()
		return ErrUnauthorized
	}
	res, err := g.verifier.Verify(ctx, credential)
	if err != nil {
		metrics.KeyVerifications.WithLabelValues("error").Inc()
		g.log.Error().Err(err).Msg("agent key verification failed")
		return storeErr("verify agent key", err)
	}
	metrics.KeyVerifications.WithLabelValues(res.Outcome.String()).Inc()
	if !res.Outcome.Authorized() {
		return ErrUnauthorized
	}
	return nil
}

func observe(op string, start time.Time, err *error) {
	outcome := "ok"
	if *err != nil {
		outcome = "error"
	}
	metrics.AgentCalls.WithLabelValues(op, outcome).Inc()
	metrics.AgentCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (rep StatusReport) validate() error {
	switch {
	case rep.ServerID <= 0:
		return validationf("server_id is required")
	case rep.IP == "":
		return validationf("ip is required")
	case rep.CGMVersion == "":
		return validationf("cgm_version is required")
	case rep.AdminVersion == "":
		return validationf("admin_version is required")
	case rep.Timestamp.IsZero():
		return validationf("timestamp is required")
	}
	return nil
}

// ReportStatus records a heartbeat on an existing server. It never creates a
// server row.
func (g *Gateway) ReportStatus(ctx context.Context, credential string, rep StatusReport) (err error) {
	defer observe("report_status", time.Now(), &err)
	if err = g.authorize(ctx, credential); err != nil {
		return err
	}
	if err = rep.validate(); err != nil {
		return err
	}
	fields := map[string]any{
		"ip":            rep.IP,
		"cgm_version":   rep.CGMVersion,
		"admin_version": rep.AdminVersion,
		"last_update":   rep.Timestamp.UTC(),
	}
	if rep.RegionID != nil {
		fields["region_id"] = *rep.RegionID
	}
	if rep.RawStatus != nil {
		fields["last_status"] = datatypes.JSON(*rep.RawStatus)
	}
	if err = g.servers.UpdateStatus(ctx, rep.ServerID, fields); err != nil {
		return storeErr("report status", err)
	}
	return nil
}

// ReportAlerts stores one row per item and returns how many were stored.
// Items are not deduplicated.
func (g *Gateway) ReportAlerts(ctx context.Context, credential string, serverID int64, items []AlertItem) (n int, err error) {
	defer observe("report_alerts", time.Now(), &err)
	if err = g.authorize(ctx, credential); err != nil {
		return 0, err
	}
	if serverID <= 0 {
		return 0, validationf("server_id is required")
	}
	now := g.now()
	rows := make([]models.Alert, 0, len(items))
	for i, it := range items {
		switch {
		case !it.Severity.Valid():
			return 0, validationf("alerts[%d]: unknown severity %q", i, it.Severity)
		case it.Source == "":
			return 0, validationf("alerts[%d]: source is required", i)
		case it.Alert == "":
			return 0, validationf("alerts[%d]: alert is required", i)
		}
		row := models.Alert{
			ServerID:  serverID,
			Severity:  it.Severity,
			Source:    it.Source,
			AlertText: it.Alert,
			Counter:   1,
			Timestamp: now,
			Active:    true,
		}
		if it.Counter != nil {
			if *it.Counter < 1 {
				return 0, validationf("alerts[%d]: counter must be positive", i)
			}
			row.Counter = *it.Counter
		}
		if it.Stacktrace != nil {
			row.Stacktrace = *it.Stacktrace
		}
		if it.Timestamp != nil {
			row.Timestamp = it.Timestamp.UTC()
		}
		rows = append(rows, row)
	}
	ok, err := g.servers.Exists(ctx, serverID)
	if err != nil {
		return 0, storeErr("report alerts", err)
	}
	if !ok {
		err = storeErr("report alerts", repo.ErrNotFound)
		return 0, err
	}
	if err = g.alerts.CreateBatch(ctx, rows); err != nil {
		return 0, storeErr("report alerts", err)
	}
	return len(rows), nil
}

func (g *Gateway) PollCommands(ctx context.Context, credential string, serverID int64) (out []PendingCommand, err error) {
	defer observe("poll_commands", time.Now(), &err)
	if err = g.authorize(ctx, credential); err != nil {
		return nil, err
	}
	return g.queue.ListPending(ctx, serverID)
}

func (g *Gateway) ReportResult(ctx context.Context, credential string, commandID int64, status string, message *string) (res *models.CommandResult, err error) {
	defer observe("report_result", time.Now(), &err)
	if err = g.authorize(ctx, credential); err != nil {
		return nil, err
	}
	return g.queue.RecordResult(ctx, commandID, status, message)
}
