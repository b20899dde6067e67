package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"esn-monitor/agent/internal/client"
	"esn-monitor/agent/internal/command"
	"esn-monitor/agent/internal/db"
	"esn-monitor/agent/internal/logger"
	"esn-monitor/agent/internal/monitor"
)

// API is the subset of the backend client the runner needs.
type API interface {
	ReportStatus(ctx context.Context, rep client.StatusReport) error
	ReportAlerts(ctx context.Context, serverID int64, alerts []client.Alert) (int, error)
	PollCommands(ctx context.Context, serverID int64) ([]client.Command, error)
	ReportResult(ctx context.Context, commandID int64, status, message string) error
}

type Options struct {
	ServerID       int64
	RegionID       *uint
	IP             string
	CGMVersion     string
	AdminVersion   string
	AlertDir       string
	StatusInterval time.Duration
	PollInterval   time.Duration
}

type Runner struct {
	opts     Options
	api      API
	store    *db.Store
	registry *command.Registry
	started  time.Time

	wake chan struct{}
	// serialises polls so a wake-up and a tick never run the same command twice
	pollMu sync.Mutex
}

func New(opts Options, api API, store *db.Store) *Runner {
	r := &Runner{
		opts:     opts,
		api:      api,
		store:    store,
		registry: command.NewRegistry(),
		started:  time.Now(),
		wake:     make(chan struct{}, 1),
	}
	r.registry.Register(command.TypeDeleteAlert, command.DeleteAlertHandler{
		Dir: opts.AlertDir,
		OnDeleted: func(path string) {
			if err := store.ForgetAlert(path); err != nil {
				logger.Warnf("Forget alert %s: %v", path, err)
			}
		},
	})
	r.registry.Register(command.TypeCustom, command.CustomHandler{})
	return r
}

// Registry exposes the handler registry for extra command types.
func (r *Runner) Registry() *command.Registry { return r.registry }

// Wake requests an immediate command poll. Extra calls coalesce.
func (r *Runner) Wake() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run starts the status, alert and command loops and blocks until ctx ends.
func (r *Runner) Run(ctx context.Context, watcher *monitor.AlertWatcher) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); r.statusLoop(ctx) }()
	go func() { defer wg.Done(); r.commandLoop(ctx) }()
	if watcher != nil {
		wg.Add(1)
		go func() { defer wg.Done(); r.alertLoop(ctx, watcher) }()
	}
	wg.Wait()
}

func (r *Runner) statusLoop(ctx context.Context) {
	t := time.NewTicker(r.opts.StatusInterval)
	defer t.Stop()
	for {
		if err := r.SendStatus(ctx); err != nil {
			logger.Errorf("Report status failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// SendStatus posts one heartbeat with a small raw status document.
func (r *Runner) SendStatus(ctx context.Context) error {
	files := 0
	if entries, err := os.ReadDir(r.opts.AlertDir); err == nil {
		files = len(entries)
	}
	raw, err := json.Marshal(map[string]any{
		"uptime_seconds": int64(time.Since(r.started).Seconds()),
		"alert_files":    files,
	})
	if err != nil {
		return err
	}
	msg := json.RawMessage(raw)
	return r.api.ReportStatus(ctx, client.StatusReport{
		ServerID:     r.opts.ServerID,
		RegionID:     r.opts.RegionID,
		IP:           r.opts.IP,
		CGMVersion:   r.opts.CGMVersion,
		AdminVersion: r.opts.AdminVersion,
		Timestamp:    time.Now().UTC(),
		RawStatus:    &msg,
	})
}

func (r *Runner) alertLoop(ctx context.Context, w *monitor.AlertWatcher) {
	events := w.Events()
	if existing, err := w.Existing(); err == nil {
		for _, p := range existing {
			r.reportAlertFile(ctx, p)
		}
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Action {
			case monitor.ActionReady:
				r.reportAlertFile(ctx, ev.Path)
			case monitor.ActionRemove:
				if err := r.store.ForgetAlert(ev.Path); err != nil {
					logger.Warnf("Forget alert %s: %v", ev.Path, err)
				}
			}
		}
	}
}

func (r *Runner) reportAlertFile(ctx context.Context, path string) {
	done, err := r.store.AlertReported(path)
	if err != nil {
		logger.Errorf("Check alert %s: %v", path, err)
		return
	}
	if done {
		return
	}
	alert, err := ReadAlertFile(path)
	if err != nil {
		logger.Warnf("Skip alert file %s: %v", path, err)
		return
	}
	if _, err := r.api.ReportAlerts(ctx, r.opts.ServerID, []client.Alert{alert}); err != nil {
		logger.Errorf("Report alert %s failed: %v", path, err)
		return
	}
	if err := r.store.MarkAlertReported(path, alert.Severity); err != nil {
		logger.Warnf("Mark alert %s: %v", path, err)
	}
}

// ReadAlertFile parses one JSON alert document. The source defaults to the
// file name.
func ReadAlertFile(path string) (client.Alert, error) {
	var a client.Alert
	data, err := os.ReadFile(path)
	if err != nil {
		return a, err
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return a, fmt.Errorf("decode: %w", err)
	}
	if a.Severity == "" || a.Alert == "" {
		return a, errors.New("severity and alert are required")
	}
	if a.Source == "" {
		a.Source = filepath.Base(path)
	}
	return a, nil
}

func (r *Runner) commandLoop(ctx context.Context) {
	t := time.NewTicker(r.opts.PollInterval)
	defer t.Stop()
	for {
		if err := r.PollOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Errorf("Poll commands failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		case <-r.wake:
		}
	}
}

// PollOnce fetches pending commands, executes each one that has not been
// executed yet, and reports every outcome not yet delivered.
func (r *Runner) PollOnce(ctx context.Context) error {
	r.pollMu.Lock()
	defer r.pollMu.Unlock()

	cmds, err := r.api.PollCommands(ctx, r.opts.ServerID)
	if err != nil {
		return err
	}
	for _, c := range cmds {
		prev, err := r.store.Execution(c.ID)
		if err != nil {
			return err
		}
		var out command.Outcome
		if prev != nil {
			// executed before but the backend still lists it: report again
			out = command.Outcome{Status: prev.Status, Message: prev.Message}
		} else {
			out = r.registry.Dispatch(ctx, c.ID, c.Type, c.Payload)
			if err := r.store.SaveExecution(c.ID, out.Status, out.Message); err != nil {
				logger.Warnf("Save execution %d: %v", c.ID, err)
			}
		}
		if err := r.api.ReportResult(ctx, c.ID, out.Status, out.Message); err != nil {
			logger.Errorf("Report result %s failed: %v", command.Format(c.ID, c.Type), err)
			continue
		}
		if err := r.store.MarkDelivered(c.ID); err != nil {
			logger.Warnf("Mark delivered %d: %v", c.ID, err)
		}
	}
	return nil
}
