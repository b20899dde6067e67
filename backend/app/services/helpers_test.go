package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"esn-monitor/backend/app/agentkey"
	"esn-monitor/backend/app/notify"
	"esn-monitor/backend/app/repo"
	"esn-monitor/backend/app/services"
	"esn-monitor/backend/testhelper"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (p *recordingPublisher) CommandQueued(_ context.Context, ev notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type fixture struct {
	db       *gorm.DB
	servers  *repo.ServerRepository
	alerts   *repo.AlertRepository
	commands *repo.CommandRepository
	keys     *repo.AgentKeyRepository
	pub      *recordingPublisher
	queue    *services.CommandQueue
	gateway  *services.Gateway
}

func newFixture(t *testing.T, devKeys ...string) *fixture {
	t.Helper()
	gdb := testhelper.SetupSQLite(t)
	f := &fixture{
		db:       gdb,
		servers:  repo.NewServerRepository(gdb),
		alerts:   repo.NewAlertRepository(gdb),
		commands: repo.NewCommandRepository(gdb),
		keys:     repo.NewAgentKeyRepository(gdb),
		pub:      &recordingPublisher{},
	}
	f.queue = services.NewCommandQueue(f.commands, f.servers, f.pub, zerolog.Nop())
	f.gateway = services.NewGateway(agentkey.NewVerifier(devKeys, f.keys), f.servers, f.alerts, f.queue, zerolog.Nop())
	return f
}

// countQueries counts every statement gorm runs from now on.
func countQueries(t *testing.T, gdb *gorm.DB) *atomic.Int64 {
	t.Helper()
	var n atomic.Int64
	inc := func(*gorm.DB) { n.Add(1) }
	cb := gdb.Callback()
	for name, err := range map[string]error{
		"test:count_query":  cb.Query().Before("gorm:query").Register("test:count_query", inc),
		"test:count_create": cb.Create().Before("gorm:create").Register("test:count_create", inc),
		"test:count_update": cb.Update().Before("gorm:update").Register("test:count_update", inc),
		"test:count_row":    cb.Row().Before("gorm:row").Register("test:count_row", inc),
	} {
		if err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	return &n
}

// failOn makes every update against table fail with err.
func failOn(t *testing.T, gdb *gorm.DB, table string, err error) {
	t.Helper()
	reg := gdb.Callback().Update().Before("gorm:update").Register("test:fail_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(err)
		}
	})
	if reg != nil {
		t.Fatalf("register fail callback: %v", reg)
	}
}

var errInjected = errors.New("injected failure")

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
