package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"esn-monitor/agent/internal/client"
	"esn-monitor/agent/internal/config"
	"esn-monitor/agent/internal/db"
	"esn-monitor/agent/internal/logger"
	"esn-monitor/agent/internal/monitor"
	"esn-monitor/agent/internal/runner"
	"esn-monitor/backend/app/notify"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfgPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Init(*cfgPath)
	if err != nil {
		logger.Error("Invalid configuration: ", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.LogPath); err != nil {
		logger.Error("Cannot open log file: ", err)
	}

	store, err := db.Init(cfg.DBPath)
	if err != nil {
		logger.Error("Cannot open SQLite: ", err)
		os.Exit(1)
	}

	var regionID *uint
	if cfg.RegionID != 0 {
		regionID = &cfg.RegionID
	}
	api := client.New(cfg.BackendURL, cfg.APIKey, cfg.KeyHeader)
	r := runner.New(runner.Options{
		ServerID:       cfg.ServerID,
		RegionID:       regionID,
		IP:             cfg.IP,
		CGMVersion:     cfg.CGMVersion,
		AdminVersion:   cfg.AdminVersion,
		AlertDir:       cfg.AlertDir,
		StatusInterval: cfg.StatusInterval,
		PollInterval:   cfg.PollInterval,
	}, api, store)

	watcher, err := monitor.NewAlertWatcher(cfg.AlertDir, 0)
	if err != nil {
		logger.Errorf("Alert watcher disabled: %v", err)
		watcher = nil
	} else {
		defer watcher.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		go subscribeLoop(ctx, rdb, cfg.RedisChannel, cfg.ServerID, r)
	}

	logger.Infof("Agent started for server %d, backend %s", cfg.ServerID, cfg.BackendURL)
	r.Run(ctx, watcher)
	logger.Info("Shutdown signal received, exiting...")
}

// subscribeLoop keeps a Redis subscription alive and wakes the command poller
// on every queued command event. Polling on the ticker continues regardless.
func subscribeLoop(ctx context.Context, rdb *redis.Client, channel string, serverID int64, r *runner.Runner) {
	delay := time.Second
	for {
		err := notify.Subscribe(ctx, rdb, channel, serverID, func(ev notify.Event) {
			logger.Infof("Command %d queued, polling now", ev.CommandID)
			r.Wake()
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warnf("Command subscription lost: %v, retrying in %v", err, delay)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
}
