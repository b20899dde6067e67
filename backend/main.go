package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"esn-monitor/backend/config"
	"esn-monitor/backend/global"
	"esn-monitor/backend/initialize"

	"github.com/fsnotify/fsnotify"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to backend config file")
	flag.Parse()

	app, err := initialize.Build(*configPath)
	if err != nil {
		global.Logger.Fatal().Err(err).Msg("init backend")
	}
	defer app.Close()

	config.Watch(*configPath, func(e fsnotify.Event) {
		global.Logger.Info().Str("file", e.Name).Msg("config changed, restart to apply")
	})

	srv := &http.Server{
		Addr:              app.Cfg.HTTP.Addr(),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		global.Logger.Info().Str("addr", srv.Addr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			global.Logger.Error().Err(err).Msg("http server")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		global.Logger.Error().Err(err).Msg("shutdown")
	}
	global.Logger.Info().Msg("backend stopped")
}
