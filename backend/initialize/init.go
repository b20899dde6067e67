package initialize

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"esn-monitor/backend/app/agentkey"
	"esn-monitor/backend/app/controllers"
	"esn-monitor/backend/app/db"
	jwtutil "esn-monitor/backend/app/jwt"
	"esn-monitor/backend/app/middleware"
	"esn-monitor/backend/app/notify"
	"esn-monitor/backend/app/repo"
	"esn-monitor/backend/app/services"
	"esn-monitor/backend/config"
	"esn-monitor/backend/global"
	"esn-monitor/backend/router"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type App struct {
	Cfg    *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Router http.Handler
	Users  *services.UserService
	Queue  *services.CommandQueue
	Keys   *services.KeyService

	logCloser io.Closer
}

// Build loads config, connects the store and wires every service and
// controller.
func Build(configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	global.Config = cfg

	logger, closer, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	global.Logger = logger

	gdb, err := db.Connect(db.Config{Driver: cfg.DB.Driver, Host: cfg.DB.Host, Port: cfg.DB.Port, User: cfg.DB.User, Password: cfg.DB.Pass, DBName: cfg.DB.Name, Path: cfg.DB.Path})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	global.Mdb = gdb
	if err := db.Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	var rdb *redis.Client
	var publisher notify.Publisher = notify.Noop{}
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, command events may be lost")
		}
		cancel()
		global.Rdb = rdb
		publisher = notify.NewRedisPublisher(rdb, cfg.Redis.Channel)
	}

	app := Wire(cfg, gdb, publisher, logger)
	app.Redis = rdb
	app.logCloser = closer

	if cfg.Admin.Password != "" {
		if err := app.Users.EnsureAdmin(context.Background(), cfg.Admin.Username, cfg.Admin.Password); err != nil {
			logger.Warn().Err(err).Str("username", cfg.Admin.Username).Msg("bootstrap admin")
		}
	} else {
		logger.Warn().Msg("backend.admin.password not set, no bootstrap admin created")
	}
	return app, nil
}

// Wire builds services, controllers and the router on an open store.
func Wire(cfg *config.Config, gdb *gorm.DB, publisher notify.Publisher, logger zerolog.Logger) *App {
	serverRepo := repo.NewServerRepository(gdb)
	alertRepo := repo.NewAlertRepository(gdb)
	commandRepo := repo.NewCommandRepository(gdb)
	keyRepo := repo.NewAgentKeyRepository(gdb)
	userRepo := repo.NewUserRepository(gdb)

	verifier := agentkey.NewVerifier(cfg.Agent.DevKeys, keyRepo)
	queue := services.NewCommandQueue(commandRepo, serverRepo, publisher, logger)
	gateway := services.NewGateway(verifier, serverRepo, alertRepo, queue, logger)
	userSvc := services.NewUserService(userRepo)
	fleet := services.NewFleetService(serverRepo, alertRepo, queue)
	keys := services.NewKeyService(keyRepo, serverRepo, logger)

	signer := &jwtutil.Signer{Secret: []byte(cfg.JWT.Secret), Issuer: cfg.JWT.Issuer, ExpMin: cfg.JWT.ExpMin}
	mw := &middleware.Auth{Signer: signer}

	h := router.NewRouter(router.Controllers{
		HTTP:  controllers.NewHTTPController(),
		Auth:  controllers.NewAuthController(userSvc, signer, logger),
		Agent: controllers.NewAgentController(gateway, cfg.Agent.Header, logger),
		Admin: controllers.NewAdminController(userSvc, fleet, queue, keys, logger),
	}, mw)
	h = middleware.Logging(logger)(h)

	return &App{Cfg: cfg, DB: gdb, Router: h, Users: userSvc, Queue: queue, Keys: keys}
}

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}
