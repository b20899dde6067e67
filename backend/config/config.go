package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type DB struct {
	Driver string
	Host   string
	Port   int
	User   string
	Pass   string
	Name   string
	Path   string
}

type HTTP struct {
	Host string
	Port int
}

func (h HTTP) Addr() string { return fmt.Sprintf("%s:%d", h.Host, h.Port) }

type JWT struct {
	Secret string
	Issuer string
	ExpMin int
}

type Admin struct {
	Username string
	Password string
}

type Agent struct {
	DevKeys []string
	Header  string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

type Log struct {
	Level string
	Path  string
}

type Config struct {
	HTTP  HTTP
	DB    DB
	JWT   JWT
	Admin Admin
	Agent Agent
	Redis Redis
	Log   Log
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ESN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("backend.http.host", "127.0.0.1")
	v.SetDefault("backend.http.port", 8000)
	v.SetDefault("backend.db.driver", "mysql")
	v.SetDefault("backend.db.host", "127.0.0.1")
	v.SetDefault("backend.db.port", 3306)
	v.SetDefault("backend.db.user", "root")
	v.SetDefault("backend.db.pass", "")
	v.SetDefault("backend.db.name", "esn_monitor")
	v.SetDefault("backend.db.path", "esn-monitor.db")
	v.SetDefault("backend.jwt.secret", "dev-secret")
	v.SetDefault("backend.jwt.issuer", "esn-monitor")
	v.SetDefault("backend.jwt.exp_min", 480)
	v.SetDefault("backend.admin.username", "admin")
	v.SetDefault("backend.admin.password", "")
	v.SetDefault("backend.agent.dev_keys", []string{})
	v.SetDefault("backend.agent.header", "X-API-Key")
	v.SetDefault("backend.redis.addr", "")
	v.SetDefault("backend.redis.db", 0)
	v.SetDefault("backend.redis.channel", "esn:commands")
	v.SetDefault("backend.log.level", "info")
	v.SetDefault("backend.log.path", "")
	return v
}

func Load(path string) (*Config, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		HTTP: HTTP{Host: v.GetString("backend.http.host"), Port: v.GetInt("backend.http.port")},
		DB: DB{
			Driver: strings.ToLower(v.GetString("backend.db.driver")),
			Host:   v.GetString("backend.db.host"),
			Port:   v.GetInt("backend.db.port"),
			User:   v.GetString("backend.db.user"),
			Pass:   v.GetString("backend.db.pass"),
			Name:   v.GetString("backend.db.name"),
			Path:   v.GetString("backend.db.path"),
		},
		JWT: JWT{
			Secret: v.GetString("backend.jwt.secret"),
			Issuer: v.GetString("backend.jwt.issuer"),
			ExpMin: v.GetInt("backend.jwt.exp_min"),
		},
		Admin: Admin{Username: v.GetString("backend.admin.username"), Password: v.GetString("backend.admin.password")},
		Agent: Agent{DevKeys: v.GetStringSlice("backend.agent.dev_keys"), Header: v.GetString("backend.agent.header")},
		Redis: Redis{
			Addr:     v.GetString("backend.redis.addr"),
			Password: v.GetString("backend.redis.password"),
			DB:       v.GetInt("backend.redis.db"),
			Channel:  v.GetString("backend.redis.channel"),
		},
		Log: Log{Level: v.GetString("backend.log.level"), Path: v.GetString("backend.log.path")},
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("backend.jwt.secret must not be empty")
	}
	if cfg.JWT.ExpMin <= 0 {
		cfg.JWT.ExpMin = 480
	}
	switch cfg.DB.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DB.Driver)
	}
	return cfg, nil
}

// Watch reports edits to the config file. Changes take effect on restart;
// fn only receives the event.
func Watch(path string, fn func(fsnotify.Event)) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return
	}
	v.OnConfigChange(fn)
	v.WatchConfig()
}
