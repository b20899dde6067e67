package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	BackendURL     string
	APIKey         string
	KeyHeader      string
	ServerID       int64
	RegionID       uint
	IP             string
	CGMVersion     string
	AdminVersion   string
	AlertDir       string
	StatusInterval time.Duration
	PollInterval   time.Duration
	LogPath        string
	DBPath         string
	RedisAddr      string
	RedisPassword  string
	RedisChannel   string
}

var cfg AppConfig

func Init(path string) (AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ESN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// defaults
	v.SetDefault("agent.backend.url", "http://127.0.0.1:8000")
	v.SetDefault("agent.key_header", "X-API-Key")
	v.SetDefault("agent.ip", "127.0.0.1")
	v.SetDefault("agent.cgm_version", "unknown")
	v.SetDefault("agent.admin_version", "unknown")
	v.SetDefault("agent.alert_dir", filepath.Join(os.TempDir(), "esn-agent", "alerts"))
	v.SetDefault("agent.status_interval", "30s")
	v.SetDefault("agent.poll_interval", "10s")
	v.SetDefault("agent.db_path", filepath.Join(os.TempDir(), "esn-agent", "agent.db"))
	v.SetDefault("agent.redis.channel", "esn:commands")
	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine when everything comes from ESN_* variables
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return AppConfig{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg = AppConfig{
		BackendURL:     strings.TrimRight(v.GetString("agent.backend.url"), "/"),
		APIKey:         v.GetString("agent.api_key"),
		KeyHeader:      v.GetString("agent.key_header"),
		ServerID:       v.GetInt64("agent.server_id"),
		RegionID:       v.GetUint("agent.region_id"),
		IP:             v.GetString("agent.ip"),
		CGMVersion:     v.GetString("agent.cgm_version"),
		AdminVersion:   v.GetString("agent.admin_version"),
		AlertDir:       v.GetString("agent.alert_dir"),
		StatusInterval: v.GetDuration("agent.status_interval"),
		PollInterval:   v.GetDuration("agent.poll_interval"),
		LogPath:        v.GetString("agent.log_path"),
		DBPath:         v.GetString("agent.db_path"),
		RedisAddr:      v.GetString("agent.redis.addr"),
		RedisPassword:  v.GetString("agent.redis.password"),
		RedisChannel:   v.GetString("agent.redis.channel"),
	}
	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("agent.api_key is required")
	}
	if cfg.ServerID == 0 {
		return cfg, fmt.Errorf("agent.server_id is required")
	}
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = 30 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	return cfg, nil
}

func Get() AppConfig { return cfg }
