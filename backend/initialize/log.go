package initialize

import (
	"io"
	"os"

	"esn-monitor/backend/config"
	"esn-monitor/backend/global"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	// basic zerolog setup until the config is loaded: console writer to stdout
	global.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
}

// NewLogger builds the process logger from config. An empty path keeps the
// console writer; otherwise JSON lines are appended to the file as well.
func NewLogger(cfg config.Log) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stdout}
	var closer io.Closer
	if cfg.Path != "" {
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, nil, err
		}
		out = zerolog.MultiLevelWriter(out, f)
		closer = f
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), closer, nil
}
