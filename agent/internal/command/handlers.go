package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"esn-monitor/agent/internal/logger"
	"esn-monitor/agent/internal/monitor"
)

type deleteAlertArg struct {
	Filename string `json:"filename"`
}

// DeleteAlertHandler removes a file from the alert directory. A file that is
// already gone counts as success.
type DeleteAlertHandler struct {
	Dir string
	// OnDeleted is called with the removed path, if set.
	OnDeleted func(path string)
}

func (h DeleteAlertHandler) Handle(_ context.Context, payload json.RawMessage) (string, error) {
	var a deleteAlertArg
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &a); err != nil {
			return "", fmt.Errorf("decode payload: %w", err)
		}
	}
	if a.Filename == "" {
		return "", errors.New("payload.filename is required")
	}
	path, err := monitor.Resolve(h.Dir, a.Filename)
	if err != nil {
		return "", fmt.Errorf("%s: %w", a.Filename, err)
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Sprintf("%s already absent", a.Filename), nil
		}
		return "", err
	}
	if h.OnDeleted != nil {
		h.OnDeleted(path)
	}
	return fmt.Sprintf("deleted %s", a.Filename), nil
}

// CustomHandler only logs the payload.
type CustomHandler struct{}

func (CustomHandler) Handle(_ context.Context, payload json.RawMessage) (string, error) {
	logger.Infof("Custom command payload: %s", string(payload))
	return "acknowledged", nil
}
