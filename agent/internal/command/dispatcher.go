package command

import (
	"context"
	"encoding/json"
	"fmt"

	"esn-monitor/agent/internal/logger"
)

// Outcome is what gets reported for one executed command.
type Outcome struct {
	Status  string
	Message string
}

// Format renders a human-friendly string of the command
func Format(id int64, typ string) string {
	return fmt.Sprintf("command=%d type=%s", id, typ)
}

// Dispatch runs the handler registered for typ. Unknown types and handler
// errors both produce a failed outcome; nothing panics out of here.
func (r *Registry) Dispatch(ctx context.Context, id int64, typ string, payload json.RawMessage) (out Outcome) {
	h, ok := r.Get(typ)
	if !ok {
		logger.Errorf("Unknown command: %s", Format(id, typ))
		return Outcome{Status: StatusFailed, Message: "unknown command type " + typ}
	}
	defer func() {
		if rec := recover(); rec != nil {
			logger.Errorf("Command %s panicked: %v", Format(id, typ), rec)
			out = Outcome{Status: StatusFailed, Message: fmt.Sprintf("handler panic: %v", rec)}
		}
	}()
	logger.Infof("Received %s", Format(id, typ))
	msg, err := h.Handle(ctx, payload)
	if err != nil {
		logger.Errorf("Command %s failed: %v", Format(id, typ), err)
		return Outcome{Status: StatusFailed, Message: err.Error()}
	}
	logger.Infof("Command %s completed", Format(id, typ))
	return Outcome{Status: StatusSuccess, Message: msg}
}
