package services

import (
	"errors"
	"fmt"

	"esn-monitor/backend/app/agentkey"
	"esn-monitor/backend/app/repo"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrStore        = errors.New("store unavailable")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storeErr maps a repository error onto the service sentinels.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, agentkey.ErrStore):
		return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrValidation), errors.Is(err, ErrStore):
		return err
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
	}
}
