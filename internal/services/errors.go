package services

import (
	"errors"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
)

var (
	ErrAuth   = errors.New("authentication failed")
	ErrScope  = errors.New("no theaters in scope")
	ErrStream = errors.New("stream failed")
	ErrPrint  = errors.New("print failed")

	// ErrRelogin is returned by a subscriber that gave up on its session.
	ErrRelogin = errors.New("full relogin required")
)

// APIError is a non-2xx reply from the backend.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API Error %d: %s", e.Status, e.Body)
}

// guard runs fn and turns a panic into a log line so that one broken
// task never takes the process down.
func guard(logger *zap.SugaredLogger, task string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Unhandled panic in %s: %v\n%s", task, r, debug.Stack())
		}
	}()
	fn()
}
