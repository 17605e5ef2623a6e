package physics

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

var (
	ErrNotCreated       = errors.New("joint not created")
	ErrNotLoaded        = errors.New("joint not loaded")
	ErrAlreadyCreated   = errors.New("joint already created")
	ErrDestroyed        = errors.New("joint destroyed")
	ErrNotImplemented   = errors.New("not implemented")
	ErrNotInitialized   = errors.New("physics not initialized")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrMissingElement   = errors.New("missing element")
	ErrNilLink          = errors.New("nil link")
	ErrUnsupportedJoint = errors.New("unsupported joint type")
	ErrTypeMismatch     = errors.New("joint type mismatch")
)

// JointError records the joint and operation that failed.
type JointError struct {
	Engine string
	Joint  string
	Op     string
	Index  int
	Err    error
}

func (e *JointError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s joint %q: %s[%d]: %v", e.Engine, e.Joint, e.Op, e.Index, e.Err)
	}
	return fmt.Sprintf("%s joint %q: %s: %v", e.Engine, e.Joint, e.Op, e.Err)
}

func (e *JointError) Unwrap() error { return e.Err }

// errorLevel is the log level a joint failure is reported at.
func errorLevel(err error) slog.Level {
	switch {
	case errors.Is(err, ErrNotImplemented), errors.Is(err, ErrNotInitialized):
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// errorValue is what a failed getter returns alongside the error.
func errorValue(err error) float64 {
	switch {
	case errors.Is(err, ErrNotInitialized), errors.Is(err, ErrIndexOutOfRange):
		return math.NaN()
	default:
		return 0
	}
}

// NotImplemented wraps ErrNotImplemented with a reason.
func NotImplemented(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotImplemented, fmt.Sprintf(format, args...))
}
