package mongo

import "errors"

var (
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")
	ErrHealthcheckFailed      = errors.New("mongo healthcheck failed")
	ErrMaxAttemptsExceeded    = errors.New("maximum connection attempts reached, giving up")
	ErrNotConnected           = errors.New("mongo is not connected")
	ErrConfigLocked           = errors.New("mongo config cannot change while connecting")
	ErrConnectCanceled        = errors.New("mongo connect canceled")
	ErrDisconnect             = errors.New("mongo disconnect failed")
	ErrInvalidDriverOptions   = errors.New("invalid mongo driver options")
	ErrNoDocuments            = errors.New("no documents to save")
	ErrSaveFailed             = errors.New("failed to save documents")
	ErrClearFailed            = errors.New("failed to clear collection")
)

// AttemptsExhaustedError is returned once a connect sequence gives up.
// Its message is always that of ErrMaxAttemptsExceeded, so callers can match
// it with errors.Is regardless of the last transient failure.
type AttemptsExhaustedError struct {
	Attempts int
	Err      error // last connect failure
}

func (e *AttemptsExhaustedError) Error() string {
	return ErrMaxAttemptsExceeded.Error()
}

func (e *AttemptsExhaustedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMaxAttemptsExceeded}
	}
	return []error{ErrMaxAttemptsExceeded, e.Err}
}

// ValidationWarning describes a rejected configuration value.
// Warnings are logged and never returned to callers; the previous value is kept.
type ValidationWarning struct {
	Key    string
	Value  any
	Reason string
}

func (w *ValidationWarning) Error() string {
	return "config." + w.Key + " " + w.Reason + ", ignoring"
}
