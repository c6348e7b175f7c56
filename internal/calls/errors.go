package calls

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrMalformedPayload: the body is not parseable into an event envelope.
	ErrMalformedPayload = errors.New("calls: malformed payload")
	// ErrIncompleteEvent: event, call, or call.call_id is missing.
	ErrIncompleteEvent = errors.New("calls: incomplete event")
	// ErrConfiguration: storage is not configured for this process.
	ErrConfiguration = errors.New("calls: storage not configured")
	// ErrStorage: the upsert or listing query failed.
	ErrStorage = errors.New("calls: storage error")
)

// StorageError wraps a failure returned by the backing store.
// errors.Is(err, ErrStorage) holds for every StorageError.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("calls: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Details is the underlying message surfaced to the caller for diagnostics.
// Postgres errors carry their SQLSTATE code.
func (e *StorageError) Details() string {
	if e.Err == nil {
		return ""
	}
	var pgErr *pgconn.PgError
	if errors.As(e.Err, &pgErr) {
		return fmt.Sprintf("%s (SQLSTATE %s)", pgErr.Message, pgErr.Code)
	}
	return e.Err.Error()
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedPayload, fmt.Sprintf(format, args...))
}

func incomplete(what string) error {
	return fmt.Errorf("%w: %s", ErrIncompleteEvent, what)
}
