package backend

import (
	"context"
	"errors"

	"fintrack/internal/amqp"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store, the optional AMQP client and a cleanup
// function releasing both.
type BackendResult struct {
	Store   storage.Store
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Publisher returns the change-event publisher, or a nil interface when
// AMQP is not configured.
func (r *BackendResult) Publisher() services.EventPublisher {
	if r.AMQP == nil {
		return nil
	}
	return r.AMQP
}

// Close runs Cleanup if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Change events, optional for every backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

func joinClose(closers ...func() error) CleanupFunc {
	return func() error {
		var errs []error
		for _, c := range closers {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
