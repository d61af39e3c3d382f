package backend

import (
	"errors"

	"paytrack/internal/core"
	"paytrack/internal/imports"
	"paytrack/internal/receipts"
	"paytrack/internal/services"
	"paytrack/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Backend bundles the infrastructure the API server runs on.
type Backend struct {
	Store    storage.Store
	Sessions imports.SessionStore
	Receipts receipts.Releaser
	// Events is nil when no broker is configured.
	Events services.EventPublisher

	cleanups []CleanupFunc
}

// Close releases resources in reverse order of acquisition.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.cleanups) - 1; i >= 0; i-- {
		if err := b.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.cleanups = nil
	return errors.Join(errs...)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	SessionBackend BackendType
	// Clock stamps and checks upload session deadlines; nil means wall time.
	// It must be the clock given to the import pipeline.
	Clock core.Clock

	ReceiptBackend ReceiptBackend
	ReceiptDir     string
	S3             receipts.S3Config

	// Optional record event broker
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType names where records or upload sessions live.
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

type ReceiptBackend string

const (
	LocalReceipts ReceiptBackend = "local"
	S3Receipts    ReceiptBackend = "s3"
)

func (rb ReceiptBackend) IsValid() bool {
	return rb == LocalReceipts || rb == S3Receipts
}
