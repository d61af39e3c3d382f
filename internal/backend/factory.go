package backend

import (
	"context"
	"fmt"

	"paytrack/internal/amqp"
	"paytrack/internal/imports"
	"paytrack/internal/log"
	"paytrack/internal/receipts"
	"paytrack/internal/storage"
	"paytrack/internal/storage/memory"
)

type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Factory{logger: logger.WithComponent(log.ComponentStorage)}
}

// Create builds every piece of the backend. On failure whatever was already
// opened is closed again.
func (f *Factory) Create(ctx context.Context, cfg Config) (_ *Backend, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Backend{}
	defer func() {
		if err != nil {
			_ = b.Close()
		}
	}()

	var repo *storage.SQLiteRepository
	switch cfg.Type {
	case SQLiteBackend:
		repo, err = storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		b.Store = repo
		b.cleanups = append(b.cleanups, repo.Close)
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case MemoryBackend:
		b.Store = memory.New()
		f.logger.InfoContext(ctx, "Initialized memory backend")
	}

	if cfg.SessionBackend == SQLiteBackend {
		b.Sessions = storage.NewSessionStore(repo.DB(), cfg.Clock)
		f.logger.InfoContext(ctx, "Upload sessions stored in SQLite")
	} else {
		b.Sessions = imports.NewMemorySessions(cfg.Clock)
	}

	if cfg.ReceiptBackend == S3Receipts {
		s3Store, err := receipts.NewS3Store(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 receipt store: %w", err)
		}
		b.Receipts = s3Store
		f.logger.InfoContext(ctx, "Receipts stored in S3", "bucket", cfg.S3.Bucket)
	} else {
		b.Receipts = receipts.NewLocalStore(cfg.ReceiptDir)
	}

	// the broker is optional; unmirrored records are swept up by the worker
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without record events", log.FieldError, err.Error())
		} else {
			b.Events = client
			b.cleanups = append(b.cleanups, client.Close)
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	return b, nil
}
