package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paytrack/internal/config"
	"paytrack/internal/imports"
	"paytrack/internal/receipts"
	"paytrack/internal/storage"
	"paytrack/internal/storage/memory"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "memory", cfg: Config{Type: MemoryBackend}},
		{name: "sqlite", cfg: Config{Type: SQLiteBackend, SQLiteDBPath: "x.db", SessionBackend: SQLiteBackend}},
		{name: "unknown backend", cfg: Config{Type: "sheets"}, wantErr: true},
		{name: "sqlite without path", cfg: Config{Type: SQLiteBackend}, wantErr: true},
		{name: "sqlite sessions on memory", cfg: Config{Type: MemoryBackend, SessionBackend: SQLiteBackend}, wantErr: true},
		{name: "unknown receipts", cfg: Config{Type: MemoryBackend, ReceiptBackend: "ftp"}, wantErr: true},
		{name: "s3 without bucket", cfg: Config{Type: MemoryBackend, ReceiptBackend: S3Receipts}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:          "sqlite",
		SQLiteDBPath:         "/tmp/p.db",
		UploadSessionBackend: "memory",
		ReceiptBackend:       "s3",
		S3Bucket:             "receipts",
		S3Region:             "eu-west-1",
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, S3Receipts, cfg.ReceiptBackend)
	assert.Equal(t, "receipts", cfg.S3.Bucket)
}

func TestCreateMemoryBackend(t *testing.T) {
	b, err := NewFactory(nil).Create(context.Background(), Config{Type: MemoryBackend, ReceiptDir: t.TempDir()})
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &memory.Store{}, b.Store)
	assert.IsType(t, &imports.MemorySessions{}, b.Sessions)
	assert.IsType(t, &receipts.LocalStore{}, b.Receipts)
	assert.Nil(t, b.Events)
}

func TestCreateSQLiteBackend(t *testing.T) {
	b, err := NewFactory(nil).Create(context.Background(), Config{
		Type:           SQLiteBackend,
		SQLiteDBPath:   filepath.Join(t.TempDir(), "paytrack.db"),
		SessionBackend: SQLiteBackend,
	})
	require.NoError(t, err)

	assert.IsType(t, &storage.SQLiteRepository{}, b.Store)
	assert.IsType(t, &storage.SessionStore{}, b.Sessions)
	require.NoError(t, b.Store.Ping(context.Background()))
	require.NoError(t, b.Close())
	// a second close is a no-op
	require.NoError(t, b.Close())
}

func TestCreateRejectsInvalidConfig(t *testing.T) {
	_, err := NewFactory(nil).Create(context.Background(), Config{Type: "sheets"})
	assert.Error(t, err)
}
