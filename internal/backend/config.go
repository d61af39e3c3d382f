package backend

import (
	"errors"
	"fmt"

	"paytrack/internal/config"
	"paytrack/internal/receipts"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	cfg := Config{
		Type:         BackendType(appConfig.DataBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,

		SessionBackend: BackendType(appConfig.UploadSessionBackend),

		ReceiptBackend: ReceiptBackend(appConfig.ReceiptBackend),
		ReceiptDir:     appConfig.ReceiptDir,
		S3: receipts.S3Config{
			Bucket:    appConfig.S3Bucket,
			Region:    appConfig.S3Region,
			Endpoint:  appConfig.S3Endpoint,
			AccessKey: appConfig.S3AccessKey,
			SecretKey: appConfig.S3SecretKey,
		},

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sqlite backend")
	}

	switch {
	case c.SessionBackend == "":
	case !c.SessionBackend.IsValid():
		return fmt.Errorf("invalid upload session backend: %s", c.SessionBackend)
	case c.SessionBackend == SQLiteBackend && c.Type != SQLiteBackend:
		return errors.New("sqlite upload sessions require the sqlite record backend")
	}

	switch {
	case c.ReceiptBackend == "":
	case !c.ReceiptBackend.IsValid():
		return fmt.Errorf("invalid receipt backend: %s", c.ReceiptBackend)
	case c.ReceiptBackend == S3Receipts && c.S3.Bucket == "":
		return errors.New("S3 bucket is required for s3 receipts")
	}
	return nil
}
