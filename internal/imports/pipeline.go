// Package imports implements the two-phase bulk schedule import: an upload
// is parsed and validated into a preview with staged rows, then a confirm
// persists the selected rows.
package imports

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"paytrack/internal/core"
	"paytrack/internal/log"
)

const (
	DefaultSessionTTL  = time.Hour
	DefaultPreviewRows = 10
)

// Persister stores confirmed rows as schedules, all or nothing.
type Persister interface {
	CreateBatch(ctx context.Context, ownerID string, schedules []core.Schedule) ([]core.Schedule, error)
}

type Options struct {
	SessionTTL  time.Duration
	PreviewRows int
	Clock       core.Clock
}

// Preview is the result of an upload.
type Preview struct {
	SessionID string
	ExpiresAt time.Time
	TotalRows int
	Valid     int
	Invalid   int
	Rows      []CheckedRow
}

type Pipeline struct {
	sessions    SessionStore
	persister   Persister
	ttl         time.Duration
	previewRows int
	clock       core.Clock
}

func NewPipeline(sessions SessionStore, persister Persister, opts Options) *Pipeline {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = DefaultPreviewRows
	}
	if opts.Clock == nil {
		opts.Clock = core.SystemClock{}
	}
	return &Pipeline{
		sessions:    sessions,
		persister:   persister,
		ttl:         opts.SessionTTL,
		previewRows: opts.PreviewRows,
		clock:       opts.Clock,
	}
}

// Upload parses and validates the file at path, stages its valid rows and
// returns the preview. The file is removed whatever the outcome.
// filename is the client's name for the file and selects the parser.
func (p *Pipeline) Upload(ctx context.Context, ownerID, path, filename string) (Preview, error) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentImport)
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.WarnContext(ctx, "Failed to remove uploaded file",
				log.FieldFilename, filename,
				log.FieldError, err.Error())
		}
	}()

	if ownerID == "" {
		return Preview{}, core.ErrUnauthenticated
	}

	table, err := ReadTable(path, filename)
	if err != nil {
		return Preview{}, err
	}
	checked, err := CheckRows(table)
	if err != nil {
		return Preview{}, err
	}

	sess := core.UploadSession{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		ExpiresAt: p.clock.Now().Add(p.ttl),
	}
	preview := Preview{SessionID: sess.ID, ExpiresAt: sess.ExpiresAt, TotalRows: len(checked)}
	for _, r := range checked {
		if r.Valid() {
			preview.Valid++
			sess.Rows = append(sess.Rows, r.staged())
		} else {
			preview.Invalid++
		}
	}
	preview.Rows = checked[:min(len(checked), p.previewRows)]

	if err := p.sessions.Save(ctx, sess); err != nil {
		return Preview{}, fmt.Errorf("stage upload: %w", err)
	}

	logger.InfoContext(ctx, "Upload staged",
		log.FieldOwnerID, ownerID,
		log.FieldSessionID, sess.ID,
		log.FieldFilename, filename,
		log.FieldValidRows, preview.Valid,
		log.FieldInvalidRow, preview.Invalid)
	return preview, nil
}

// Confirm persists the staged rows whose numbers are listed and consumes the
// session. An empty selection leaves the session in place.
func (p *Pipeline) Confirm(ctx context.Context, ownerID, sessionID string, rowNumbers []int) (int, error) {
	if ownerID == "" {
		return 0, core.ErrUnauthenticated
	}
	logger := log.FromContext(ctx).WithComponent(log.ComponentImport)

	sess, err := p.sessions.Take(ctx, ownerID, sessionID)
	if err != nil {
		return 0, err
	}

	selected := sess.Select(rowNumbers)
	if len(selected) == 0 {
		p.restore(ctx, logger, sess)
		return 0, core.ErrNoRowsSelected
	}

	today := core.DateOf(p.clock.Now())
	schedules := make([]core.Schedule, len(selected))
	for i, r := range selected {
		schedules[i] = r.Schedule(ownerID, today)
	}

	created, err := p.persister.CreateBatch(ctx, ownerID, schedules)
	if err != nil {
		p.restore(ctx, logger, sess)
		return 0, fmt.Errorf("import rows: %w", err)
	}

	logger.InfoContext(ctx, "Upload confirmed",
		log.FieldOwnerID, ownerID,
		log.FieldSessionID, sessionID,
		log.FieldCount, len(created))
	return len(created), nil
}

func (p *Pipeline) restore(ctx context.Context, logger *log.Logger, sess core.UploadSession) {
	if err := p.sessions.Save(ctx, sess); err != nil {
		logger.WarnContext(ctx, "Failed to restore upload session",
			log.FieldSessionID, sess.ID,
			log.FieldError, err.Error())
	}
}
