package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"paytrack/internal/amqp"
	"paytrack/internal/core"
	"paytrack/internal/log"
	"paytrack/internal/sheets"
	"paytrack/internal/storage"
)

// MirrorStore is what the worker needs from the record store.
type MirrorStore interface {
	storage.MirrorStore
	GetSchedule(ctx context.Context, ownerID, id string) (core.Schedule, error)
	GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error)
}

// MirrorWorker copies persisted records into the spreadsheet mirror, either as
// record events arrive or by sweeping records that were never mirrored.
type MirrorWorker struct {
	store     MirrorStore
	sink      sheets.RowAppender
	batchSize int
	clock     core.Clock
}

func NewMirrorWorker(store MirrorStore, sink sheets.RowAppender, batchSize int, clock core.Clock) *MirrorWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &MirrorWorker{store: store, sink: sink, batchSize: batchSize, clock: clock}
}

// HandleRecordEvent mirrors the record an event announces. Records deleted
// since the event and records already mirrored are skipped.
func (w *MirrorWorker) HandleRecordEvent(ctx context.Context, ev *amqp.RecordEvent) error {
	logger := log.FromContext(ctx).WithComponent(log.ComponentWorker)
	kind := storage.RecordKind(ev.Kind)

	done, err := w.store.IsMirrored(ctx, kind, ev.ID)
	if err != nil {
		return fmt.Errorf("check mirror state: %w", err)
	}
	if done {
		logger.DebugContext(ctx, "Record already mirrored",
			log.FieldRecordKind, ev.Kind,
			log.FieldRecordID, ev.ID)
		return nil
	}

	switch kind {
	case storage.KindSchedule:
		s, err := w.store.GetSchedule(ctx, ev.OwnerID, ev.ID)
		if err != nil {
			return w.skipMissing(ctx, ev, err)
		}
		return w.mirrorSchedule(ctx, s)
	case storage.KindExpense:
		e, err := w.store.GetExpense(ctx, ev.OwnerID, ev.ID)
		if err != nil {
			return w.skipMissing(ctx, ev, err)
		}
		return w.mirrorExpense(ctx, e)
	default:
		logger.WarnContext(ctx, "Ignoring event for unknown record kind",
			log.FieldRecordKind, ev.Kind,
			log.FieldRecordID, ev.ID)
		return nil
	}
}

func (w *MirrorWorker) skipMissing(ctx context.Context, ev *amqp.RecordEvent, err error) error {
	if errors.Is(err, core.ErrNotFound) {
		log.FromContext(ctx).WithComponent(log.ComponentWorker).InfoContext(ctx, "Record deleted before mirroring",
			log.FieldRecordKind, ev.Kind,
			log.FieldRecordID, ev.ID)
		return nil
	}
	return fmt.Errorf("load %s %s: %w", ev.Kind, ev.ID, err)
}

// ProcessPending mirrors up to one batch of unmirrored schedules and one of
// expenses. Failed records stay pending for the next sweep.
func (w *MirrorWorker) ProcessPending(ctx context.Context) (int, error) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentWorker)

	schedules, err := w.store.PendingSchedules(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("pending schedules: %w", err)
	}
	expenses, err := w.store.PendingExpenses(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("pending expenses: %w", err)
	}
	if len(schedules)+len(expenses) == 0 {
		return 0, nil
	}

	mirrored, failed := 0, 0
	for _, s := range schedules {
		if err := w.mirrorSchedule(ctx, s); err != nil {
			logger.ErrorContext(ctx, "Failed to mirror schedule", log.FieldRecordID, s.ID, log.FieldError, err.Error())
			failed++
			continue
		}
		mirrored++
	}
	for _, e := range expenses {
		if err := w.mirrorExpense(ctx, e); err != nil {
			logger.ErrorContext(ctx, "Failed to mirror expense", log.FieldRecordID, e.ID, log.FieldError, err.Error())
			failed++
			continue
		}
		mirrored++
	}

	logger.InfoContext(ctx, "Pending records swept",
		log.FieldCount, mirrored,
		"failed", failed)
	return mirrored, nil
}

// Run sweeps once immediately and then every interval until ctx is done.
func (w *MirrorWorker) Run(ctx context.Context, interval time.Duration) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentWorker)
	sweep := func() {
		if _, err := w.ProcessPending(ctx); err != nil && ctx.Err() == nil {
			logger.ErrorContext(ctx, "Pending sweep failed", log.FieldError, err.Error())
		}
	}

	sweep()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}

func (w *MirrorWorker) mirrorSchedule(ctx context.Context, s core.Schedule) error {
	ref, err := w.sink.AppendSchedule(ctx, s)
	if err != nil {
		return fmt.Errorf("append schedule %s: %w", s.ID, err)
	}
	w.markMirrored(ctx, storage.KindSchedule, s.ID, ref)
	return nil
}

func (w *MirrorWorker) mirrorExpense(ctx context.Context, e core.Expense) error {
	ref, err := w.sink.AppendExpense(ctx, e)
	if err != nil {
		return fmt.Errorf("append expense %s: %w", e.ID, err)
	}
	w.markMirrored(ctx, storage.KindExpense, e.ID, ref)
	return nil
}

// markMirrored records a successful append. On failure the record stays
// pending and the next sweep appends it again.
func (w *MirrorWorker) markMirrored(ctx context.Context, kind storage.RecordKind, id, ref string) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentWorker)
	if err := w.store.MarkMirrored(ctx, kind, id, w.clock.Now()); err != nil {
		logger.ErrorContext(ctx, "Failed to mark record mirrored",
			log.FieldRecordKind, string(kind),
			log.FieldRecordID, id,
			log.FieldError, err.Error())
		return
	}
	logger.InfoContext(ctx, "Record mirrored",
		log.FieldRecordKind, string(kind),
		log.FieldRecordID, id,
		"row", ref)
}
