package services

import (
	"context"

	"paytrack/internal/core"
	"paytrack/internal/log"
	"paytrack/internal/period"
	"paytrack/internal/receipts"
	"paytrack/internal/storage"
)

// ExpenseService owns expense writes and the release of replaced receipts.
type ExpenseService struct {
	store       storage.ExpenseStore
	receipts    receipts.Releaser
	events      EventPublisher
	invalidator Invalidator
}

func NewExpenseService(store storage.ExpenseStore, releaser receipts.Releaser, events EventPublisher, invalidator Invalidator) *ExpenseService {
	return &ExpenseService{store: store, receipts: releaser, events: events, invalidator: invalidator}
}

func (s *ExpenseService) Create(ctx context.Context, ownerID string, e core.Expense) (core.Expense, error) {
	if ownerID == "" {
		return core.Expense{}, core.ErrUnauthenticated
	}
	e.ID = ""
	e.OwnerID = ownerID
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, err
	}
	s.afterWrite(ownerID)

	if s.events != nil {
		if err := s.events.PublishRecordCreated(ctx, string(storage.KindExpense), created.ID, ownerID); err != nil {
			log.FromContext(ctx).WithComponent(log.ComponentExpense).WarnContext(ctx, "Failed to publish expense event",
				log.FieldRecordID, created.ID,
				log.FieldError, err.Error())
		}
	}
	return created, nil
}

func (s *ExpenseService) Get(ctx context.Context, ownerID, id string) (core.Expense, error) {
	if ownerID == "" {
		return core.Expense{}, core.ErrUnauthenticated
	}
	return s.store.GetExpense(ctx, ownerID, id)
}

// Update replaces the expense. A nil receiptRef keeps the stored receipt; a
// non-nil one replaces it, and an empty one clears it. A replaced or cleared
// receipt is released once the update has committed.
func (s *ExpenseService) Update(ctx context.Context, ownerID, id string, e core.Expense, receiptRef *string) (core.Expense, error) {
	if ownerID == "" {
		return core.Expense{}, core.ErrUnauthenticated
	}
	e.ID = id
	e.OwnerID = ownerID
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	prev, err := s.store.GetExpense(ctx, ownerID, id)
	if err != nil {
		return core.Expense{}, err
	}
	e.ReceiptRef = prev.ReceiptRef
	if receiptRef != nil {
		e.ReceiptRef = *receiptRef
	}
	updated, err := s.store.UpdateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, err
	}
	s.afterWrite(ownerID)

	if prev.ReceiptRef != "" && prev.ReceiptRef != updated.ReceiptRef {
		s.release(ctx, prev.ReceiptRef)
	}
	return updated, nil
}

func (s *ExpenseService) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return core.ErrUnauthenticated
	}
	prev, err := s.store.GetExpense(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteExpense(ctx, ownerID, id); err != nil {
		return err
	}
	s.afterWrite(ownerID)
	s.release(ctx, prev.ReceiptRef)
	return nil
}

func (s *ExpenseService) List(ctx context.Context, ownerID string, r period.Range) ([]core.Expense, error) {
	if ownerID == "" {
		return nil, core.ErrUnauthenticated
	}
	from, until := r.DateBounds()
	return s.store.ListExpenses(ctx, ownerID, from, until)
}

func (s *ExpenseService) afterWrite(ownerID string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ownerID)
	}
}

// release failures are logged only: the record change is already committed
func (s *ExpenseService) release(ctx context.Context, ref string) {
	if ref == "" || s.receipts == nil {
		return
	}
	if err := s.receipts.Release(ctx, ref); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentReceipts).WarnContext(ctx, "Failed to release receipt",
			"receipt_ref", ref,
			log.FieldError, err.Error())
	}
}
