package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"spendlog/internal/amqp"
	"spendlog/internal/log"
	"spendlog/internal/sheets"
	"spendlog/internal/storage"
)

// SyncWorker mirrors newly created expenses into a spreadsheet.
type SyncWorker struct {
	store  storage.ExpenseStore
	sheets sheets.ExpenseWriter

	synced  int64
	skipped int64
	failed  int64
}

// Stats counts processed messages by outcome.
type Stats struct {
	Synced  int64
	Skipped int64
	Failed  int64
}

func NewSyncWorker(store storage.ExpenseStore, writer sheets.ExpenseWriter) *SyncWorker {
	return &SyncWorker{store: store, sheets: writer}
}

// HandleExpenseCreated re-reads the announced expense and appends it to the
// sheet. An expense that no longer resolves is skipped so the message is
// acknowledged; any other failure is returned and the message requeued.
func (w *SyncWorker) HandleExpenseCreated(ctx context.Context, msg *amqp.ExpenseCreatedMessage) error {
	slog.DebugContext(ctx, "Processing expense created message",
		log.FieldOwnerID, msg.OwnerID,
		log.FieldExpenseID, msg.ExpenseID,
		"published_at", msg.Timestamp)

	expense, err := w.store.FindExpense(ctx, msg.OwnerID, msg.ExpenseID)
	if errors.Is(err, storage.ErrNotFound) {
		atomic.AddInt64(&w.skipped, 1)
		slog.WarnContext(ctx, "Expense not found, skipping sheet sync",
			log.FieldOwnerID, msg.OwnerID,
			log.FieldExpenseID, msg.ExpenseID)
		return nil
	}
	if err != nil {
		atomic.AddInt64(&w.failed, 1)
		return fmt.Errorf("get expense from storage: %w", err)
	}

	ref, err := w.sheets.Append(ctx, expense)
	if err != nil {
		atomic.AddInt64(&w.failed, 1)
		return fmt.Errorf("append to sheets: %w", err)
	}

	atomic.AddInt64(&w.synced, 1)
	slog.InfoContext(ctx, "Successfully synced expense",
		log.FieldOperation, log.OpSync,
		log.FieldOwnerID, expense.OwnerID,
		log.FieldExpenseID, expense.ID,
		log.FieldSheetRange, ref,
		log.FieldAmountMinor, expense.Amount.Minor)
	return nil
}

// Stats returns the outcome counters.
func (w *SyncWorker) Stats() Stats {
	return Stats{
		Synced:  atomic.LoadInt64(&w.synced),
		Skipped: atomic.LoadInt64(&w.skipped),
		Failed:  atomic.LoadInt64(&w.failed),
	}
}
