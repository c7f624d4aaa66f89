// internal/domain/registration/journal.go
package registration

import (
	"context"
	"time"
)

// JournalEntry is the local audit record of one terminal submission outcome.
type JournalEntry struct {
	ID         int64
	SerialNo   string
	UserName   string
	UserPhone  string
	StoreCode  string
	Outcome    OutcomeKind
	Reconciled bool
	Retries    int
	Message    string
	CreatedAt  time.Time
}

// Journal persists submission outcomes for operators.
type Journal interface {
	Record(ctx context.Context, e *JournalEntry) error
	ListBySerial(ctx context.Context, serialNo string) ([]*JournalEntry, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
