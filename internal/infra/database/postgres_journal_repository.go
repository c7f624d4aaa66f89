package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"product_registration_bot/internal/domain/registration"
)

// ErrJournalNotMigrated is returned when the journal table does not exist yet.
var ErrJournalNotMigrated = errors.New("submission journal table is missing, run the migrate command")

const undefinedTable = "42P01"

const journalColumns = `id, serial_no, user_name, user_phone, store_code, outcome, reconciled, retries, message, created_at`

// PostgresJournalRepository implements registration.Journal.
type PostgresJournalRepository struct {
	db *sql.DB
}

func NewPostgresJournalRepository(db *sql.DB) *PostgresJournalRepository {
	return &PostgresJournalRepository{db: db}
}

var _ registration.Journal = (*PostgresJournalRepository)(nil)

func wrapJournalErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == undefinedTable {
		return ErrJournalNotMigrated
	}
	return fmt.Errorf("error %s: %w", op, err)
}

func (r *PostgresJournalRepository) Record(ctx context.Context, e *registration.JournalEntry) error {
	query := `INSERT INTO submission_journal (serial_no, user_name, user_phone, store_code, outcome, reconciled, retries, message)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		e.SerialNo, e.UserName, e.UserPhone, e.StoreCode, e.Outcome, e.Reconciled, e.Retries, e.Message,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return wrapJournalErr("recording submission", err)
	}
	return nil
}

func (r *PostgresJournalRepository) ListBySerial(ctx context.Context, serialNo string) ([]*registration.JournalEntry, error) {
	query := `SELECT ` + journalColumns + `
               FROM submission_journal
               WHERE serial_no = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, serialNo)
	if err != nil {
		return nil, wrapJournalErr("listing journal by serial", err)
	}
	defer rows.Close()

	entries := make([]*registration.JournalEntry, 0)
	for rows.Next() {
		e := &registration.JournalEntry{}
		if err := rows.Scan(
			&e.ID, &e.SerialNo, &e.UserName, &e.UserPhone, &e.StoreCode,
			&e.Outcome, &e.Reconciled, &e.Retries, &e.Message, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning journal row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal rows: %w", err)
	}
	return entries, nil
}

// PruneBefore deletes entries older than cutoff and returns how many went.
func (r *PostgresJournalRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM submission_journal WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, wrapJournalErr("pruning journal", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error counting pruned journal rows: %w", err)
	}
	return n, nil
}
