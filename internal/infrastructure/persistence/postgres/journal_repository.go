package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yuzvak/storefront-checkout/internal/application/ports"
	"github.com/yuzvak/storefront-checkout/internal/infrastructure/monitoring"
)

// JournalRepository appends checkout milestones to checkout_journal.
type JournalRepository struct {
	db *sql.DB
}

func NewJournalRepository(conn *Connection) *JournalRepository {
	return &JournalRepository{
		db: conn.GetDB(),
	}
}

func (r *JournalRepository) Record(ctx context.Context, entry ports.JournalEntry) error {
	query := `
		INSERT INTO checkout_journal (
			session_id, shopper_id, event, step, transaction_id, request_id,
			amount, currency, status, message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := monitoring.InstrumentExec(ctx, r.db, "INSERT", "checkout_journal", query,
		entry.SessionID,
		entry.ShopperID,
		string(entry.Event),
		entry.Step,
		nullString(entry.TransactionID),
		nullString(entry.RequestID),
		entry.Amount.String(),
		entry.Currency,
		nullString(entry.Status),
		nullString(entry.Message),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record journal entry: %w", err)
	}
	return nil
}

func (r *JournalRepository) ListBySession(ctx context.Context, sessionID string) ([]ports.JournalEntry, error) {
	query := `
		SELECT session_id, shopper_id, event, step, transaction_id, request_id,
			amount::text, currency, status, message, created_at
		FROM checkout_journal
		WHERE session_id = $1
		ORDER BY created_at, id
	`

	rows, err := monitoring.InstrumentQuery(ctx, r.db, "SELECT", "checkout_journal", query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []ports.JournalEntry
	for rows.Next() {
		var (
			entry                            ports.JournalEntry
			event, amount                    string
			txID, requestID, status, message sql.NullString
		)
		if err := rows.Scan(
			&entry.SessionID, &entry.ShopperID, &event, &entry.Step, &txID, &requestID,
			&amount, &entry.Currency, &status, &message, &entry.CreatedAt,
		); err != nil {
			return nil, err
		}

		entry.Event = ports.JournalEvent(event)
		entry.TransactionID = txID.String
		entry.RequestID = requestID.String
		entry.Status = status.String
		entry.Message = message.String
		entry.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse journal amount %q: %w", amount, err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
