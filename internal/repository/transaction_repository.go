package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eaglebank/transaction-api/shared/models"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionWriteRepository handles all state-mutating operations for transactions.
// It operates exclusively against the PostgreSQL write store (source of truth).
type TransactionWriteRepository struct {
	db *sql.DB
}

func NewTransactionWriteRepository(db *sql.DB) *TransactionWriteRepository {
	return &TransactionWriteRepository{db: db}
}

// Create inserts transaction and copies the stored id, amount and date back
// into it.
func (r *TransactionWriteRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	query := `
		INSERT INTO transactions (amount, currency, type, description, date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, amount, date
	`
	var stored models.Transaction
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		transaction.Amount, transaction.Currency, transaction.Type,
		nullString(transaction.Description), transaction.Date,
	).Scan(&id, &stored.Amount, &stored.Date)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	transaction.ID = &id
	transaction.Amount = stored.Amount
	transaction.Date = stored.Date
	return nil
}

// Update overwrites the mutable fields of an existing transaction. The stored
// amount and the original date are copied back into transaction.
func (r *TransactionWriteRepository) Update(ctx context.Context, transaction *models.Transaction) error {
	if transaction.ID == nil {
		return fmt.Errorf("failed to update transaction: missing id")
	}
	query := `
		UPDATE transactions
		SET amount = $2, currency = $3, type = $4, description = $5
		WHERE id = $1
		RETURNING amount, date
	`
	err := r.db.QueryRowContext(ctx, query,
		*transaction.ID, transaction.Amount, transaction.Currency, transaction.Type,
		nullString(transaction.Description),
	).Scan(&transaction.Amount, &transaction.Date)
	if err == sql.ErrNoRows {
		return ErrTransactionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// Delete removes a transaction and returns the row as it was before removal.
func (r *TransactionWriteRepository) Delete(ctx context.Context, id int64) (*models.Transaction, error) {
	query := `
		DELETE FROM transactions
		WHERE id = $1
		RETURNING id, amount, currency, type, description, date
	`
	view, err := scanTransactionView(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete transaction: %w", err)
	}
	removed := view.ToTransaction()
	return &removed, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransactionView(row rowScanner) (models.TransactionView, error) {
	var view models.TransactionView
	var description sql.NullString
	if err := row.Scan(
		&view.ID, &view.Amount, &view.Currency,
		&view.Type, &description, &view.Date,
	); err != nil {
		return models.TransactionView{}, err
	}
	if description.Valid {
		view.Description = description.String
	}
	return view, nil
}
