package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/eaglebank/transaction-api/shared/models"
	sharedredis "github.com/eaglebank/transaction-api/shared/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const transactionViewKeyPrefix = "transaction:view:"

// TransactionReadRepository handles all read operations for transactions.
// It uses Redis as the primary store for single reads, falling back to PostgreSQL on a miss.
type TransactionReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.TransactionView]
}

func NewTransactionReadRepository(db *sql.DB, redisClient *goredis.Client, ttl time.Duration, logger *zap.Logger) *TransactionReadRepository {
	return &TransactionReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.TransactionView](redisClient, ttl, logger),
	}
}

func transactionViewKey(id int64) string {
	return transactionViewKeyPrefix + strconv.FormatInt(id, 10)
}

// GetByID returns a TransactionView by attempting Redis first, then PostgreSQL.
func (r *TransactionReadRepository) GetByID(ctx context.Context, id int64) (*models.TransactionView, error) {
	if view, ok := r.cache.Get(ctx, transactionViewKey(id)); ok {
		return view, nil
	}

	query := `
		SELECT id, amount, currency, type, description, date
		FROM transactions
		WHERE id = $1
	`
	view, err := scanTransactionView(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	r.CacheTransactionView(ctx, &view)
	return &view, nil
}

// List returns every transaction from PostgreSQL, newest first.
func (r *TransactionReadRepository) List(ctx context.Context) ([]models.TransactionView, error) {
	query := `
		SELECT id, amount, currency, type, description, date
		FROM transactions
		ORDER BY date DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var views []models.TransactionView
	for rows.Next() {
		view, err := scanTransactionView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return views, nil
}

// CacheTransactionView stores the read model for a transaction in Redis.
func (r *TransactionReadRepository) CacheTransactionView(ctx context.Context, view *models.TransactionView) {
	r.cache.Set(ctx, transactionViewKey(view.ID), view)
}

// InvalidateTransactionView drops the cached read model of a removed
// transaction. A GetByID that loaded the row before the delete will not
// re-cache it.
func (r *TransactionReadRepository) InvalidateTransactionView(ctx context.Context, id int64) {
	r.cache.Evict(ctx, transactionViewKey(id))
}
