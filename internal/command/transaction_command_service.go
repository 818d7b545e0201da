package command

import (
	"context"
	"errors"
	"time"

	"github.com/eaglebank/transaction-api/internal/repository"
	"github.com/eaglebank/transaction-api/shared/cqrs"
	"github.com/eaglebank/transaction-api/shared/events"
	"github.com/eaglebank/transaction-api/shared/logger"
	"github.com/eaglebank/transaction-api/shared/models"
	"github.com/eaglebank/transaction-api/shared/response"
	"go.uber.org/zap"
)

// TransactionWriter is the write-side storage used by TransactionCommandService.
type TransactionWriter interface {
	Create(ctx context.Context, transaction *models.Transaction) error
	Update(ctx context.Context, transaction *models.Transaction) error
	Delete(ctx context.Context, id int64) (*models.Transaction, error)
}

// ViewCache keeps the read model in step with writes.
type ViewCache interface {
	CacheTransactionView(ctx context.Context, view *models.TransactionView)
	InvalidateTransactionView(ctx context.Context, id int64)
}

// TransactionCommandService writes transactions to Postgres, refreshes the
// Redis read model and publishes a transaction.* event for every change.
type TransactionCommandService struct {
	writeRepo TransactionWriter
	views     ViewCache
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewTransactionCommandService(
	writeRepo TransactionWriter,
	views ViewCache,
	publisher events.Publisher,
	logger *zap.Logger,
) *TransactionCommandService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionCommandService{
		writeRepo: writeRepo,
		views:     views,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Save stores a new transaction dated now. The response and the cached view
// carry the values as stored.
func (s *TransactionCommandService) Save(ctx context.Context, cmd cqrs.CreateTransactionCommand) ([]models.Transaction, error) {
	transaction := models.Transaction{
		Amount:      cmd.Amount,
		Currency:    cmd.Currency,
		Type:        cmd.Type,
		Description: cmd.Description,
		Date:        s.now().UTC(),
	}
	if err := s.writeRepo.Create(ctx, &transaction); err != nil {
		return nil, response.Internal("Failed to save transaction", err)
	}
	s.views.CacheTransactionView(ctx, models.NewTransactionView(transaction))
	s.publish(ctx, events.TransactionCreated, transaction)
	return []models.Transaction{transaction}, nil
}

func (s *TransactionCommandService) Update(ctx context.Context, cmd cqrs.UpdateTransactionCommand) ([]models.Transaction, error) {
	id := cmd.TransactionID
	transaction := models.Transaction{
		ID:          &id,
		Amount:      cmd.Amount,
		Currency:    cmd.Currency,
		Type:        cmd.Type,
		Description: cmd.Description,
	}
	if err := s.writeRepo.Update(ctx, &transaction); err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, response.NotFound("Transaction not found")
		}
		return nil, response.Internal("Failed to update transaction", err)
	}
	s.views.CacheTransactionView(ctx, models.NewTransactionView(transaction))
	s.publish(ctx, events.TransactionUpdated, transaction)
	return []models.Transaction{transaction}, nil
}

// Remove deletes a transaction and returns it as it was stored.
func (s *TransactionCommandService) Remove(ctx context.Context, cmd cqrs.DeleteTransactionCommand) ([]models.Transaction, error) {
	removed, err := s.writeRepo.Delete(ctx, cmd.TransactionID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, response.NotFound("Transaction not found")
		}
		return nil, response.Internal("Failed to remove transaction", err)
	}
	s.views.InvalidateTransactionView(ctx, cmd.TransactionID)
	s.publish(ctx, events.TransactionDeleted, *removed)
	return []models.Transaction{*removed}, nil
}

// publish is best effort: the write has already succeeded.
func (s *TransactionCommandService) publish(ctx context.Context, eventType string, t models.Transaction) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), events.PublishTimeout)
	defer cancel()

	err := s.publisher.Publish(pubCtx, events.TransactionEventsStream, eventType, events.TransactionEvent{
		TransactionID: *t.ID,
		Amount:        t.Amount,
		Currency:      t.Currency,
		Type:          t.Type,
	})
	if err != nil {
		logger.WithRequestID(ctx, s.logger).Warn("failed to publish event",
			zap.String("event", eventType),
			zap.Int64("transaction_id", *t.ID),
			zap.Error(err),
		)
	}
}
