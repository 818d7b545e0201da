package query

import (
	"context"
	"errors"

	"github.com/eaglebank/transaction-api/internal/repository"
	"github.com/eaglebank/transaction-api/shared/cqrs"
	"github.com/eaglebank/transaction-api/shared/models"
	"github.com/eaglebank/transaction-api/shared/response"
)

// TransactionReader is the read-side storage used by TransactionQueryService.
type TransactionReader interface {
	GetByID(ctx context.Context, id int64) (*models.TransactionView, error)
	List(ctx context.Context) ([]models.TransactionView, error)
}

// TransactionQueryService serves transaction reads. A lookup that matches
// nothing yields an empty result, not an error.
type TransactionQueryService struct {
	readRepo TransactionReader
}

func NewTransactionQueryService(readRepo TransactionReader) *TransactionQueryService {
	return &TransactionQueryService{readRepo: readRepo}
}

func (s *TransactionQueryService) FindAll(ctx context.Context) ([]models.Transaction, error) {
	views, err := s.readRepo.List(ctx)
	if err != nil {
		return nil, response.Internal("Failed to list transactions", err)
	}
	transactions := make([]models.Transaction, 0, len(views))
	for _, v := range views {
		transactions = append(transactions, v.ToTransaction())
	}
	return transactions, nil
}

func (s *TransactionQueryService) FindByID(ctx context.Context, q cqrs.GetTransactionQuery) ([]models.Transaction, error) {
	view, err := s.readRepo.GetByID(ctx, q.TransactionID)
	if errors.Is(err, repository.ErrTransactionNotFound) {
		return []models.Transaction{}, nil
	}
	if err != nil {
		return nil, response.Internal("Failed to get transaction", err)
	}
	return []models.Transaction{view.ToTransaction()}, nil
}
