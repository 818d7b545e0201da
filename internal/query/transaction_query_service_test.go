package query

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/eaglebank/transaction-api/internal/repository"
	"github.com/eaglebank/transaction-api/shared/cqrs"
	"github.com/eaglebank/transaction-api/shared/models"
	"github.com/eaglebank/transaction-api/shared/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReader struct {
	getFn  func(int64) (*models.TransactionView, error)
	listFn func() ([]models.TransactionView, error)
}

func (m *mockReader) GetByID(_ context.Context, id int64) (*models.TransactionView, error) {
	if m.getFn != nil {
		return m.getFn(id)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockReader) List(context.Context) ([]models.TransactionView, error) {
	if m.listFn != nil {
		return m.listFn()
	}
	return nil, fmt.Errorf("not configured")
}

var testView = models.TransactionView{
	ID: 1, Amount: 10, Currency: "USD", Type: "credit",
	Date: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
}

func TestFindAll(t *testing.T) {
	tests := []struct {
		name     string
		listFn   func() ([]models.TransactionView, error)
		wantLen  int
		wantKind *response.Kind
	}{
		{
			name:    "returns every transaction",
			listFn:  func() ([]models.TransactionView, error) { return []models.TransactionView{testView, testView}, nil },
			wantLen: 2,
		},
		{
			name:    "empty table yields empty result",
			listFn:  func() ([]models.TransactionView, error) { return nil, nil },
			wantLen: 0,
		},
		{
			name:     "storage failure is internal",
			listFn:   func() ([]models.TransactionView, error) { return nil, errors.New("db down") },
			wantKind: kindPtr(response.KindInternal),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewTransactionQueryService(&mockReader{listFn: tt.listFn})

			got, err := svc.FindAll(context.Background())

			if tt.wantKind != nil {
				require.Error(t, err)
				assert.Equal(t, *tt.wantKind, response.KindOf(err))
				assert.Equal(t, "Failed to list transactions", response.MessageOf(err))
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
			assert.NotNil(t, got)
		})
	}
}

func TestFindByID(t *testing.T) {
	tests := []struct {
		name    string
		getFn   func(int64) (*models.TransactionView, error)
		wantLen int
		wantErr bool
	}{
		{
			name:    "found",
			getFn:   func(int64) (*models.TransactionView, error) { v := testView; return &v, nil },
			wantLen: 1,
		},
		{
			name:    "missing yields empty result",
			getFn:   func(int64) (*models.TransactionView, error) { return nil, repository.ErrTransactionNotFound },
			wantLen: 0,
		},
		{
			name:    "storage failure",
			getFn:   func(int64) (*models.TransactionView, error) { return nil, errors.New("timeout") },
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewTransactionQueryService(&mockReader{getFn: tt.getFn})

			got, err := svc.FindByID(context.Background(), cqrs.GetTransactionQuery{TransactionID: 1})

			if tt.wantErr {
				assert.Equal(t, response.KindInternal, response.KindOf(err))
				return
			}
			require.NoError(t, err)
			require.Len(t, got, tt.wantLen)
			if tt.wantLen == 1 {
				require.NotNil(t, got[0].ID)
				assert.Equal(t, int64(1), *got[0].ID)
			}
		})
	}
}

func kindPtr(k response.Kind) *response.Kind { return &k }
