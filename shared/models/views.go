package models

import "time"

// TransactionView is the read-optimised projection of a transaction kept in Redis.
type TransactionView struct {
	ID          int64     `json:"id"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
}

func (v TransactionView) ToTransaction() Transaction {
	id := v.ID
	return Transaction{
		ID:          &id,
		Amount:      v.Amount,
		Currency:    v.Currency,
		Type:        v.Type,
		Description: v.Description,
		Date:        v.Date,
	}
}

// NewTransactionView projects a stored transaction. t.ID must be set.
func NewTransactionView(t Transaction) *TransactionView {
	return &TransactionView{
		ID:          *t.ID,
		Amount:      t.Amount,
		Currency:    t.Currency,
		Type:        t.Type,
		Description: t.Description,
		Date:        t.Date,
	}
}
