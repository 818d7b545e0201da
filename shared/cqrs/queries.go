package cqrs

// GetTransactionQuery fetches a single transaction.
type GetTransactionQuery struct {
	TransactionID int64
}
