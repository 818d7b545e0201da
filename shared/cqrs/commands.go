package cqrs

type CreateTransactionCommand struct {
	Amount      float64
	Currency    string
	Type        string
	Description string
}

type UpdateTransactionCommand struct {
	TransactionID int64
	Amount        float64
	Currency      string
	Type          string
	Description   string
}

type DeleteTransactionCommand struct {
	TransactionID int64
}
