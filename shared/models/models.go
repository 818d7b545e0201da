package models

import "time"

const (
	TransactionTypeCredit = "credit"
	TransactionTypeDebit  = "debit"
)

// Transaction is the persisted write model. ID is nil until the row is stored.
type Transaction struct {
	ID          *int64    `json:"id,omitempty"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
}

// Reservation is accepted by the reservation endpoints but not stored.
type Reservation struct {
	RoomID   string  `json:"roomId"`
	Price    float64 `json:"price"`
	CheckIn  string  `json:"checkIn"`
	CheckOut string  `json:"checkOut"`
}
