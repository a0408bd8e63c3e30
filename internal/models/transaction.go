package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID       int64
	UserID   int64
	Amount   decimal.Decimal
	Currency string
	Date     time.Time
	Tag      string
}

// Balance is the per-currency sum of a user's transactions.
type Balance struct {
	Currency string
	Total    decimal.Decimal
}
