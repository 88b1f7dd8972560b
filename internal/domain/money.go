package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNegativeMoney   = errors.New("money amount cannot be negative")
	ErrInvalidCurrency = errors.New("invalid currency code")
)

// Money is a monetary value stored in the smallest currency unit (cents) to
// avoid floating point issues.
type Money struct {
	Amount   int64  `bson:"amount" json:"amount"`
	Currency string `bson:"currency" json:"currency"`
}

// NewMoney creates a money value. Currency must be a 3-letter ISO 4217 code.
func NewMoney(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, ErrNegativeMoney
	}
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// ZeroMoney creates a zero value in the given currency.
func ZeroMoney(currency string) Money {
	return Money{Amount: 0, Currency: currency}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// MultiplyQty returns the value of qty units at this unit price.
func (m Money) MultiplyQty(qty int) Money {
	return Money{Amount: m.Amount * int64(qty), Currency: m.Currency}
}

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.Amount/100, m.Amount%100, m.Currency)
}
