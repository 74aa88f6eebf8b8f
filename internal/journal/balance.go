package journal

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/gledger-dev/gledger/internal/model"
)

// ErrUnbalanced is matched by every *BalanceError.
var ErrUnbalanced = errors.New("journal does not balance")

// BalanceError reports the residual of the first currency whose debits and
// credits differ.
type BalanceError struct {
	Currency string
	Residual decimal.Decimal // debits minus credits, minor units
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("journal does not balance in %s: residual %s", e.Currency, e.Residual)
}

func (e *BalanceError) Unwrap() error {
	return ErrUnbalanced
}

// CheckBalance requires the debits and credits of every currency to be
// equal. Sums are exact, so large amounts can not wrap around to zero.
func CheckBalance(postings []model.Posting) error {
	sums := make(map[string]decimal.Decimal)
	for _, p := range postings {
		sums[p.Currency] = sums[p.Currency].Add(decimal.NewFromInt(p.Signed()))
	}
	currencies := make([]string, 0, len(sums))
	for c := range sums {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)
	for _, c := range currencies {
		if !sums[c].IsZero() {
			return &BalanceError{Currency: c, Residual: sums[c]}
		}
	}
	return nil
}

