package journal

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gledger-dev/gledger/internal/model"
)

func TestCheckBalance(t *testing.T) {
	p := func(currency string, dc model.DebitCredit, amount int64) model.Posting {
		return model.Posting{Currency: currency, DebitCredit: dc, Amount: amount}
	}

	tests := []struct {
		name     string
		postings []model.Posting
		wantCur  string
		wantRes  string
	}{
		{"balanced", []model.Posting{p("EUR", model.Debit, 250), p("EUR", model.Credit, 230), p("EUR", model.Credit, 20)}, "", ""},
		{"unbalanced", []model.Posting{p("EUR", model.Debit, 230), p("EUR", model.Credit, 200)}, "EUR", "30"},
		{"negative amounts", []model.Posting{p("EUR", model.Debit, -1716), p("EUR", model.Credit, 1733), p("EUR", model.Debit, 3449)}, "", ""},
		{"each currency balanced", []model.Posting{
			p("EUR", model.Debit, 10), p("USD", model.Debit, 7), p("EUR", model.Credit, 10), p("USD", model.Credit, 7),
		}, "", ""},
		{"second currency unbalanced", []model.Posting{
			p("EUR", model.Debit, 10), p("EUR", model.Credit, 10), p("USD", model.Credit, 7),
		}, "USD", "-7"},
		{"sum beyond int64", []model.Posting{
			p("EUR", model.Debit, math.MaxInt64), p("EUR", model.Debit, math.MaxInt64), p("EUR", model.Debit, 2),
		}, "EUR", "18446744073709551616"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckBalance(tt.postings)
			if tt.wantCur == "" {
				assert.NoError(t, err)
				return
			}
			var balErr *BalanceError
			require.True(t, errors.As(err, &balErr))
			assert.Equal(t, tt.wantCur, balErr.Currency)
			assert.Equal(t, tt.wantRes, balErr.Residual.String())
			assert.ErrorIs(t, err, ErrUnbalanced)
		})
	}
}
