package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gledger-dev/gledger/internal/model"
	"github.com/gledger-dev/gledger/internal/postmonth"
	"github.com/gledger-dev/gledger/internal/store"
)

// CurrentBalance returns the balance of the latest postmonth that has a
// balance row, up to and including the current one. An account that was
// never posted to has balance 0.
func CurrentBalance(ctx context.Context, q store.Querier, acct model.Account, now time.Time) (int64, error) {
	return balanceAt(ctx, q, acct.ID, postmonth.For(now))
}

// BalanceAt returns the account's own balance at the end of postmonth pm,
// without its descendants.
func BalanceAt(ctx context.Context, q store.Querier, acct model.Account, pm int) (int64, error) {
	return balanceAt(ctx, q, acct.ID, pm)
}

// BalanceUltimo returns the balance of an account at the end of postmonth
// pm, plus the balances of all of its descendants.
func BalanceUltimo(ctx context.Context, q store.Querier, acct model.Account, pm int) (int64, error) {
	return subtreeBalance(ctx, q, acct, pm, map[int64]bool{})
}

func subtreeBalance(ctx context.Context, q store.Querier, acct model.Account, pm int, seen map[int64]bool) (int64, error) {
	if seen[acct.ID] {
		return 0, fmt.Errorf("%w at %q", ErrAccountCycle, acct.Name)
	}
	seen[acct.ID] = true

	total, err := balanceAt(ctx, q, acct.ID, pm)
	if err != nil {
		return 0, err
	}
	children, err := store.ChildAccounts(ctx, q, acct.ID)
	if err != nil {
		return 0, err
	}
	for _, child := range children {
		amount, err := subtreeBalance(ctx, q, child, pm, seen)
		if err != nil {
			return 0, err
		}
		total += amount
	}
	return total, nil
}

func balanceAt(ctx context.Context, q store.Querier, accountID int64, pm int) (int64, error) {
	b, err := store.LatestBalance(ctx, q, accountID, pm)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return b.Amount, nil
}

// PostAmount applies a movement to the balance of the postmonth of its
// value date and returns that postmonth's new balance. A movement on the
// account's own side increases the balance, one on the other side
// decreases it. Balances of later postmonths move by the same amount, so
// no later postmonth may be closed.
func PostAmount(ctx context.Context, q store.Querier, acct model.Account, m Movement, now time.Time) (int64, error) {
	if _, err := model.ParseDebitCredit(string(m.DebitCredit)); err != nil {
		return 0, err
	}
	pm := postmonth.For(m.ValueDate)
	if err := postmonth.CanPost(ctx, q, pm, now); err != nil {
		return 0, fmt.Errorf("posting to %q: %w", acct.Name, err)
	}
	if err := postmonth.CheckNoLaterClose(ctx, q, pm); err != nil {
		return 0, fmt.Errorf("posting to %q: %w", acct.Name, err)
	}

	delta := m.Amount
	if m.DebitCredit != acct.DebitCredit() {
		delta = -m.Amount
	}

	bal, err := store.BalanceAt(ctx, q, acct.ID, pm)
	switch {
	case errors.Is(err, store.ErrNotFound):
		opening, err := balanceAt(ctx, q, acct.ID, pm-1)
		if err != nil {
			return 0, err
		}
		bal = model.Balance{
			AccountID: acct.ID,
			Postmonth: pm,
			Currency:  m.Currency,
			Amount:    opening + delta,
			ValueDate: m.ValueDate,
			UpdatedAt: now,
		}
		if _, err := store.InsertBalance(ctx, q, bal); err != nil {
			return 0, err
		}
	case err != nil:
		return 0, err
	default:
		bal.Amount += delta
		bal.ValueDate = m.ValueDate
		bal.UpdatedAt = now
		if err := store.UpdateBalance(ctx, q, bal); err != nil {
			return 0, err
		}
	}

	if err := store.ShiftLaterBalances(ctx, q, acct.ID, pm, delta, now); err != nil {
		return 0, err
	}
	return bal.Amount, nil
}
