package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gledger-dev/gledger/internal/model"
)

const balanceColumns = `id, account_id, postmonth, currency, amount, value_date, updated_at`

// BalanceAt returns the balance row of an account for exactly postmonth.
func BalanceAt(ctx context.Context, q Querier, accountID int64, postmonth int) (model.Balance, error) {
	row := q.QueryRowContext(ctx, `SELECT `+balanceColumns+` FROM balances
		WHERE account_id = ? AND postmonth = ?`, accountID, postmonth)
	b, err := scanBalance(row)
	return b, notFound(err)
}

// LatestBalance returns the balance row with the highest postmonth that does
// not exceed maxPostmonth.
func LatestBalance(ctx context.Context, q Querier, accountID int64, maxPostmonth int) (model.Balance, error) {
	row := q.QueryRowContext(ctx, `SELECT `+balanceColumns+` FROM balances
		WHERE account_id = ? AND postmonth <= ?
		ORDER BY postmonth DESC LIMIT 1`, accountID, maxPostmonth)
	b, err := scanBalance(row)
	return b, notFound(err)
}

// BalancesForAccount returns all balance rows of an account, newest first.
func BalancesForAccount(ctx context.Context, q Querier, accountID int64) ([]model.Balance, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+balanceColumns+` FROM balances
		WHERE account_id = ? ORDER BY postmonth DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying balances: %w", err)
	}
	defer rows.Close()

	var res []model.Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

// InsertBalance stores a new balance row.
func InsertBalance(ctx context.Context, q Querier, b model.Balance) (model.Balance, error) {
	res, err := q.ExecContext(ctx, `INSERT INTO balances
		(account_id, postmonth, currency, amount, value_date, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.AccountID, b.Postmonth, b.Currency, b.Amount, b.ValueDate.UTC(), b.UpdatedAt.UTC())
	if err != nil {
		return model.Balance{}, fmt.Errorf("inserting balance %d/%d: %w", b.AccountID, b.Postmonth, err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return model.Balance{}, fmt.Errorf("reading balance id: %w", err)
	}
	return b, nil
}

// UpdateBalance writes the amount and value date of a balance row.
func UpdateBalance(ctx context.Context, q Querier, b model.Balance) error {
	_, err := q.ExecContext(ctx, `UPDATE balances SET amount = ?, value_date = ?, updated_at = ? WHERE id = ?`,
		b.Amount, b.ValueDate.UTC(), b.UpdatedAt.UTC(), b.ID)
	if err != nil {
		return fmt.Errorf("updating balance %d: %w", b.ID, err)
	}
	return nil
}

// ShiftLaterBalances adds delta to every balance row of the account with a
// postmonth after the given one.
func ShiftLaterBalances(ctx context.Context, q Querier, accountID int64, postmonth int, delta int64, now time.Time) error {
	_, err := q.ExecContext(ctx, `UPDATE balances SET amount = amount + ?, updated_at = ?
		WHERE account_id = ? AND postmonth > ?`, delta, now.UTC(), accountID, postmonth)
	if err != nil {
		return fmt.Errorf("shifting balances after %d: %w", postmonth, err)
	}
	return nil
}

func scanBalance(row scanner) (model.Balance, error) {
	var b model.Balance
	err := row.Scan(&b.ID, &b.AccountID, &b.Postmonth, &b.Currency, &b.Amount, &b.ValueDate, &b.UpdatedAt)
	return b, err
}
