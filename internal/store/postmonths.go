package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gledger-dev/gledger/internal/model"
)

// InsertPostmonth stores a new postmonth record.
func InsertPostmonth(ctx context.Context, q Querier, pm model.Postmonth) error {
	_, err := q.ExecContext(ctx, `INSERT INTO postmonths (postmonth, status, updated_at) VALUES (?, ?, ?)`,
		pm.Postmonth, string(pm.Status), pm.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting postmonth %d: %w", pm.Postmonth, err)
	}
	return nil
}

// PostmonthByKey returns the record for a YYYYMM postmonth.
func PostmonthByKey(ctx context.Context, q Querier, postmonth int) (model.Postmonth, error) {
	row := q.QueryRowContext(ctx, `SELECT postmonth, status, updated_at FROM postmonths WHERE postmonth = ?`, postmonth)
	pm, err := scanPostmonth(row)
	return pm, notFound(err)
}

// UpdatePostmonthStatus sets the status of a postmonth.
func UpdatePostmonthStatus(ctx context.Context, q Querier, postmonth int, status model.PostmonthStatus, now time.Time) error {
	res, err := q.ExecContext(ctx, `UPDATE postmonths SET status = ?, updated_at = ? WHERE postmonth = ?`,
		string(status), now.UTC(), postmonth)
	if err != nil {
		return fmt.Errorf("updating postmonth %d: %w", postmonth, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrNotFound
	}
	return nil
}

// PostmonthsBetween returns the postmonths in [from, to), ascending. An
// empty status matches every status.
func PostmonthsBetween(ctx context.Context, q Querier, from, to int, status model.PostmonthStatus) ([]model.Postmonth, error) {
	return queryPostmonths(ctx, q, `SELECT postmonth, status, updated_at FROM postmonths
		WHERE postmonth >= ? AND postmonth < ? AND (? = '' OR status = ?)
		ORDER BY postmonth`, from, to, string(status), string(status))
}

// FirstPostmonthAfter returns the earliest postmonth after the given one
// with the given status.
func FirstPostmonthAfter(ctx context.Context, q Querier, postmonth int, status model.PostmonthStatus) (model.Postmonth, error) {
	row := q.QueryRowContext(ctx, `SELECT postmonth, status, updated_at FROM postmonths
		WHERE postmonth > ? AND status = ? ORDER BY postmonth LIMIT 1`, postmonth, string(status))
	pm, err := scanPostmonth(row)
	return pm, notFound(err)
}

// ListPostmonths returns postmonths from the given one onwards, ascending.
func ListPostmonths(ctx context.Context, q Querier, from, offset, limit int) ([]model.Postmonth, error) {
	return queryPostmonths(ctx, q, `SELECT postmonth, status, updated_at FROM postmonths
		WHERE postmonth >= ? ORDER BY postmonth LIMIT ? OFFSET ?`, from, limit, offset)
}

// CountPostmonths counts postmonths from the given one onwards.
func CountPostmonths(ctx context.Context, q Querier, from int) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM postmonths WHERE postmonth >= ?`, from).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting postmonths: %w", err)
	}
	return n, nil
}

// InsertCloseDate records the first date of a newly opened accounting year.
func InsertCloseDate(ctx context.Context, q Querier, cd model.CloseDate) error {
	if _, err := q.ExecContext(ctx, `INSERT INTO closedates (closing_date) VALUES (?)`, cd.ClosingDate.UTC()); err != nil {
		return fmt.Errorf("inserting close date: %w", err)
	}
	return nil
}

// LatestCloseDate returns the most recent close date.
func LatestCloseDate(ctx context.Context, q Querier) (model.CloseDate, error) {
	var cd model.CloseDate
	err := q.QueryRowContext(ctx, `SELECT closing_date FROM closedates ORDER BY closing_date DESC LIMIT 1`).
		Scan(&cd.ClosingDate)
	return cd, notFound(err)
}

func queryPostmonths(ctx context.Context, q Querier, query string, args ...any) ([]model.Postmonth, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying postmonths: %w", err)
	}
	defer rows.Close()

	var res []model.Postmonth
	for rows.Next() {
		pm, err := scanPostmonth(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, pm)
	}
	return res, rows.Err()
}

func scanPostmonth(row scanner) (model.Postmonth, error) {
	var (
		pm     model.Postmonth
		status string
	)
	if err := row.Scan(&pm.Postmonth, &status, &pm.UpdatedAt); err != nil {
		return model.Postmonth{}, err
	}
	pm.Status = model.PostmonthStatus(status)
	return pm, nil
}
