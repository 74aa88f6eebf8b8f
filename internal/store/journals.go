package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gledger-dev/gledger/internal/model"
)

const journalColumns = `id, extkey, status, updated_at`

const postingColumns = `p.id, p.journal_id, p.account_id, a.name, p.postmonth, p.currency,
	p.amount, p.debcred, p.value_date, p.updated_at`

// InsertJournal stores a new journal without its postings.
func InsertJournal(ctx context.Context, q Querier, j model.Journal) (model.Journal, error) {
	var extkey sql.NullString
	if j.ExtKey != "" {
		extkey = sql.NullString{String: j.ExtKey, Valid: true}
	}
	res, err := q.ExecContext(ctx, `INSERT INTO journals (extkey, status, updated_at) VALUES (?, ?, ?)`,
		extkey, string(j.Status), j.UpdatedAt.UTC())
	if err != nil {
		return model.Journal{}, fmt.Errorf("inserting journal: %w", err)
	}
	if j.ID, err = res.LastInsertId(); err != nil {
		return model.Journal{}, fmt.Errorf("reading journal id: %w", err)
	}
	return j, nil
}

// UpdateJournalStatus sets the status of a journal.
func UpdateJournalStatus(ctx context.Context, q Querier, id int64, status model.JournalStatus, now time.Time) error {
	res, err := q.ExecContext(ctx, `UPDATE journals SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), now.UTC(), id)
	if err != nil {
		return fmt.Errorf("updating journal %d: %w", id, err)
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

// JournalByID returns a journal without postings.
func JournalByID(ctx context.Context, q Querier, id int64) (model.Journal, error) {
	row := q.QueryRowContext(ctx, `SELECT `+journalColumns+` FROM journals WHERE id = ?`, id)
	j, err := scanJournal(row)
	return j, notFound(err)
}

// JournalByKey returns a journal without postings by its external key.
func JournalByKey(ctx context.Context, q Querier, extkey string) (model.Journal, error) {
	row := q.QueryRowContext(ctx, `SELECT `+journalColumns+` FROM journals WHERE extkey = ?`, extkey)
	j, err := scanJournal(row)
	return j, notFound(err)
}

// SearchJournals returns journals whose external key contains search,
// ordered by key descending.
func SearchJournals(ctx context.Context, q Querier, search string, offset, limit int) ([]model.Journal, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+journalColumns+` FROM journals
		WHERE instr(extkey, ?) > 0 ORDER BY extkey DESC LIMIT ? OFFSET ?`, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying journals: %w", err)
	}
	defer rows.Close()

	var res []model.Journal
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, j)
	}
	return res, rows.Err()
}

// CountJournals counts the journals SearchJournals would match.
func CountJournals(ctx context.Context, q Querier, search string) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM journals WHERE instr(extkey, ?) > 0`, search).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting journals: %w", err)
	}
	return n, nil
}

// InsertPosting stores a posting of a journal.
func InsertPosting(ctx context.Context, q Querier, p model.Posting) (model.Posting, error) {
	res, err := q.ExecContext(ctx, `INSERT INTO postings
		(journal_id, account_id, postmonth, currency, amount, debcred, value_date, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.JournalID, p.AccountID, p.Postmonth, p.Currency, p.Amount, string(p.DebitCredit),
		p.ValueDate.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		return model.Posting{}, fmt.Errorf("inserting posting: %w", err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return model.Posting{}, fmt.Errorf("reading posting id: %w", err)
	}
	return p, nil
}

// PostingsForJournal returns the postings of a journal in insertion order.
func PostingsForJournal(ctx context.Context, q Querier, journalID int64) ([]model.Posting, error) {
	return queryPostings(ctx, q, `SELECT `+postingColumns+` FROM postings p
		JOIN accounts a ON a.id = p.account_id
		WHERE p.journal_id = ? ORDER BY p.id`, journalID)
}

// PostingsForAccount returns postings of an account, newest first. A
// postmonth of zero matches all postmonths; a limit of -1 means no limit.
func PostingsForAccount(ctx context.Context, q Querier, accountID int64, postmonth, offset, limit int) ([]model.Posting, error) {
	return queryPostings(ctx, q, `SELECT `+postingColumns+` FROM postings p
		JOIN accounts a ON a.id = p.account_id
		WHERE p.account_id = ? AND (? = 0 OR p.postmonth = ?)
		ORDER BY p.updated_at DESC, p.id DESC LIMIT ? OFFSET ?`,
		accountID, postmonth, postmonth, limit, offset)
}

// CountPostingsForAccount counts the postings PostingsForAccount would match.
func CountPostingsForAccount(ctx context.Context, q Querier, accountID int64, postmonth int) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM postings
		WHERE account_id = ? AND (? = 0 OR postmonth = ?)`, accountID, postmonth, postmonth).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting postings: %w", err)
	}
	return n, nil
}

func queryPostings(ctx context.Context, q Querier, query string, args ...any) ([]model.Posting, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying postings: %w", err)
	}
	defer rows.Close()

	var res []model.Posting
	for rows.Next() {
		var (
			p  model.Posting
			dc string
		)
		if err := rows.Scan(&p.ID, &p.JournalID, &p.AccountID, &p.AccountName, &p.Postmonth, &p.Currency,
			&p.Amount, &dc, &p.ValueDate, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.DebitCredit = model.DebitCredit(dc)
		res = append(res, p)
	}
	return res, rows.Err()
}

func scanJournal(row scanner) (model.Journal, error) {
	var (
		j      model.Journal
		extkey sql.NullString
		status string
	)
	if err := row.Scan(&j.ID, &extkey, &status, &j.UpdatedAt); err != nil {
		return model.Journal{}, err
	}
	j.ExtKey = extkey.String
	j.Status = model.JournalStatus(status)
	return j, nil
}
