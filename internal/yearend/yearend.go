// Package yearend closes an accounting year by moving the balances of all
// income and expense accounts into the profit account.
package yearend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/gledger-dev/gledger/internal/accounts"
	"github.com/gledger-dev/gledger/internal/journal"
	"github.com/gledger-dev/gledger/internal/model"
	"github.com/gledger-dev/gledger/internal/postmonth"
	"github.com/gledger-dev/gledger/internal/store"
)

const (
	// DefaultProfitAccount receives the result of the year.
	DefaultProfitAccount = "winst"
	// DefaultBatchSize caps the number of accounts zeroed by one close.
	DefaultBatchSize = 250
	// DefaultCurrency is the currency of the generated postings.
	DefaultCurrency = "EUR"
)

var (
	// ErrNoPreviousClose is returned when no boundary is given and no year
	// was closed before.
	ErrNoPreviousClose = errors.New("no previous closing date: pass one")
	// ErrCloseInFuture is returned for a boundary after today.
	ErrCloseInFuture = errors.New("can not close a year in the future")
	// ErrCloseTooLate is returned for a boundary more than a year after the
	// last close.
	ErrCloseTooLate = errors.New("can not close more than a year after the last close")
	// ErrCloseNotAfterLast is returned for a boundary on or before the last close.
	ErrCloseNotAfterLast = errors.New("year was already closed")
	// ErrOpenPostmonths is returned when a postmonth of the year is still active.
	ErrOpenPostmonths = errors.New("postmonths of the year have not been closed")
	// ErrNoProfitAccount is returned when the profit account does not exist.
	ErrNoProfitAccount = errors.New("profit account does not exist")
)

// Options configures a Service.
type Options struct {
	ProfitAccount string
	Currency      string
	BatchSize     int
}

func (o Options) withDefaults() Options {
	if o.ProfitAccount == "" {
		o.ProfitAccount = DefaultProfitAccount
	}
	if o.Currency == "" {
		o.Currency = DefaultCurrency
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	return o
}

// Params selects the year to close. StartNextYear is the first day of the
// new year; nil means one year after the last close. NumAccounts caps the
// accounts zeroed; zero uses the configured batch size.
type Params struct {
	StartNextYear *time.Time
	NumAccounts   int
}

// Result is a closed year.
type Result struct {
	StartNextYear time.Time
	Journal       model.Journal
}

// Service builds and posts year-end journals.
type Service struct {
	store *store.Store
	log   logrus.FieldLogger
	opts  Options
	now   func() time.Time
}

// NewService creates a Service.
func NewService(st *store.Store, log logrus.FieldLogger, opts Options) *Service {
	return &Service{store: st, log: log, opts: opts.withDefaults(), now: time.Now}
}

// SetClock replaces the clock used to reject closes in the future.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Preview builds the year-end journal without posting it.
func (s *Service) Preview(ctx context.Context, params Params) (journal.Payload, error) {
	p, _, err := Build(ctx, s.store.DB(), params, s.opts, s.now())
	return p, err
}

// Close builds the year-end journal, posts it and records the new closing
// date, all in one transaction.
func (s *Service) Close(ctx context.Context, params Params) (Result, error) {
	var res Result
	now := s.now()
	err := s.store.Transaction(ctx, func(tx *sql.Tx) error {
		p, start, err := Build(ctx, tx, params, s.opts, now)
		if err != nil {
			return err
		}
		p.Journal.ExtKey = ExtKey(start)
		j, err := journal.Submit(ctx, tx, p, now)
		if err != nil {
			return fmt.Errorf("posting year-end journal: %w", err)
		}
		if err := postmonth.RecordClose(ctx, tx, start); err != nil {
			return err
		}
		res = Result{StartNextYear: start, Journal: j}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	s.log.WithFields(logrus.Fields{
		"start_next_year": res.StartNextYear.Format(journal.DateLayout),
		"journal":         res.Journal.ID,
		"postings":        len(res.Journal.Postings),
	}).Info("year closed")
	return res, nil
}

// ExtKey is the external key of the journal closing the year before start.
func ExtKey(start time.Time) string {
	return fmt.Sprintf("yearend-%d", start.AddDate(0, 0, -1).Year())
}

// Build returns the journal that zeroes the old-year balance of every
// income and expense account on the boundary and books the result on the profit account, plus the
// boundary itself.
func Build(ctx context.Context, q store.Querier, params Params, opts Options, now time.Time) (journal.Payload, time.Time, error) {
	opts = opts.withDefaults()
	start, err := boundary(ctx, q, params.StartNextYear, now)
	if err != nil {
		return journal.Payload{}, time.Time{}, err
	}
	if err := checkClosed(ctx, q, start); err != nil {
		return journal.Payload{}, time.Time{}, err
	}

	profitAcct, err := accounts.ByName(ctx, q, opts.ProfitAccount)
	if errors.Is(err, accounts.ErrNoAccount) {
		return journal.Payload{}, time.Time{}, fmt.Errorf("%w: %q", ErrNoProfitAccount, opts.ProfitAccount)
	}
	if err != nil {
		return journal.Payload{}, time.Time{}, err
	}

	limit := params.NumAccounts
	if limit <= 0 {
		limit = opts.BatchSize
	}
	pl, err := store.AccountsByRole(ctx, q, []model.Role{model.RoleIncome, model.RoleExpense}, limit)
	if err != nil {
		return journal.Payload{}, time.Time{}, err
	}

	// Movements from the boundary's postmonth on belong to the new year.
	closing := postmonth.For(start.AddDate(0, -1, 0))
	valueDate := start.Format(journal.DateLayout)
	posting := func(acct model.Account, amount int64) journal.PostingPayload {
		return journal.PostingPayload{
			Account:     acct.Name,
			Currency:    opts.Currency,
			Amount:      decimal.NewFromInt(amount),
			DebitCredit: string(acct.DebitCredit()),
			ValueDate:   valueDate,
		}
	}

	postings := make([]journal.PostingPayload, 0, len(pl)+1)
	var profit int64
	for _, acct := range pl {
		balance, err := accounts.BalanceAt(ctx, q, acct, closing)
		if err != nil {
			return journal.Payload{}, time.Time{}, err
		}
		postings = append(postings, posting(acct, -balance))
		if acct.IsDebit() {
			profit += balance
		} else {
			profit -= balance
		}
	}
	if !profitAcct.IsDebit() {
		profit = -profit
	}
	postings = append(postings, posting(profitAcct, profit))

	return journal.Payload{Journal: journal.JournalPayload{
		Function: journal.FunctionInsert,
		Postings: postings,
	}}, start, nil
}

func boundary(ctx context.Context, q store.Querier, requested *time.Time, now time.Time) (time.Time, error) {
	last, err := postmonth.LastClose(ctx, q)
	hasLast := err == nil
	if err != nil && !errors.Is(err, postmonth.ErrNoCloseDate) {
		return time.Time{}, err
	}

	var start time.Time
	switch {
	case requested != nil:
		start = *requested
	case hasLast:
		start = last.AddDate(1, 0, 0)
	default:
		return time.Time{}, ErrNoPreviousClose
	}
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	if start.After(now) {
		return time.Time{}, fmt.Errorf("%w: %s", ErrCloseInFuture, start.Format(journal.DateLayout))
	}
	if hasLast {
		if !start.After(last) {
			return time.Time{}, fmt.Errorf("%w: %s is not after %s", ErrCloseNotAfterLast,
				start.Format(journal.DateLayout), last.Format(journal.DateLayout))
		}
		if start.After(last.AddDate(1, 0, 0)) {
			return time.Time{}, fmt.Errorf("%w: %s is after %s", ErrCloseTooLate,
				start.Format(journal.DateLayout), last.AddDate(1, 0, 0).Format(journal.DateLayout))
		}
	}
	return start, nil
}

func checkClosed(ctx context.Context, q store.Querier, start time.Time) error {
	open, err := postmonth.Between(ctx, q, start.AddDate(-1, 0, 0), start, model.PostmonthActive)
	if err != nil {
		return err
	}
	if len(open) == 0 {
		return nil
	}
	names := make([]string, len(open))
	for i, pm := range open {
		names[i] = postmonth.External(pm.Postmonth)
	}
	return fmt.Errorf("%w: %v", ErrOpenPostmonths, names)
}
