package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/gledger-dev/gledger/internal/accounts"
	"github.com/gledger-dev/gledger/internal/model"
	"github.com/gledger-dev/gledger/internal/page"
	"github.com/gledger-dev/gledger/internal/postmonth"
	"github.com/gledger-dev/gledger/internal/store"
)

// DefaultPageLength is the number of postings or journals listed per page.
const DefaultPageLength = 25

// MinSearchLength is the shortest search string accepted by Search.
const MinSearchLength = 3

var (
	// ErrInvalidJournal is returned for a payload that can not be turned
	// into a journal.
	ErrInvalidJournal = errors.New("invalid journal")
	// ErrNoPostings is returned for a journal without postings.
	ErrNoPostings = errors.New("journal has no postings")
	// ErrNoJournal is returned when a requested journal does not exist.
	ErrNoJournal = errors.New("no journal")
	// ErrDuplicateKey is returned when the external key is already in use.
	ErrDuplicateKey = errors.New("journal external key already exists")
	// ErrNotUnprocessed is returned when posting a journal that was
	// already processed or failed.
	ErrNotUnprocessed = errors.New("journal is not unprocessed")
	// ErrShortSearchString is returned for search strings that would match too much.
	ErrShortSearchString = errors.New("search string must be at least 3 characters")
)

// Service creates journals and posts them to account balances.
type Service struct {
	store *store.Store
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewService creates a journal Service.
func NewService(st *store.Store, log logrus.FieldLogger) *Service {
	return &Service{store: st, log: log, now: time.Now}
}

// SetClock replaces the clock used for timestamps and the current postmonth.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create stores a journal and its postings as Unprocessed. Balances are
// not touched.
func (s *Service) Create(ctx context.Context, p Payload) (model.Journal, error) {
	var j model.Journal
	err := s.store.Transaction(ctx, func(tx *sql.Tx) error {
		var err error
		j, err = Create(ctx, tx, p, s.now())
		return err
	})
	if err != nil {
		s.reject(p, err)
		return model.Journal{}, err
	}
	s.log.WithFields(logrus.Fields{"journal": j.ID, "extkey": j.ExtKey}).Info("journal created")
	return j, nil
}

// Post applies an Unprocessed journal to the balances. When any posting
// fails nothing is applied and the journal is marked Failed.
func (s *Service) Post(ctx context.Context, id int64) (model.Journal, error) {
	var j model.Journal
	err := s.store.Transaction(ctx, func(tx *sql.Tx) error {
		var err error
		j, err = Post(ctx, tx, id, s.now())
		return err
	})
	if err == nil {
		s.log.WithFields(logrus.Fields{"journal": j.ID, "postings": len(j.Postings)}).Info("journal posted")
		return j, nil
	}
	if errors.Is(err, ErrNoJournal) || errors.Is(err, ErrNotUnprocessed) {
		return model.Journal{}, err
	}

	s.log.WithError(err).WithField("journal", id).Warn("journal failed")
	markErr := s.store.Transaction(ctx, func(tx *sql.Tx) error {
		return store.UpdateJournalStatus(ctx, tx, id, model.JournalFailed, s.now())
	})
	if markErr != nil {
		return model.Journal{}, fmt.Errorf("%w (marking journal %d failed: %v)", err, id, markErr)
	}
	return model.Journal{}, err
}

// Submit creates and posts a journal in one transaction. When it fails the
// ledger is left exactly as it was.
func (s *Service) Submit(ctx context.Context, p Payload) (model.Journal, error) {
	var j model.Journal
	err := s.store.Transaction(ctx, func(tx *sql.Tx) error {
		var err error
		j, err = Submit(ctx, tx, p, s.now())
		return err
	})
	if err != nil {
		s.reject(p, err)
		return model.Journal{}, err
	}
	s.log.WithFields(logrus.Fields{
		"journal":  j.ID,
		"extkey":   j.ExtKey,
		"postings": len(j.Postings),
	}).Info("journal posted")
	return j, nil
}

func (s *Service) reject(p Payload, err error) {
	s.log.WithError(err).WithFields(logrus.Fields{
		"extkey":   p.Journal.ExtKey,
		"postings": len(p.Journal.Postings),
	}).Warn("journal rejected")
}

// ByID returns a journal with its postings.
func (s *Service) ByID(ctx context.Context, id int64) (model.Journal, error) {
	return ByID(ctx, s.store.DB(), id)
}

// ByKey returns a journal with its postings by external key.
func (s *Service) ByKey(ctx context.Context, extkey string) (model.Journal, error) {
	j, err := store.JournalByKey(ctx, s.store.DB(), extkey)
	if errors.Is(err, store.ErrNotFound) {
		return model.Journal{}, fmt.Errorf("%w for key %q", ErrNoJournal, extkey)
	}
	if err != nil {
		return model.Journal{}, err
	}
	return withPostings(ctx, s.store.DB(), j)
}

// PostingsForAccount returns a page of the postings of an account, newest
// first. A non-empty month in MM-YYYY form limits them to one postmonth.
func (s *Service) PostingsForAccount(ctx context.Context, accountName, month string, req page.Request) (page.Page[model.Posting], error) {
	db := s.store.DB()
	acct, err := accounts.ByName(ctx, db, accountName)
	if err != nil {
		return page.Page[model.Posting]{}, err
	}
	var pm int
	if month != "" {
		if pm, err = postmonth.Internal(month); err != nil {
			return page.Page[model.Posting]{}, err
		}
	}
	items, err := store.PostingsForAccount(ctx, db, acct.ID, pm, req.Offset(), req.Limit())
	if err != nil {
		return page.Page[model.Posting]{}, err
	}
	total, err := store.CountPostingsForAccount(ctx, db, acct.ID, pm)
	if err != nil {
		return page.Page[model.Posting]{}, err
	}
	return page.Of(req, items, total), nil
}

// Search returns a page of journals whose external key contains search,
// by key descending. An empty search returns an empty page.
func (s *Service) Search(ctx context.Context, search string, req page.Request) (page.Page[model.Journal], error) {
	if search == "" {
		return page.Of[model.Journal](req, nil, 0), nil
	}
	if utf8.RuneCountInString(search) < MinSearchLength {
		return page.Page[model.Journal]{}, ErrShortSearchString
	}
	db := s.store.DB()
	items, err := store.SearchJournals(ctx, db, search, req.Offset(), req.Limit())
	if err != nil {
		return page.Page[model.Journal]{}, err
	}
	total, err := store.CountJournals(ctx, db, search)
	if err != nil {
		return page.Page[model.Journal]{}, err
	}
	return page.Of(req, items, total), nil
}

// Create validates a payload and stores it as an Unprocessed journal.
func Create(ctx context.Context, q store.Querier, p Payload, now time.Time) (model.Journal, error) {
	if err := Validate(p); err != nil {
		return model.Journal{}, err
	}

	j, err := store.InsertJournal(ctx, q, model.Journal{
		ExtKey:    p.Journal.ExtKey,
		Status:    model.JournalUnprocessed,
		UpdatedAt: now,
	})
	if store.IsUniqueViolation(err) {
		return model.Journal{}, fmt.Errorf("%w: %q", ErrDuplicateKey, p.Journal.ExtKey)
	}
	if err != nil {
		return model.Journal{}, err
	}

	for i, pp := range p.Journal.Postings {
		posting, err := newPosting(ctx, q, j.ID, pp, now)
		if err != nil {
			return model.Journal{}, fmt.Errorf("posting %d: %w", i+1, err)
		}
		posting, err = store.InsertPosting(ctx, q, posting)
		if err != nil {
			return model.Journal{}, err
		}
		j.Postings = append(j.Postings, posting)
	}
	return j, nil
}

func newPosting(ctx context.Context, q store.Querier, journalID int64, pp PostingPayload, now time.Time) (model.Posting, error) {
	acct, err := accounts.ByName(ctx, q, pp.Account)
	if err != nil {
		return model.Posting{}, fmt.Errorf("%w: %w", ErrInvalidJournal, err)
	}
	dc, err := model.ParseDebitCredit(pp.DebitCredit)
	if err != nil {
		return model.Posting{}, err
	}
	valueDate, err := time.Parse(DateLayout, pp.ValueDate)
	if err != nil {
		return model.Posting{}, fmt.Errorf("%w: value date: %v", ErrInvalidJournal, err)
	}
	return model.Posting{
		JournalID:   journalID,
		AccountID:   acct.ID,
		AccountName: acct.Name,
		Postmonth:   postmonth.For(valueDate),
		Currency:    pp.Currency,
		Amount:      pp.Amount.IntPart(),
		DebitCredit: dc,
		ValueDate:   valueDate,
		UpdatedAt:   now,
	}, nil
}

// Post checks that an Unprocessed journal balances, applies every posting
// to its account and marks the journal Processed.
func Post(ctx context.Context, q store.Querier, id int64, now time.Time) (model.Journal, error) {
	j, err := ByID(ctx, q, id)
	if err != nil {
		return model.Journal{}, err
	}
	if j.Status != model.JournalUnprocessed {
		return model.Journal{}, fmt.Errorf("%w: journal %d is %s", ErrNotUnprocessed, id, j.Status.Name())
	}
	return apply(ctx, q, j, now)
}

// Submit creates and posts a journal.
func Submit(ctx context.Context, q store.Querier, p Payload, now time.Time) (model.Journal, error) {
	j, err := Create(ctx, q, p, now)
	if err != nil {
		return model.Journal{}, err
	}
	return apply(ctx, q, j, now)
}

func apply(ctx context.Context, q store.Querier, j model.Journal, now time.Time) (model.Journal, error) {
	if len(j.Postings) == 0 {
		return model.Journal{}, ErrNoPostings
	}
	if err := CheckBalance(j.Postings); err != nil {
		return model.Journal{}, err
	}
	for _, p := range j.Postings {
		acct, err := accounts.ByID(ctx, q, p.AccountID)
		if err != nil {
			return model.Journal{}, err
		}
		_, err = accounts.PostAmount(ctx, q, acct, accounts.Movement{
			DebitCredit: p.DebitCredit,
			Amount:      p.Amount,
			Currency:    p.Currency,
			ValueDate:   p.ValueDate,
		}, now)
		if err != nil {
			return model.Journal{}, err
		}
	}
	if err := store.UpdateJournalStatus(ctx, q, j.ID, model.JournalProcessed, now); err != nil {
		return model.Journal{}, err
	}
	j.Status = model.JournalProcessed
	j.UpdatedAt = now
	return j, nil
}

// ByID returns a journal with its postings.
func ByID(ctx context.Context, q store.Querier, id int64) (model.Journal, error) {
	j, err := store.JournalByID(ctx, q, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Journal{}, fmt.Errorf("%w for id %d", ErrNoJournal, id)
	}
	if err != nil {
		return model.Journal{}, err
	}
	return withPostings(ctx, q, j)
}

func withPostings(ctx context.Context, q store.Querier, j model.Journal) (model.Journal, error) {
	postings, err := store.PostingsForJournal(ctx, q, j.ID)
	if err != nil {
		return model.Journal{}, err
	}
	j.Postings = postings
	return j, nil
}
