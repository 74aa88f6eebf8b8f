package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/gledger-dev/gledger/internal/model"
	"github.com/gledger-dev/gledger/internal/page"
	"github.com/gledger-dev/gledger/internal/store"
)

// DefaultPageLength is the number of accounts listed per page.
const DefaultPageLength = 10

// MinSearchLength is the shortest search string accepted by Search.
const MinSearchLength = 3

const maxNameLength = 15

var (
	// ErrNoAccount is returned when a requested account does not exist.
	ErrNoAccount = errors.New("no account")
	// ErrAccountExists is returned when creating an account with a taken name.
	ErrAccountExists = errors.New("account already exists")
	// ErrParentNotFound is returned when a new parent for an account does not exist.
	ErrParentNotFound = errors.New("parent account does not exist")
	// ErrAccountCycle is returned when a parent change would make the
	// hierarchy cyclic.
	ErrAccountCycle = errors.New("account hierarchy would contain a cycle")
	// ErrShortSearchString is returned for search strings that would match too much.
	ErrShortSearchString = errors.New("search string must be at least 3 characters")
	// ErrInvalidName is returned for an empty or overlong account name.
	ErrInvalidName = errors.New("invalid account name")
)

// CreateParams holds the fields of a new account. When both ParentID and
// ParentName are set, ParentID wins.
type CreateParams struct {
	Name        string
	Role        model.Role
	Description string
	ParentName  string
	ParentID    int64
}

// UpdateParams holds the optional changes to an account. Nil or empty
// fields are left alone.
type UpdateParams struct {
	Role        *model.Role
	ParentName  string
	Description *string
}

// Movement is an amount posted to one side of an account.
type Movement struct {
	DebitCredit model.DebitCredit
	Amount      int64 // minor units
	Currency    string
	ValueDate   time.Time
}

// Service manages the chart of accounts and the balances kept per account.
type Service struct {
	store *store.Store
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewService creates a Service.
func NewService(st *store.Store, log logrus.FieldLogger) *Service {
	return &Service{store: st, log: log, now: time.Now}
}

// SetClock replaces the clock used for timestamps and the current postmonth.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create adds an account and links it under its parent, if one is given.
func (s *Service) Create(ctx context.Context, params CreateParams) (model.Account, error) {
	var acct model.Account
	err := s.store.Transaction(ctx, func(tx *sql.Tx) error {
		var err error
		acct, err = Create(ctx, tx, params, s.now())
		return err
	})
	if err != nil {
		return model.Account{}, err
	}
	s.log.WithFields(logrus.Fields{"account": acct.Name, "role": acct.Role.Name()}).Info("account created")
	return acct, nil
}

// ByID returns an account by ID.
func (s *Service) ByID(ctx context.Context, id int64) (model.Account, error) {
	return ByID(ctx, s.store.DB(), id)
}

// ByName returns an account by name.
func (s *Service) ByName(ctx context.Context, name string) (model.Account, error) {
	return ByName(ctx, s.store.DB(), name)
}

// Update changes the role, parent or description of an account.
func (s *Service) Update(ctx context.Context, name string, params UpdateParams) (model.Account, error) {
	var acct model.Account
	err := s.store.Transaction(ctx, func(tx *sql.Tx) error {
		var err error
		acct, err = ByName(ctx, tx, name)
		if err != nil {
			return err
		}
		changed := false
		if params.ParentName != "" {
			parent, err := ByName(ctx, tx, params.ParentName)
			if errors.Is(err, ErrNoAccount) {
				return fmt.Errorf("%w: %q (new parent of %q)", ErrParentNotFound, params.ParentName, name)
			}
			if err != nil {
				return err
			}
			if err := checkNoCycle(ctx, tx, acct, parent); err != nil {
				return err
			}
			acct.ParentID = parent.ID
			changed = true
		}
		if params.Role != nil {
			if !params.Role.Valid() {
				return fmt.Errorf("%w: %q", model.ErrInvalidRole, *params.Role)
			}
			acct.Role = *params.Role
			changed = true
		}
		if params.Description != nil {
			acct.Description = *params.Description
			changed = true
		}
		if !changed {
			return nil
		}
		acct.UpdatedAt = s.now()
		return store.UpdateAccount(ctx, tx, acct)
	})
	if err != nil {
		return model.Account{}, err
	}
	s.log.WithField("account", acct.Name).Info("account updated")
	return acct, nil
}

// Children returns the direct children of an account.
func (s *Service) Children(ctx context.Context, acct model.Account) ([]model.Account, error) {
	return store.ChildAccounts(ctx, s.store.DB(), acct.ID)
}

// Parent returns the parent of an account. The boolean is false for a
// top-level account.
func (s *Service) Parent(ctx context.Context, acct model.Account) (model.Account, bool, error) {
	if !acct.HasParent() {
		return model.Account{}, false, nil
	}
	parent, err := ByID(ctx, s.store.DB(), acct.ParentID)
	if err != nil {
		return model.Account{}, false, err
	}
	return parent, true, nil
}

// CurrentBalance returns the latest known balance of an account.
func (s *Service) CurrentBalance(ctx context.Context, acct model.Account) (int64, error) {
	return CurrentBalance(ctx, s.store.DB(), acct, s.now())
}

// BalanceUltimo returns the balance of an account and its subtree at the
// end of postmonth pm.
func (s *Service) BalanceUltimo(ctx context.Context, acct model.Account, pm int) (int64, error) {
	return BalanceUltimo(ctx, s.store.DB(), acct, pm)
}

// Balances returns the balance history of an account, newest first.
func (s *Service) Balances(ctx context.Context, acct model.Account) ([]model.Balance, error) {
	return store.BalancesForAccount(ctx, s.store.DB(), acct.ID)
}

// PostAmount posts a single movement to an account in its own transaction
// and returns the new balance of the postmonth.
func (s *Service) PostAmount(ctx context.Context, acct model.Account, m Movement) (int64, error) {
	var amount int64
	err := s.store.Transaction(ctx, func(tx *sql.Tx) error {
		var err error
		amount, err = PostAmount(ctx, tx, acct, m, s.now())
		return err
	})
	return amount, err
}

// ByRole returns accounts with any of the given roles, at most limit of
// them when limit is positive.
func (s *Service) ByRole(ctx context.Context, limit int, roles ...model.Role) ([]model.Account, error) {
	return store.AccountsByRole(ctx, s.store.DB(), roles, limit)
}

// Search returns a page of accounts whose name or description contains
// search, most recently updated first. An empty search lists every account.
func (s *Service) Search(ctx context.Context, search string, req page.Request) (page.Page[model.Account], error) {
	if search != "" && utf8.RuneCountInString(search) < MinSearchLength {
		return page.Page[model.Account]{}, ErrShortSearchString
	}
	db := s.store.DB()
	items, err := store.SearchAccounts(ctx, db, search, req.Offset(), req.Limit())
	if err != nil {
		return page.Page[model.Account]{}, err
	}
	total, err := store.CountAccounts(ctx, db, search)
	if err != nil {
		return page.Page[model.Account]{}, err
	}
	return page.Of(req, items, total), nil
}

// Create inserts an account after checking its name is free and its parent
// exists.
func Create(ctx context.Context, q store.Querier, params CreateParams, now time.Time) (model.Account, error) {
	if params.Name == "" || utf8.RuneCountInString(params.Name) > maxNameLength {
		return model.Account{}, fmt.Errorf("%w: %q", ErrInvalidName, params.Name)
	}
	if !params.Role.Valid() {
		return model.Account{}, fmt.Errorf("%w: %q", model.ErrInvalidRole, params.Role)
	}
	if _, err := ByName(ctx, q, params.Name); err == nil {
		return model.Account{}, fmt.Errorf("%w: %q", ErrAccountExists, params.Name)
	} else if !errors.Is(err, ErrNoAccount) {
		return model.Account{}, err
	}

	acct := model.Account{
		Name:        params.Name,
		Role:        params.Role,
		Description: params.Description,
		UpdatedAt:   now,
	}
	switch {
	case params.ParentID != 0:
		parent, err := ByID(ctx, q, params.ParentID)
		if err != nil {
			return model.Account{}, err
		}
		acct.ParentID = parent.ID
	case params.ParentName != "":
		parent, err := ByName(ctx, q, params.ParentName)
		if err != nil {
			return model.Account{}, err
		}
		acct.ParentID = parent.ID
	}

	acct, err := store.InsertAccount(ctx, q, acct)
	if store.IsUniqueViolation(err) {
		return model.Account{}, fmt.Errorf("%w: %q", ErrAccountExists, params.Name)
	}
	return acct, err
}

// ByID returns an account by ID.
func ByID(ctx context.Context, q store.Querier, id int64) (model.Account, error) {
	acct, err := store.AccountByID(ctx, q, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Account{}, fmt.Errorf("%w for id %d", ErrNoAccount, id)
	}
	return acct, err
}

// ByName returns an account by name.
func ByName(ctx context.Context, q store.Querier, name string) (model.Account, error) {
	acct, err := store.AccountByName(ctx, q, name)
	if errors.Is(err, store.ErrNotFound) {
		return model.Account{}, fmt.Errorf("%w for %q", ErrNoAccount, name)
	}
	return acct, err
}

func checkNoCycle(ctx context.Context, q store.Querier, acct, parent model.Account) error {
	for cur := parent; ; {
		if cur.ID == acct.ID {
			return fmt.Errorf("%w: %q can not be placed under %q", ErrAccountCycle, acct.Name, parent.Name)
		}
		if !cur.HasParent() {
			return nil
		}
		next, err := ByID(ctx, q, cur.ParentID)
		if err != nil {
			return err
		}
		cur = next
	}
}
