package postmonth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/gledger-dev/gledger/internal/model"
	"github.com/gledger-dev/gledger/internal/page"
	"github.com/gledger-dev/gledger/internal/store"
)

// DefaultPageLength is the number of postmonths listed per page.
const DefaultPageLength = 12

// Change is a requested status for one postmonth, keyed YYYYMM as text.
type Change struct {
	Postmonth string
	Status    model.PostmonthStatus
}

// Registry is the gatekeeper deciding in which postmonths balances may change.
type Registry struct {
	store *store.Store
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewRegistry creates a Registry.
func NewRegistry(st *store.Store, log logrus.FieldLogger) *Registry {
	return &Registry{store: st, log: log, now: time.Now}
}

// SetClock replaces the clock used to determine the current postmonth.
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

// Create adds a postmonth record with the given status.
func (r *Registry) Create(ctx context.Context, pm int, status model.PostmonthStatus) (model.Postmonth, error) {
	if err := Validate(pm); err != nil {
		return model.Postmonth{}, err
	}
	if !status.Valid() {
		return model.Postmonth{}, fmt.Errorf("%w: status %q", ErrInvalidPostmonth, status)
	}
	rec := model.Postmonth{Postmonth: pm, Status: status, UpdatedAt: r.now()}
	if err := store.InsertPostmonth(ctx, r.store.DB(), rec); err != nil {
		if store.IsUniqueViolation(err) {
			return model.Postmonth{}, fmt.Errorf("%w: %s", ErrPostmonthExists, External(pm))
		}
		return model.Postmonth{}, err
	}
	r.log.WithFields(logrus.Fields{"postmonth": pm, "status": status.Name()}).Info("postmonth created")
	return rec, nil
}

// Get returns the record of a postmonth.
func (r *Registry) Get(ctx context.Context, pm int) (model.Postmonth, error) {
	return Get(ctx, r.store.DB(), pm)
}

// CanPost reports, as a nil error, whether balances in pm may change now.
func (r *Registry) CanPost(ctx context.Context, pm int) error {
	return CanPost(ctx, r.store.DB(), pm, r.now())
}

// Close closes a postmonth for posting. Closing twice is harmless.
func (r *Registry) Close(ctx context.Context, pm int) error {
	err := r.store.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := Get(ctx, tx, pm); err != nil {
			return err
		}
		return store.UpdatePostmonthStatus(ctx, tx, pm, model.PostmonthClosed, r.now())
	})
	if err != nil {
		return err
	}
	r.log.WithField("postmonth", pm).Info("postmonth closed")
	return nil
}

// UpdateFromList applies status changes as one batch. Every entry is
// validated, and must refer to an existing postmonth, before anything is
// written; a single bad entry rejects the whole batch. It returns the number
// of postmonths whose status changed.
func (r *Registry) UpdateFromList(ctx context.Context, changes []Change) (int, error) {
	var changed int
	err := r.store.Transaction(ctx, func(tx *sql.Tx) error {
		current, err := validateChanges(ctx, tx, changes)
		if err != nil {
			return err
		}
		now := r.now()
		for i, c := range changes {
			pm := current[i]
			if pm.Status == c.Status {
				continue
			}
			if err := store.UpdatePostmonthStatus(ctx, tx, pm.Postmonth, c.Status, now); err != nil {
				return err
			}
			pm.Status = c.Status
			changed++
			// later duplicates compare against the new status
			for j := i + 1; j < len(changes); j++ {
				if current[j].Postmonth == pm.Postmonth {
					current[j].Status = c.Status
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.log.WithFields(logrus.Fields{"requested": len(changes), "changed": changed}).Info("postmonths updated")
	return changed, nil
}

// UpdateFromMap applies a map of YYYYMM keys to statuses as one batch.
func (r *Registry) UpdateFromMap(ctx context.Context, changes map[string]model.PostmonthStatus) (int, error) {
	list := make([]Change, 0, len(changes))
	for k, v := range changes {
		list = append(list, Change{Postmonth: k, Status: v})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Postmonth < list[j].Postmonth })
	return r.UpdateFromList(ctx, list)
}

// Between returns the postmonths in [For(from), For(to)). An empty status
// matches every status.
func (r *Registry) Between(ctx context.Context, from, to time.Time, status model.PostmonthStatus) ([]model.Postmonth, error) {
	return Between(ctx, r.store.DB(), from, to, status)
}

// List returns a page of postmonths from the given one onwards. A zero from
// starts at the postmonth of the last year close, or at the beginning when
// no year has been closed.
func (r *Registry) List(ctx context.Context, from int, req page.Request) (page.Page[model.Postmonth], error) {
	db := r.store.DB()
	if from == 0 {
		last, err := LastClose(ctx, db)
		switch {
		case err == nil:
			from = For(last)
		case !errors.Is(err, ErrNoCloseDate):
			return page.Page[model.Postmonth]{}, err
		}
	}
	items, err := store.ListPostmonths(ctx, db, from, req.Offset(), req.Limit())
	if err != nil {
		return page.Page[model.Postmonth]{}, err
	}
	total, err := store.CountPostmonths(ctx, db, from)
	if err != nil {
		return page.Page[model.Postmonth]{}, err
	}
	return page.Of(req, items, total), nil
}

// LastClose returns the first date of the most recently closed year.
func (r *Registry) LastClose(ctx context.Context) (time.Time, error) {
	return LastClose(ctx, r.store.DB())
}

// Get returns the record of a postmonth.
func Get(ctx context.Context, q store.Querier, pm int) (model.Postmonth, error) {
	rec, err := store.PostmonthByKey(ctx, q, pm)
	if errors.Is(err, store.ErrNotFound) {
		return model.Postmonth{}, fmt.Errorf("%w: %s", ErrNoPostmonth, External(pm))
	}
	return rec, err
}

// CanPost returns nil when balances in pm may change at time now: the
// postmonth is active, or it has no record and is the current month.
func CanPost(ctx context.Context, q store.Querier, pm int, now time.Time) error {
	rec, err := store.PostmonthByKey(ctx, q, pm)
	switch {
	case err == nil:
		if rec.CanPost() {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrPostmonthClosed, External(pm))
	case errors.Is(err, store.ErrNotFound):
		if pm == For(now) {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrPostmonthNotOpen, External(pm))
	default:
		return err
	}
}

// CheckNoLaterClose returns ErrPostmonthClosed when a postmonth after pm is
// closed. Balances carry forward, so a movement in pm would change the
// closing balance of that later postmonth.
func CheckNoLaterClose(ctx context.Context, q store.Querier, pm int) error {
	later, err := store.FirstPostmonthAfter(ctx, q, pm, model.PostmonthClosed)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return err
	}
	return fmt.Errorf("%w: %s is closed after %s", ErrPostmonthClosed, External(later.Postmonth), External(pm))
}

// Between returns the postmonths in [For(from), For(to)).
func Between(ctx context.Context, q store.Querier, from, to time.Time, status model.PostmonthStatus) ([]model.Postmonth, error) {
	return store.PostmonthsBetween(ctx, q, For(from), For(to), status)
}

// LastClose returns the first date of the most recently closed year.
func LastClose(ctx context.Context, q store.Querier) (time.Time, error) {
	cd, err := store.LatestCloseDate(ctx, q)
	if errors.Is(err, store.ErrNotFound) {
		return time.Time{}, ErrNoCloseDate
	}
	if err != nil {
		return time.Time{}, err
	}
	return cd.ClosingDate, nil
}

// RecordClose stores the first date of a newly opened accounting year.
func RecordClose(ctx context.Context, q store.Querier, startNextYear time.Time) error {
	return store.InsertCloseDate(ctx, q, model.CloseDate{ClosingDate: startNextYear})
}

// validateChanges checks every change and returns the stored record for
// each, in order. All problems are reported together.
func validateChanges(ctx context.Context, q store.Querier, changes []Change) ([]model.Postmonth, error) {
	var errs error
	current := make([]model.Postmonth, len(changes))
	for i, c := range changes {
		pm, err := parseKey(c.Postmonth)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if !c.Status.Valid() {
			errs = multierr.Append(errs, fmt.Errorf("%w: status %q for %s", ErrInvalidPostmonth, c.Status, c.Postmonth))
			continue
		}
		rec, err := Get(ctx, q, pm)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		current[i] = rec
	}
	if errs != nil {
		return nil, errs
	}
	return current, nil
}

func parseKey(s string) (int, error) {
	if len(s) > 6 {
		return 0, fmt.Errorf("%w: %q is too long", ErrInvalidPostmonth, s)
	}
	pm, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q must be a number", ErrInvalidPostmonth, s)
	}
	if err := Validate(pm); err != nil {
		return 0, err
	}
	return pm, nil
}
