package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/gledger-dev/gledger/internal/accounts"
	"github.com/gledger-dev/gledger/internal/api"
	"github.com/gledger-dev/gledger/internal/config"
	"github.com/gledger-dev/gledger/internal/journal"
	"github.com/gledger-dev/gledger/internal/postmonth"
	"github.com/gledger-dev/gledger/internal/store"
	"github.com/gledger-dev/gledger/internal/yearend"
)

// app is an opened ledger directory.
type app struct {
	dir        string
	cfg        *config.Config
	log        *logrus.Logger
	store      *store.Store
	accounts   *accounts.Service
	journals   *journal.Service
	postmonths *postmonth.Registry
	yearend    *yearend.Service
}

func openApp(ctx context.Context, dir string, logOut io.Writer) (*app, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(filepath.Join(absDir, config.FileName))
	if err != nil {
		return nil, err
	}
	log, err := config.NewLogger(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.DatabasePath(absDir))
	if err != nil {
		return nil, err
	}
	return &app{
		dir:        absDir,
		cfg:        cfg,
		log:        log,
		store:      st,
		accounts:   accounts.NewService(st, log),
		journals:   journal.NewService(st, log),
		postmonths: postmonth.NewRegistry(st, log),
		yearend: yearend.NewService(st, log, yearend.Options{
			ProfitAccount: cfg.Ledger.ProfitAccount,
			Currency:      cfg.Ledger.Currency,
			BatchSize:     cfg.Ledger.YearEndBatch,
		}),
	}, nil
}

func (a *app) services() api.Services {
	return api.Services{
		Accounts:   a.accounts,
		Journals:   a.journals,
		Postmonths: a.postmonths,
		YearEnd:    a.yearend,
	}
}

func (a *app) Close() error {
	return a.store.Close()
}

// withApp opens the ledger for the duration of fn.
func withApp(ctx context.Context, dir string, logOut io.Writer, fn func(a *app) error) (err error) {
	a, err := openApp(ctx, dir, logOut)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, a.Close()) }()
	return fn(a)
}
