// Package api serves the ledger as a JSON API.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/gledger-dev/gledger/internal/accounts"
	"github.com/gledger-dev/gledger/internal/journal"
	"github.com/gledger-dev/gledger/internal/postmonth"
	"github.com/gledger-dev/gledger/internal/yearend"
)

// Services are the ledger components exposed by the API.
type Services struct {
	Accounts   *accounts.Service
	Journals   *journal.Service
	Postmonths *postmonth.Registry
	YearEnd    *yearend.Service
}

// NewRouter wires every endpoint.
func NewRouter(svc Services, log logrus.FieldLogger) http.Handler {
	journals := &JournalsHandler{journals: svc.Journals, log: log}
	accts := &AccountsHandler{accounts: svc.Accounts, journals: svc.Journals, log: log}
	postmonths := &PostmonthsHandler{registry: svc.Postmonths, log: log}
	yearEnd := &YearEndHandler{yearend: svc.YearEnd, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Post("/journal/new", journals.Submit)
	r.Get("/journal/{key}", journals.Get)
	r.Get("/journallist", journals.List)

	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", accts.List)
		r.Post("/", accts.Create)
		r.Get("/{name}", accts.Get)
		r.Patch("/{name}", accts.Update)
	})
	r.Get("/balance/{name}", accts.Balance)
	r.Get("/balance/{name}/month/{month}", accts.Balance)
	r.Get("/posts/{name}", accts.Postings)
	r.Get("/posts/{name}/month/{month}", accts.Postings)

	r.Route("/postmonths", func(r chi.Router) {
		r.Get("/", postmonths.List)
		r.Post("/", postmonths.Create)
		r.Put("/", postmonths.Update)
	})

	r.Post("/yearend", yearEnd.Close)
	r.Get("/yearend/preview", yearEnd.Preview)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Info("request")
		})
	}
}
