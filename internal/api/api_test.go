package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gledger-dev/gledger/internal/accounts"
	"github.com/gledger-dev/gledger/internal/journal"
	"github.com/gledger-dev/gledger/internal/postmonth"
	"github.com/gledger-dev/gledger/internal/store/storetest"
	"github.com/gledger-dev/gledger/internal/yearend"
)

var today = time.Date(2016, 2, 10, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := storetest.New(t)
	log := logrus.New()
	log.SetOutput(io.Discard)
	clock := func() time.Time { return today }

	svc := Services{
		Accounts:   accounts.NewService(st, log),
		Journals:   journal.NewService(st, log),
		Postmonths: postmonth.NewRegistry(st, log),
		YearEnd:    yearend.NewService(st, log, yearend.Options{}),
	}
	svc.Accounts.SetClock(clock)
	svc.Journals.SetClock(clock)
	svc.Postmonths.SetClock(clock)
	svc.YearEnd.SetClock(clock)

	srv := httptest.NewServer(NewRouter(svc, log))
	t.Cleanup(srv.Close)

	for _, body := range []string{
		`{"name": "verkopen", "role": "E"}`,
		`{"name": "activa", "role": "asset"}`,
		`{"name": "kas", "role": "A", "parent": "activa"}`,
		`{"name": "btw", "role": "E"}`,
	} {
		resp := do(t, srv, http.MethodPost, "/accounts", body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

const salesJournal = `{"journal": {"extkey": "inv-001", "function": "insert", "postings": [
	{"account": "verkopen", "currency": "EUR", "amount": 250, "debitcredit": "Cr", "valuedate": "2016-02-03"},
	{"account": "kas", "currency": "EUR", "amount": "230", "debitcredit": "Db", "valuedate": "2016-02-03"},
	{"account": "btw", "currency": "EUR", "amount": 20, "debitcredit": "Db", "valuedate": "2016-02-03"}
]}}`

func TestSubmitJournal(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/journal/new", salesJournal)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decode[StatusResponse](t, resp)
	assert.Equal(t, "OK", status.Status)
	assert.NotZero(t, status.Journal)

	resp = do(t, srv, http.MethodGet, "/balance/kas", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(230), decode[balanceView](t, resp).Amount)

	resp = do(t, srv, http.MethodGet, "/balance/activa/month/02-2016", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bal := decode[balanceView](t, resp)
	assert.Equal(t, int64(230), bal.Amount, "subtree includes kas")
	assert.Equal(t, "02-2016", bal.Postmonth)

	resp = do(t, srv, http.MethodGet, "/balance/verkopen", "")
	assert.Equal(t, int64(-250), decode[balanceView](t, resp).Amount)

	resp = do(t, srv, http.MethodGet, "/journal/inv-001", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	j := decode[journalView](t, resp)
	assert.Equal(t, "P", j.Status)
	require.Len(t, j.Postings, 3)
	assert.Equal(t, "kas", j.Postings[1].Account)
	assert.Equal(t, "02-2016", j.Postings[1].Postmonth)

	resp = do(t, srv, http.MethodGet, "/posts/kas/month/02-2016", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	posts := decode[pageView[postingView]](t, resp)
	assert.Equal(t, 1, posts.Total)
	assert.Equal(t, journal.DefaultPageLength, posts.PageLength)

	resp = do(t, srv, http.MethodGet, "/journallist?search=inv", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[pageView[journalView]](t, resp).Total)

	resp = do(t, srv, http.MethodPost, "/journal/new", salesJournal)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "duplicate key")
}

func TestSubmitJournalRejected(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{"journal": [`, http.StatusBadRequest},
		{"unbalanced", strings.Replace(salesJournal, `"230"`, `"231"`, 1), http.StatusUnprocessableEntity},
		{"unknown account", strings.Replace(salesJournal, `"kas"`, `"bank"`, 1), http.StatusBadRequest},
		{"no postings", `{"journal": {"postings": []}}`, http.StatusBadRequest},
		{"negative amount", strings.Replace(salesJournal, `"amount": 20`, `"amount": -20`, 1), http.StatusBadRequest},
		{"missing amount", strings.Replace(salesJournal, `"amount": 20, `, ``, 1), http.StatusBadRequest},
		{"month not open", strings.ReplaceAll(salesJournal, "2016-02-03", "2016-01-03"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			resp := do(t, srv, http.MethodPost, "/journal/new", tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, "Not correct", decode[ErrorResponse](t, resp).Status)

			resp = do(t, srv, http.MethodGet, "/balance/kas", "")
			assert.Zero(t, decode[balanceView](t, resp).Amount)
		})
	}
}

func TestAccounts(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/accounts", `{"name": "kas", "role": "A"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/accounts", `{"name": "bank", "role": "X"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/accounts/activa", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decode[accountDetailView](t, resp)
	assert.Equal(t, "Db", detail.DebitCredit)
	assert.Equal(t, []string{"kas"}, detail.Children)

	resp = do(t, srv, http.MethodGet, "/accounts/kas", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "activa", decode[accountDetailView](t, resp).Parent)

	resp = do(t, srv, http.MethodGet, "/accounts/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodPatch, "/accounts/activa", `{"parent": "kas"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodPatch, "/accounts/btw", `{"role": "liability", "parent": "activa"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[accountView](t, resp)
	assert.Equal(t, "L", updated.Role)
	assert.Equal(t, "Cr", updated.DebitCredit)

	resp = do(t, srv, http.MethodGet, "/accounts?search=ka", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/accounts?page=1&pagelength=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[pageView[accountView]](t, resp)
	assert.Equal(t, 4, list.Total)
	assert.Equal(t, 2, list.Pages)
	assert.Len(t, list.Items, 2)

	resp = do(t, srv, http.MethodGet, "/accounts?page=one", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostmonths(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/postmonths", `{"postmonth": "01-2016"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "a", decode[postmonthView](t, resp).Status)

	resp = do(t, srv, http.MethodPost, "/postmonths", `{"postmonth": "201512", "status": "a"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/postmonths", `{"postmonth": "01-2016"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodPut, "/postmonths", `{"201601": "c", "201512": "a"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[updatePostmonthsResponse](t, resp).Changed)

	resp = do(t, srv, http.MethodPut, "/postmonths", `{"201603": "c"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/postmonths?from=12-2015", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[pageView[postmonthView]](t, resp)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "12-2015", list.Items[0].Postmonth)
	assert.Equal(t, "c", list.Items[1].Status)
}

func TestYearEnd(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/yearend/preview", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[ErrorResponse](t, resp).Message, "no previous closing date")

	resp = do(t, srv, http.MethodPost, "/yearend", `{"start_next_year": "2016-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "profit account missing")

	resp = do(t, srv, http.MethodPost, "/yearend", `{"start_next_year": "01-01-2016"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/accounts", `{"name": "winst", "role": "A"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = do(t, srv, http.MethodPost, "/postmonths", `{"postmonth": "01-2016"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/yearend/preview?start_next_year=2016-01-01", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := decode[journal.Payload](t, resp)
	assert.Len(t, p.Journal.Postings, 3)

	resp = do(t, srv, http.MethodPost, "/yearend", `{"start_next_year": "2016-01-01"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[yearEndResponse](t, resp)
	assert.Equal(t, "2016-01-01", res.StartNextYear)
	assert.Equal(t, "yearend-2015", res.Journal.ExtKey)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("posting 2: %w", fmt.Errorf("%w: %w", journal.ErrInvalidJournal, accounts.ErrNoAccount)), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", accounts.ErrNoAccount), http.StatusNotFound},
		{&journal.BalanceError{Currency: "EUR", Residual: decimal.NewFromInt(1)}, http.StatusUnprocessableEntity},
		{postmonth.ErrPostmonthClosed, http.StatusBadRequest},
		{yearend.ErrOpenPostmonths, http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
