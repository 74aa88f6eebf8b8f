package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/gledger-dev/gledger/internal/accounts"
	"github.com/gledger-dev/gledger/internal/journal"
	"github.com/gledger-dev/gledger/internal/model"
	"github.com/gledger-dev/gledger/internal/page"
	"github.com/gledger-dev/gledger/internal/postmonth"
	"github.com/gledger-dev/gledger/internal/yearend"
)

var errBadRequest = errors.New("bad request")

var notFoundErrors = []error{
	accounts.ErrNoAccount,
	journal.ErrNoJournal,
	postmonth.ErrNoPostmonth,
}

var badRequestErrors = []error{
	errBadRequest,
	journal.ErrInvalidJournal,
	journal.ErrNoPostings,
	journal.ErrDuplicateKey,
	journal.ErrNotUnprocessed,
	journal.ErrShortSearchString,
	model.ErrInvalidRole,
	model.ErrInvalidDebitCredit,
	accounts.ErrAccountExists,
	accounts.ErrParentNotFound,
	accounts.ErrAccountCycle,
	accounts.ErrInvalidName,
	accounts.ErrShortSearchString,
	postmonth.ErrInvalidPostmonth,
	postmonth.ErrPostmonthExists,
	postmonth.ErrPostmonthClosed,
	postmonth.ErrPostmonthNotOpen,
	postmonth.ErrNoCloseDate,
	yearend.ErrNoPreviousClose,
	yearend.ErrCloseInFuture,
	yearend.ErrCloseTooLate,
	yearend.ErrCloseNotAfterLast,
	yearend.ErrOpenPostmonths,
	yearend.ErrNoProfitAccount,
}

// statusFor maps a ledger error to an HTTP status. Validation errors are
// checked first: an unknown account inside a journal is a bad journal, not
// a missing resource.
func statusFor(err error) int {
	if errors.Is(err, journal.ErrUnbalanced) {
		return http.StatusUnprocessableEntity
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return http.StatusNotFound
		}
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// writeError answers with the status matching err. Internal errors are
// logged and not shown to the caller.
func writeError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
		msg = "internal error"
	}
	writeJSONError(w, status, msg)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Status: "Not correct", Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decoding body: %v", errBadRequest, err)
	}
	return nil
}

// pageRequest reads the page and pagelength query parameters.
func pageRequest(r *http.Request, defaultLength int) (page.Request, error) {
	number, err := queryInt(r, "page")
	if err != nil {
		return page.Request{}, err
	}
	length, err := queryInt(r, "pagelength")
	if err != nil {
		return page.Request{}, err
	}
	return page.New(number, length, defaultLength), nil
}

func queryInt(r *http.Request, key string) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", errBadRequest, key)
	}
	return n, nil
}
