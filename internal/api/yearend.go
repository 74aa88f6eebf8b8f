package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gledger-dev/gledger/internal/journal"
	"github.com/gledger-dev/gledger/internal/yearend"
)

// YearEndHandler handles closing an accounting year.
type YearEndHandler struct {
	yearend *yearend.Service
	log     logrus.FieldLogger
}

type yearEndRequest struct {
	StartNextYear string `json:"start_next_year"`
	NumAccounts   int    `json:"num_accounts"`
}

func (req yearEndRequest) params() (yearend.Params, error) {
	params := yearend.Params{NumAccounts: req.NumAccounts}
	if req.StartNextYear != "" {
		start, err := time.Parse(journal.DateLayout, req.StartNextYear)
		if err != nil {
			return yearend.Params{}, fmt.Errorf("%w: start_next_year must be YYYY-MM-DD", errBadRequest)
		}
		params.StartNextYear = &start
	}
	return params, nil
}

type yearEndResponse struct {
	StartNextYear string      `json:"start_next_year"`
	Journal       journalView `json:"journal"`
}

// Close handles POST /yearend.
func (h *YearEndHandler) Close(w http.ResponseWriter, r *http.Request) {
	var body yearEndRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, h.log, err)
			return
		}
	}
	params, err := body.params()
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	res, err := h.yearend.Close(r.Context(), params)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, yearEndResponse{
		StartNextYear: res.StartNextYear.Format(journal.DateLayout),
		Journal:       newJournalView(res.Journal),
	})
}

// Preview handles GET /yearend/preview and answers the journal Close
// would post.
func (h *YearEndHandler) Preview(w http.ResponseWriter, r *http.Request) {
	numAccounts, err := queryInt(r, "num_accounts")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	body := yearEndRequest{StartNextYear: r.URL.Query().Get("start_next_year"), NumAccounts: numAccounts}
	params, err := body.params()
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	p, err := h.yearend.Preview(r.Context(), params)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
