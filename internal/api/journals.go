package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/gledger-dev/gledger/internal/journal"
)

// JournalsHandler handles journal ingestion and lookup.
type JournalsHandler struct {
	journals *journal.Service
	log      logrus.FieldLogger
}

// StatusResponse answers a journal submission.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Journal int64  `json:"journal,omitempty"`
}

// Submit handles POST /journal/new.
func (h *JournalsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	p, err := journal.ParsePayload(r.Body)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	j, err := h.journals.Submit(r.Context(), p)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "OK",
		Message: fmt.Sprintf("journal %d posted with %d postings", j.ID, len(j.Postings)),
		Journal: j.ID,
	})
}

// Get handles GET /journal/{key}.
func (h *JournalsHandler) Get(w http.ResponseWriter, r *http.Request) {
	j, err := h.journals.ByKey(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newJournalView(j))
}

// List handles GET /journallist.
func (h *JournalsHandler) List(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r, journal.DefaultPageLength)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	res, err := h.journals.Search(r.Context(), r.URL.Query().Get("search"), req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newPageView(res, newJournalView))
}
