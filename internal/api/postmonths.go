package api

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/gledger-dev/gledger/internal/model"
	"github.com/gledger-dev/gledger/internal/postmonth"
)

// PostmonthsHandler handles the postmonth registry.
type PostmonthsHandler struct {
	registry *postmonth.Registry
	log      logrus.FieldLogger
}

type createPostmonthRequest struct {
	Postmonth string `json:"postmonth"`
	Status    string `json:"status"`
}

type updatePostmonthsResponse struct {
	Changed int `json:"changed"`
}

// List handles GET /postmonths. The optional from parameter is a
// postmonth in either form; it defaults to the last closed year.
func (h *PostmonthsHandler) List(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r, postmonth.DefaultPageLength)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var from int
	if s := r.URL.Query().Get("from"); s != "" {
		if from, err = postmonth.Parse(s); err != nil {
			writeError(w, h.log, err)
			return
		}
	}
	res, err := h.registry.List(r.Context(), from, req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newPageView(res, newPostmonthView))
}

// Create handles POST /postmonths.
func (h *PostmonthsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createPostmonthRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, h.log, err)
		return
	}
	pm, err := postmonth.Parse(body.Postmonth)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	status := model.PostmonthStatus(body.Status)
	if status == "" {
		status = model.PostmonthActive
	}
	rec, err := h.registry.Create(r.Context(), pm, status)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, newPostmonthView(rec))
}

// Update handles PUT /postmonths with a map of postmonth to status.
func (h *PostmonthsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body map[string]model.PostmonthStatus
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, h.log, err)
		return
	}
	n, err := h.registry.UpdateFromMap(r.Context(), body)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, updatePostmonthsResponse{Changed: n})
}
