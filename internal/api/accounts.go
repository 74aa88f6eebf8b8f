package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/gledger-dev/gledger/internal/accounts"
	"github.com/gledger-dev/gledger/internal/journal"
	"github.com/gledger-dev/gledger/internal/model"
	"github.com/gledger-dev/gledger/internal/postmonth"
)

// AccountsHandler handles the chart of accounts, balances and postings.
type AccountsHandler struct {
	accounts *accounts.Service
	journals *journal.Service
	log      logrus.FieldLogger
}

type createAccountRequest struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Parent      string `json:"parent"`
	Description string `json:"description"`
}

type updateAccountRequest struct {
	Role        *string `json:"role"`
	Parent      string  `json:"parent"`
	Description *string `json:"description"`
}

// List handles GET /accounts.
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r, accounts.DefaultPageLength)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	res, err := h.accounts.Search(r.Context(), r.URL.Query().Get("search"), req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newPageView(res, newAccountView))
}

// Create handles POST /accounts.
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createAccountRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, h.log, err)
		return
	}
	role, err := model.ParseRole(body.Role)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	acct, err := h.accounts.Create(r.Context(), accounts.CreateParams{
		Name:        body.Name,
		Role:        role,
		Description: body.Description,
		ParentName:  body.Parent,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	v := newAccountView(acct)
	v.Parent = body.Parent
	writeJSON(w, http.StatusCreated, v)
}

// Get handles GET /accounts/{name}.
func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acct, err := h.accounts.ByName(ctx, chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	v := accountDetailView{accountView: newAccountView(acct), Children: []string{}}
	if parent, ok, err := h.accounts.Parent(ctx, acct); err != nil {
		writeError(w, h.log, err)
		return
	} else if ok {
		v.Parent = parent.Name
	}
	children, err := h.accounts.Children(ctx, acct)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	for _, c := range children {
		v.Children = append(v.Children, c.Name)
	}
	if v.Balance, err = h.accounts.CurrentBalance(ctx, acct); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Update handles PATCH /accounts/{name}.
func (h *AccountsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body updateAccountRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, h.log, err)
		return
	}
	params := accounts.UpdateParams{ParentName: body.Parent, Description: body.Description}
	if body.Role != nil {
		role, err := model.ParseRole(*body.Role)
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		params.Role = &role
	}
	acct, err := h.accounts.Update(r.Context(), chi.URLParam(r, "name"), params)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newAccountView(acct))
}

// Balance handles GET /balance/{name} and /balance/{name}/month/{month}.
// Without a month it answers the account's own current balance, with one
// the balance of the whole subtree at the end of that postmonth.
func (h *AccountsHandler) Balance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acct, err := h.accounts.ByName(ctx, chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	v := balanceView{Account: acct.Name}
	if month := chi.URLParam(r, "month"); month != "" {
		var pm int
		if pm, err = postmonth.Internal(month); err != nil {
			writeError(w, h.log, err)
			return
		}
		v.Postmonth = postmonth.External(pm)
		v.Amount, err = h.accounts.BalanceUltimo(ctx, acct, pm)
	} else {
		v.Amount, err = h.accounts.CurrentBalance(ctx, acct)
	}
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Postings handles GET /posts/{name} and /posts/{name}/month/{month}.
func (h *AccountsHandler) Postings(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r, journal.DefaultPageLength)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	res, err := h.journals.PostingsForAccount(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "month"), req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, newPageView(res, newPostingView))
}
