package api

import (
	"time"

	"github.com/gledger-dev/gledger/internal/journal"
	"github.com/gledger-dev/gledger/internal/model"
	"github.com/gledger-dev/gledger/internal/page"
	"github.com/gledger-dev/gledger/internal/postmonth"
)

type pageView[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageLength int `json:"pagelength"`
	Pages      int `json:"pages"`
	Total      int `json:"total"`
}

func newPageView[S, T any](p page.Page[S], convert func(S) T) pageView[T] {
	items := make([]T, len(p.Items))
	for i, item := range p.Items {
		items[i] = convert(item)
	}
	return pageView[T]{
		Items:      items,
		Page:       p.Number,
		PageLength: p.Length,
		Pages:      p.NumPages(),
		Total:      p.Total,
	}
}

type accountView struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	RoleName    string    `json:"role_name"`
	DebitCredit string    `json:"debitcredit"`
	Parent      string    `json:"parent,omitempty"`
	ParentID    int64     `json:"parent_id,omitempty"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newAccountView(a model.Account) accountView {
	return accountView{
		ID:          a.ID,
		Name:        a.Name,
		Role:        string(a.Role),
		RoleName:    a.Role.Name(),
		DebitCredit: string(a.DebitCredit()),
		ParentID:    a.ParentID,
		Description: a.Description,
		UpdatedAt:   a.UpdatedAt,
	}
}

type accountDetailView struct {
	accountView
	Balance  int64    `json:"balance"`
	Children []string `json:"children"`
}

type balanceView struct {
	Account   string `json:"account"`
	Postmonth string `json:"postmonth,omitempty"`
	Amount    int64  `json:"amount"`
}

type postingView struct {
	ID          int64  `json:"id"`
	JournalID   int64  `json:"journal_id"`
	Account     string `json:"account"`
	Postmonth   string `json:"postmonth"`
	Currency    string `json:"currency"`
	Amount      int64  `json:"amount"`
	DebitCredit string `json:"debitcredit"`
	ValueDate   string `json:"valuedate"`
}

func newPostingView(p model.Posting) postingView {
	return postingView{
		ID:          p.ID,
		JournalID:   p.JournalID,
		Account:     p.AccountName,
		Postmonth:   postmonth.External(p.Postmonth),
		Currency:    p.Currency,
		Amount:      p.Amount,
		DebitCredit: string(p.DebitCredit),
		ValueDate:   p.ValueDate.Format(journal.DateLayout),
	}
}

type journalView struct {
	ID         int64         `json:"id"`
	ExtKey     string        `json:"extkey,omitempty"`
	Status     string        `json:"status"`
	StatusName string        `json:"status_name"`
	UpdatedAt  time.Time     `json:"updated_at"`
	Postings   []postingView `json:"postings,omitempty"`
}

func newJournalView(j model.Journal) journalView {
	v := journalView{
		ID:         j.ID,
		ExtKey:     j.ExtKey,
		Status:     string(j.Status),
		StatusName: j.Status.Name(),
		UpdatedAt:  j.UpdatedAt,
	}
	for _, p := range j.Postings {
		v.Postings = append(v.Postings, newPostingView(p))
	}
	return v
}

type postmonthView struct {
	Postmonth  string `json:"postmonth"`
	Status     string `json:"status"`
	StatusName string `json:"status_name"`
}

func newPostmonthView(pm model.Postmonth) postmonthView {
	return postmonthView{
		Postmonth:  postmonth.External(pm.Postmonth),
		Status:     string(pm.Status),
		StatusName: pm.Status.Name(),
	}
}
