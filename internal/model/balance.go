package model

import "time"

// PostmonthStatus tells whether postings are accepted in a postmonth.
type PostmonthStatus string

const (
	PostmonthActive PostmonthStatus = "a"
	PostmonthClosed PostmonthStatus = "c"
)

// Valid reports whether s is a known status.
func (s PostmonthStatus) Valid() bool {
	return s == PostmonthActive || s == PostmonthClosed
}

// Name returns the human readable status.
func (s PostmonthStatus) Name() string {
	switch s {
	case PostmonthActive:
		return "Active"
	case PostmonthClosed:
		return "Closed"
	}
	return string(s)
}

// Postmonth is an accounting period, keyed YYYYMM.
type Postmonth struct {
	Postmonth int
	Status    PostmonthStatus
	UpdatedAt time.Time
}

// CanPost reports whether balances in this postmonth may change.
func (p Postmonth) CanPost() bool {
	return p.Status == PostmonthActive
}

// Balance is an account's balance as of the end of a postmonth.
type Balance struct {
	ID        int64
	AccountID int64
	Postmonth int
	Currency  string
	Amount    int64 // minor units
	ValueDate time.Time
	UpdatedAt time.Time
}

// CloseDate is the first date of an accounting year that has been closed.
type CloseDate struct {
	ClosingDate time.Time
}
