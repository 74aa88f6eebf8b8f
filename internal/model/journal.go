package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDebitCredit is returned for a debit/credit indicator other than Db or Cr.
var ErrInvalidDebitCredit = errors.New("invalid debit/credit indicator")

// DebitCredit is the side of a posting, or the polarity of an account.
type DebitCredit string

const (
	Debit  DebitCredit = "Db"
	Credit DebitCredit = "Cr"
)

// ParseDebitCredit validates a debit/credit indicator.
func ParseDebitCredit(s string) (DebitCredit, error) {
	switch DebitCredit(s) {
	case Debit, Credit:
		return DebitCredit(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDebitCredit, s)
}

// Opposite returns the other side.
func (dc DebitCredit) Opposite() DebitCredit {
	if dc == Debit {
		return Credit
	}
	return Debit
}

// JournalStatus represents the lifecycle state of a journal.
type JournalStatus string

const (
	JournalUnprocessed JournalStatus = "U"
	JournalProcessed   JournalStatus = "P"
	JournalFailed      JournalStatus = "F"
)

// Name returns the human readable status.
func (s JournalStatus) Name() string {
	switch s {
	case JournalUnprocessed:
		return "Unprocessed"
	case JournalProcessed:
		return "Processed"
	case JournalFailed:
		return "Failed"
	}
	return string(s)
}

// Journal is a batch of postings that is applied to balances as a whole.
type Journal struct {
	ID        int64
	ExtKey    string
	Status    JournalStatus
	UpdatedAt time.Time
	Postings  []Posting
}

// Posting is a single debit or credit against one account, inside one journal.
type Posting struct {
	ID          int64
	JournalID   int64
	AccountID   int64
	AccountName string // joined for display, not stored
	Postmonth   int
	Currency    string
	Amount      int64 // minor units
	DebitCredit DebitCredit
	ValueDate   time.Time
	UpdatedAt   time.Time
}

// Signed returns the amount with debits positive and credits negative.
func (p Posting) Signed() int64 {
	if p.DebitCredit == Debit {
		return p.Amount
	}
	return -p.Amount
}
