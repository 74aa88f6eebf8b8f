package journal

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FunctionInsert is the only journal function the engine understands.
const FunctionInsert = "insert"

// DateLayout is the layout of value dates in a payload.
const DateLayout = "2006-01-02"

var validate = validator.New(validator.WithRequiredStructEnabled())

// maxAmount bounds the size of a single amount in minor units.
var maxAmount = decimal.NewFromInt(math.MaxInt64)

// Payload is a journal as submitted by an external system.
type Payload struct {
	Journal JournalPayload `json:"journal"`
}

// JournalPayload is the body of a submitted journal.
type JournalPayload struct {
	ExtKey   string           `json:"extkey,omitempty" validate:"max=40"`
	Function string           `json:"function,omitempty" validate:"omitempty,oneof=insert"`
	Postings []PostingPayload `json:"postings" validate:"dive"`
}

// PostingPayload is a single submitted posting. Amount is in minor units
// and may be given as a JSON number or string.
type PostingPayload struct {
	Account     string          `json:"account" validate:"required"`
	Currency    string          `json:"currency" validate:"required,len=3"`
	Amount      decimal.Decimal `json:"amount"`
	DebitCredit string          `json:"debitcredit" validate:"required"`
	ValueDate   string          `json:"valuedate" validate:"required,datetime=2006-01-02"`
}

// UnmarshalJSON requires the amount to be present.
func (pp *PostingPayload) UnmarshalJSON(b []byte) error {
	type plain PostingPayload
	var aux struct {
		plain
		Amount decimal.NullDecimal `json:"amount"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if !aux.Amount.Valid {
		return fmt.Errorf("posting for %q has no amount", aux.Account)
	}
	*pp = PostingPayload(aux.plain)
	pp.Amount = aux.Amount.Decimal
	return nil
}

// ParsePayload decodes a JSON journal as submitted from outside. Submitted
// amounts must be positive; the side is given by debitcredit.
func ParsePayload(r io.Reader) (Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("%w: decoding payload: %v", ErrInvalidJournal, err)
	}
	for i, pp := range p.Journal.Postings {
		if !pp.Amount.IsPositive() {
			return Payload{}, fmt.Errorf("%w: posting %d: amount %s must be positive", ErrInvalidJournal, i+1, pp.Amount)
		}
	}
	return p, nil
}

// Validate checks the structure of a payload. Account names and the
// debit/credit indicator are checked when the journal is created.
func Validate(p Payload) error {
	if len(p.Journal.Postings) == 0 {
		return ErrNoPostings
	}
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJournal, err)
	}
	for i, pp := range p.Journal.Postings {
		if !pp.Amount.IsInteger() {
			return fmt.Errorf("%w: posting %d: amount %s is not a whole number of minor units",
				ErrInvalidJournal, i+1, pp.Amount)
		}
		if pp.Amount.Abs().GreaterThan(maxAmount) {
			return fmt.Errorf("%w: posting %d: amount %s is out of range", ErrInvalidJournal, i+1, pp.Amount)
		}
	}
	return nil
}
