package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRole is returned when a role code is not one of I, E, A or L.
var ErrInvalidRole = errors.New("invalid account role")

// Role classifies accounts in the chart of accounts.
type Role string

const (
	RoleIncome    Role = "I"
	RoleExpense   Role = "E"
	RoleAsset     Role = "A"
	RoleLiability Role = "L"
)

// Roles lists every valid role.
var Roles = []Role{RoleIncome, RoleExpense, RoleAsset, RoleLiability}

// ParseRole accepts a role code ("A") or its name ("asset", "Asset").
func ParseRole(s string) (Role, error) {
	switch s {
	case "I", "i", "income", "Income":
		return RoleIncome, nil
	case "E", "e", "expense", "Expense":
		return RoleExpense, nil
	case "A", "a", "asset", "Asset":
		return RoleAsset, nil
	case "L", "l", "liability", "Liability":
		return RoleLiability, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// Valid reports whether r is one of the four roles.
func (r Role) Valid() bool {
	switch r {
	case RoleIncome, RoleExpense, RoleAsset, RoleLiability:
		return true
	}
	return false
}

// Name returns the human readable role name.
func (r Role) Name() string {
	switch r {
	case RoleIncome:
		return "Income"
	case RoleExpense:
		return "Expense"
	case RoleAsset:
		return "Asset"
	case RoleLiability:
		return "Liability"
	}
	return string(r)
}

// DebitCredit returns the polarity of accounts with this role. Asset and
// expense accounts are debit-normal, liability and income accounts are
// credit-normal. Any other value means the data is corrupt.
func (r Role) DebitCredit() DebitCredit {
	switch r {
	case RoleAsset, RoleExpense:
		return Debit
	case RoleLiability, RoleIncome:
		return Credit
	}
	panic(fmt.Sprintf("model: unknown account role %q", string(r)))
}

// ProfitAndLoss reports whether accounts with this role are zeroed at year end.
func (r Role) ProfitAndLoss() bool {
	return r == RoleIncome || r == RoleExpense
}

// Account is a node in the chart of accounts.
type Account struct {
	ID          int64
	Name        string
	Role        Role
	ParentID    int64 // 0 = top-level
	Description string
	UpdatedAt   time.Time
}

// DebitCredit returns the account's polarity.
func (a Account) DebitCredit() DebitCredit {
	return a.Role.DebitCredit()
}

// IsDebit reports whether the account is debit-normal.
func (a Account) IsDebit() bool {
	return a.DebitCredit() == Debit
}

// HasParent reports whether the account is linked into a parent.
func (a Account) HasParent() bool {
	return a.ParentID != 0
}
