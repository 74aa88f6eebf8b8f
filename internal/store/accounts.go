package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gledger-dev/gledger/internal/model"
)

const accountColumns = `id, name, role, parent_id, description, updated_at`

// InsertAccount stores a new account and returns it with its ID set.
func InsertAccount(ctx context.Context, q Querier, a model.Account) (model.Account, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO accounts (name, role, parent_id, description, updated_at) VALUES (?, ?, ?, ?, ?)`,
		a.Name, string(a.Role), nullID(a.ParentID), a.Description, a.UpdatedAt.UTC())
	if err != nil {
		return model.Account{}, fmt.Errorf("inserting account %q: %w", a.Name, err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return model.Account{}, fmt.Errorf("reading account id: %w", err)
	}
	return a, nil
}

// UpdateAccount writes the mutable fields of an account.
func UpdateAccount(ctx context.Context, q Querier, a model.Account) error {
	res, err := q.ExecContext(ctx,
		`UPDATE accounts SET role = ?, parent_id = ?, description = ?, updated_at = ? WHERE id = ?`,
		string(a.Role), nullID(a.ParentID), a.Description, a.UpdatedAt.UTC(), a.ID)
	if err != nil {
		return fmt.Errorf("updating account %q: %w", a.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrNotFound
	}
	return nil
}

// AccountByID returns the account with the given ID.
func AccountByID(ctx context.Context, q Querier, id int64) (model.Account, error) {
	row := q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	return a, notFound(err)
}

// AccountByName returns the account with the given name.
func AccountByName(ctx context.Context, q Querier, name string) (model.Account, error) {
	row := q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE name = ?`, name)
	a, err := scanAccount(row)
	return a, notFound(err)
}

// ChildAccounts returns the direct children of an account, by ID.
func ChildAccounts(ctx context.Context, q Querier, parentID int64) ([]model.Account, error) {
	return queryAccounts(ctx, q, `SELECT `+accountColumns+` FROM accounts WHERE parent_id = ? ORDER BY id`, parentID)
}

// AccountsByRole returns accounts having any of the roles, by ID. A limit
// of zero or less returns all of them.
func AccountsByRole(ctx context.Context, q Querier, roles []model.Role, limit int) ([]model.Account, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(roles)+1)
	for _, r := range roles {
		args = append(args, string(r))
	}
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE role IN (?` +
		strings.Repeat(", ?", len(roles)-1) + `) ORDER BY id LIMIT ?`
	return queryAccounts(ctx, q, query, args...)
}

// AllAccounts returns every account, by ID.
func AllAccounts(ctx context.Context, q Querier) ([]model.Account, error) {
	return queryAccounts(ctx, q, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
}

// SearchAccounts returns accounts whose name or description contains
// search, most recently updated first. A limit of -1 means no limit.
func SearchAccounts(ctx context.Context, q Querier, search string, offset, limit int) ([]model.Account, error) {
	return queryAccounts(ctx, q, `SELECT `+accountColumns+` FROM accounts
		WHERE ? = '' OR instr(name, ?) > 0 OR instr(description, ?) > 0
		ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?`,
		search, search, search, limit, offset)
}

// CountAccounts counts the accounts SearchAccounts would match.
func CountAccounts(ctx context.Context, q Querier, search string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts
		WHERE ? = '' OR instr(name, ?) > 0 OR instr(description, ?) > 0`,
		search, search, search).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting accounts: %w", err)
	}
	return n, nil
}

func queryAccounts(ctx context.Context, q Querier, query string, args ...any) ([]model.Account, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var res []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func scanAccount(row scanner) (model.Account, error) {
	var (
		a        model.Account
		role     string
		parentID sql.NullInt64
		updated  time.Time
	)
	if err := row.Scan(&a.ID, &a.Name, &role, &parentID, &a.Description, &updated); err != nil {
		return model.Account{}, err
	}
	a.Role = model.Role(role)
	if !a.Role.Valid() {
		return model.Account{}, fmt.Errorf("account %q: %w: %q", a.Name, model.ErrInvalidRole, role)
	}
	a.ParentID = parentID.Int64
	a.UpdatedAt = updated
	return a, nil
}
