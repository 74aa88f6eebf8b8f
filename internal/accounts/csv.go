package accounts

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gledger-dev/gledger/internal/model"
	"github.com/gledger-dev/gledger/internal/store"
)

const (
	numFields = 4
	colName   = 0
	colRole   = 1
	colParent = 2
	colDesc   = 3
)

// ChartEntry is one line of a chart-of-accounts file. Parents are referred
// to by name and must appear before their children.
type ChartEntry struct {
	Name        string
	Role        model.Role
	Parent      string
	Description string
}

// ReadChart reads a chart-of-accounts CSV with a header row.
func ReadChart(r io.Reader) ([]ChartEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var entries []ChartEntry
	for i, rec := range records[1:] {
		entry, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// WriteChart writes a chart-of-accounts CSV with a header row.
func WriteChart(w io.Writer, entries []ChartEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"name", "role", "parent", "description"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, entry := range entries {
		if err := cw.Write(MarshalEntry(entry)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalEntry converts a ChartEntry to a CSV row.
func MarshalEntry(entry ChartEntry) []string {
	row := make([]string, numFields)
	row[colName] = entry.Name
	row[colRole] = string(entry.Role)
	row[colParent] = entry.Parent
	row[colDesc] = entry.Description
	return row
}

// UnmarshalEntry converts a CSV row to a ChartEntry.
func UnmarshalEntry(record []string) (ChartEntry, error) {
	if len(record) != numFields {
		return ChartEntry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	role, err := model.ParseRole(record[colRole])
	if err != nil {
		return ChartEntry{}, fmt.Errorf("parsing role of %q: %w", record[colName], err)
	}
	return ChartEntry{
		Name:        record[colName],
		Role:        role,
		Parent:      record[colParent],
		Description: record[colDesc],
	}, nil
}

// Import creates every account of a chart in a single transaction. Nothing
// is created when any entry fails.
func (s *Service) Import(ctx context.Context, entries []ChartEntry) (int, error) {
	now := s.now()
	err := s.store.Transaction(ctx, func(tx *sql.Tx) error {
		for _, entry := range entries {
			_, err := Create(ctx, tx, CreateParams{
				Name:        entry.Name,
				Role:        entry.Role,
				Description: entry.Description,
				ParentName:  entry.Parent,
			}, now)
			if err != nil {
				return fmt.Errorf("importing %q: %w", entry.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.WithField("count", len(entries)).Info("chart imported")
	return len(entries), nil
}

// Export returns the whole chart with every parent ahead of its children.
func (s *Service) Export(ctx context.Context) ([]ChartEntry, error) {
	all, err := store.AllAccounts(ctx, s.store.DB())
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Account, len(all))
	children := make(map[int64][]model.Account)
	for _, acct := range all {
		byID[acct.ID] = acct
		children[acct.ParentID] = append(children[acct.ParentID], acct)
	}

	entries := make([]ChartEntry, 0, len(all))
	var walk func(parentID int64)
	walk = func(parentID int64) {
		for _, acct := range children[parentID] {
			entry := ChartEntry{Name: acct.Name, Role: acct.Role, Description: acct.Description}
			if acct.HasParent() {
				entry.Parent = byID[acct.ParentID].Name
			}
			entries = append(entries, entry)
			walk(acct.ID)
		}
	}
	walk(0)
	return entries, nil
}
