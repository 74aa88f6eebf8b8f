package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gledger-dev/gledger/internal/config"
	"github.com/gledger-dev/gledger/internal/postmonth"
	"github.com/gledger-dev/gledger/internal/yearend"
)

// run executes the CLI in-process and returns its standard output.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func initLedger(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "books")
	_, err := run(t, "", "init", dir, "--name", "Test BV")
	require.NoError(t, err)
	return dir
}

func TestInit(t *testing.T) {
	dir := initLedger(t)

	assert.FileExists(t, filepath.Join(dir, config.FileName))
	assert.FileExists(t, filepath.Join(dir, ".gitignore"))
	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "Test BV", cfg.Business.Name)

	out, err := run(t, "", "--dir", dir, "account", "list", "--pagelength", "-1")
	require.NoError(t, err)
	assert.Contains(t, out, "verkopen")
	assert.Contains(t, out, "15 total")

	_, err = run(t, "", "init", dir, "--name", "Again")
	assert.ErrorContains(t, err, "already exists")
}

func TestInitWithChartFile(t *testing.T) {
	chart := filepath.Join(t.TempDir(), "chart.csv")
	require.NoError(t, os.WriteFile(chart, []byte("name,role,parent,description\nkas,A,,Kas\nomzet,I,,\n"), 0o644))
	dir := filepath.Join(t.TempDir(), "books")

	_, err := run(t, "", "init", dir, "--name", "Test", "--chart-file", chart)
	require.NoError(t, err)

	out, err := run(t, "", "--dir", dir, "account", "export")
	require.NoError(t, err)
	assert.Equal(t, "name,role,parent,description\nkas,A,,Kas\nomzet,I,,\n", out)
}

func TestAccountCommands(t *testing.T) {
	dir := initLedger(t)

	out, err := run(t, "", "--dir", dir, "account", "create", "kluis", "--role", "A", "--parent", "activa")
	require.NoError(t, err)
	assert.Equal(t, "Created Asset account kluis\n", out)

	_, err = run(t, "", "--dir", dir, "account", "create", "kluis", "--role", "A")
	assert.Error(t, err)

	_, err = run(t, "", "--dir", dir, "account", "update", "kluis", "--description", "Brandkast")
	require.NoError(t, err)

	out, err = run(t, "", "--dir", dir, "account", "show", "kluis")
	require.NoError(t, err)
	assert.Contains(t, out, "parent:")
	assert.Contains(t, out, "activa")
	assert.Contains(t, out, "Brandkast")

	out, err = run(t, "", "--dir", dir, "account", "show", "activa")
	require.NoError(t, err)
	assert.Contains(t, out, "kluis")

	_, err = run(t, "", "--dir", dir, "account", "update", "activa", "--parent", "kluis")
	assert.Error(t, err)
}

func TestJournalCommands(t *testing.T) {
	dir := initLedger(t)
	now := time.Now()
	month := postmonth.External(postmonth.For(now))

	out, err := run(t, "", "--dir", dir, "postmonth", "open", month)
	require.NoError(t, err)
	assert.Equal(t, "Opened "+month+"\n", out)

	payload := `{"journal": {"extkey": "inv-001", "postings": [
		{"account": "kas", "currency": "EUR", "amount": 121, "debitcredit": "Db", "valuedate": "` + now.Format("2006-01-02") + `"},
		{"account": "verkopen", "currency": "EUR", "amount": "100", "debitcredit": "Cr", "valuedate": "` + now.Format("2006-01-02") + `"},
		{"account": "btw", "currency": "EUR", "amount": 21, "debitcredit": "Cr", "valuedate": "` + now.Format("2006-01-02") + `"}
	]}}`

	out, err = run(t, payload, "--dir", dir, "journal", "submit", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "with 3 postings")

	out, err = run(t, "", "--dir", dir, "journal", "show", "inv-001")
	require.NoError(t, err)
	assert.Contains(t, out, "Processed")
	assert.Contains(t, out, "verkopen")

	out, err = run(t, "", "--dir", dir, "account", "show", "kas")
	require.NoError(t, err)
	assert.Regexp(t, `balance:\s+121\n`, out)

	out, err = run(t, "", "--dir", dir, "account", "show", "activa", "--month", month)
	require.NoError(t, err)
	assert.Regexp(t, `ultimo `+month+`:\s+121\n`, out)

	out, err = run(t, "", "--dir", dir, "journal", "postings", "verkopen")
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")

	out, err = run(t, "", "--dir", dir, "journal", "list", "inv")
	require.NoError(t, err)
	assert.Contains(t, out, "inv-001")

	_, err = run(t, payload, "--dir", dir, "journal", "submit", "-")
	assert.Error(t, err, "duplicate external key")
}

func TestJournalCreateThenPost(t *testing.T) {
	dir := initLedger(t)
	today := time.Now().Format("2006-01-02")
	_, err := run(t, "", "--dir", dir, "postmonth", "open", postmonth.External(postmonth.For(time.Now())))
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "journal.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"journal": {"postings": [
		{"account": "bank", "currency": "EUR", "amount": 50, "debitcredit": "Db", "valuedate": "`+today+`"},
		{"account": "kas", "currency": "EUR", "amount": 50, "debitcredit": "Cr", "valuedate": "`+today+`"}
	]}}`), 0o644))

	out, err := run(t, "", "--dir", dir, "journal", "create", file)
	require.NoError(t, err)
	assert.Equal(t, "Created journal 1\n", out)

	out, err = run(t, "", "--dir", dir, "journal", "show", "--id", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Unprocessed")

	out, err = run(t, "", "--dir", dir, "journal", "post", "1")
	require.NoError(t, err)
	assert.Equal(t, "Posted journal 1\n", out)

	_, err = run(t, "", "--dir", dir, "journal", "post", "1")
	assert.Error(t, err)
}

func TestPostmonthCommands(t *testing.T) {
	dir := initLedger(t)

	_, err := run(t, "", "--dir", dir, "postmonth", "open", "01-2020", "02-2020")
	require.NoError(t, err)

	out, err := run(t, "", "--dir", dir, "postmonth", "close", "01-2020")
	require.NoError(t, err)
	assert.Equal(t, "Closed 1 postmonths\n", out)

	_, err = run(t, "", "--dir", dir, "postmonth", "close", "02-2020", "03-2020")
	assert.ErrorIs(t, err, postmonth.ErrNoPostmonth)

	out, err = run(t, "", "--dir", dir, "postmonth", "list", "--from", "01-2020")
	require.NoError(t, err)
	assert.Regexp(t, `01-2020\s+Closed\n`, out)
	assert.Regexp(t, `02-2020\s+Active\n`, out)

	_, err = run(t, "", "--dir", dir, "postmonth", "open", "13-2020")
	assert.ErrorIs(t, err, postmonth.ErrInvalidPostmonth)
}

func TestYearEndCommands(t *testing.T) {
	dir := initLedger(t)

	_, err := run(t, "", "--dir", dir, "yearend", "close")
	assert.ErrorIs(t, err, yearend.ErrNoPreviousClose)

	out, err := run(t, "", "--dir", dir, "yearend", "preview", "--start", "2020-01-01")
	require.NoError(t, err)
	assert.Contains(t, out, `"account": "winst"`)
	assert.Contains(t, out, `"valuedate": "2020-01-01"`)

	_, err = run(t, "", "--dir", dir, "yearend", "preview", "--start", "01-01-2020")
	assert.ErrorContains(t, err, "parsing --start")
}
