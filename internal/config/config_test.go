package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("Test Biz", "")
	cfg.Ledger.ProfitAccount = "resultaat"
	cfg.Log.Format = "text"

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default("My Company", "")

	assert.Equal(t, "My Company", cfg.Business.Name)
	assert.Equal(t, "sole_trader", cfg.Business.Chart)
	assert.Equal(t, "gledger.db", cfg.Database.Path)
	assert.Equal(t, "EUR", cfg.Ledger.Currency)
	assert.Equal(t, "winst", cfg.Ledger.ProfitAccount)
	assert.Equal(t, 250, cfg.Ledger.YearEndBatch)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("ledger:\n  currency: USD\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "USD", cfg.Ledger.Currency)
	assert.Equal(t, "winst", cfg.Ledger.ProfitAccount)
	assert.Equal(t, 250, cfg.Ledger.YearEndBatch)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvAddr, ":9999")
	t.Setenv(EnvYearEndBatch, "10")

	cfg := Default("", "")
	require.NoError(t, cfg.ApplyEnv(""))
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.Ledger.YearEndBatch)

	t.Setenv(EnvYearEndBatch, "many")
	assert.Error(t, cfg.ApplyEnv(""))
}

func TestDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() { _ = os.Unsetenv(EnvDBPath) })
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvDBPath+"=/var/lib/gledger/books.db\n"), 0o644))
	path := filepath.Join(dir, FileName)
	require.NoError(t, Save(path, Default("", "")))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/gledger/books.db", cfg.Database.Path)
	assert.Equal(t, "/var/lib/gledger/books.db", cfg.DatabasePath(dir))
}

func TestDatabasePath(t *testing.T) {
	cfg := Default("", "")
	assert.Equal(t, filepath.Join("/books", "gledger.db"), cfg.DatabasePath("/books"))
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default("Test Biz", "")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Test Biz")
	assert.Contains(t, contents, "profit_account: winst")
	assert.Contains(t, contents, "yearend_batch: 250")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	logger.Info("hidden")
	logger.WithField("journal", 7).Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"journal":7`)

	_, err = NewLogger(LogConfig{Format: "xml"}, &buf)
	assert.Error(t, err)
	_, err = NewLogger(LogConfig{Level: "loud"}, &buf)
	assert.Error(t, err)
}
