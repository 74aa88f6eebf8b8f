package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gledger-dev/gledger/internal/accounts"
	"github.com/gledger-dev/gledger/internal/config"
	"github.com/gledger-dev/gledger/internal/store"
)

func newInitCommand() *cobra.Command {
	var name string
	var chart string
	var chartFile string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(cmd.Context(), cmd.ErrOrStderr(), absDir, name, chart, chartFile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized ledger at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&chart, "chart", "sole_trader", "default chart of accounts")
	cmd.Flags().StringVar(&chartFile, "chart-file", "", "chart of accounts CSV to import instead of the default")

	return cmd
}

func runInit(ctx context.Context, logOut io.Writer, dir, name, chart, chartFile string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	entries := accounts.DefaultChart(chart)
	if chartFile != "" {
		f, err := os.Open(chartFile)
		if err != nil {
			return fmt.Errorf("opening chart: %w", err)
		}
		defer f.Close()
		if entries, err = accounts.ReadChart(f); err != nil {
			return err
		}
	}

	cfg := config.Default(name, chart)
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	st, err := store.Open(ctx, cfg.DatabasePath(dir))
	if err != nil {
		return err
	}
	defer st.Close()

	log, err := config.NewLogger(cfg.Log, logOut)
	if err != nil {
		return err
	}
	log.SetLevel(logrus.WarnLevel)
	if _, err := accounts.NewService(st, log).Import(ctx, entries); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	gitignore := "*.db\n*.db-wal\n*.db-shm\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	return nil
}
