package accounts_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gledger-dev/gledger/internal/accounts"
	"github.com/gledger-dev/gledger/internal/model"
)

func TestImportExport(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	chart := accounts.DefaultChart("")
	n, err := svc.Import(ctx, chart)
	require.NoError(t, err)
	assert.Equal(t, len(chart), n)

	kas, err := svc.ByName(ctx, "kas")
	require.NoError(t, err)
	parent, ok, err := svc.Parent(ctx, kas)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "activa", parent.Name)

	exported, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, chart, exported)
}

func TestImportIsAtomic(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Import(ctx, []accounts.ChartEntry{
		{Name: "activa", Role: model.RoleAsset},
		{Name: "kas", Role: model.RoleAsset, Parent: "missing"},
	})
	assert.ErrorIs(t, err, accounts.ErrNoAccount)

	_, err = svc.ByName(ctx, "activa")
	assert.ErrorIs(t, err, accounts.ErrNoAccount)
}
