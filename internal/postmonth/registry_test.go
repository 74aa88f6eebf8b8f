package postmonth_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gledger-dev/gledger/internal/model"
	"github.com/gledger-dev/gledger/internal/page"
	"github.com/gledger-dev/gledger/internal/postmonth"
	"github.com/gledger-dev/gledger/internal/store"
	"github.com/gledger-dev/gledger/internal/store/storetest"
)

var today = time.Date(2016, 2, 10, 9, 0, 0, 0, time.UTC)

func newRegistry(t *testing.T) (*postmonth.Registry, *store.Store) {
	t.Helper()
	st := storetest.New(t)
	log := logrus.New()
	log.SetOutput(io.Discard)
	reg := postmonth.NewRegistry(st, log)
	reg.SetClock(func() time.Time { return today })
	return reg, st
}

func addPostmonths(t *testing.T, reg *postmonth.Registry, status model.PostmonthStatus, pms ...int) {
	t.Helper()
	for _, pm := range pms {
		_, err := reg.Create(context.Background(), pm, status)
		require.NoError(t, err)
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t)

	pm, err := reg.Create(ctx, 201507, model.PostmonthActive)
	require.NoError(t, err)
	assert.True(t, pm.CanPost())

	_, err = reg.Create(ctx, 201507, model.PostmonthActive)
	assert.ErrorIs(t, err, postmonth.ErrPostmonthExists)

	_, err = reg.Create(ctx, 201508, "x")
	assert.ErrorIs(t, err, postmonth.ErrInvalidPostmonth)

	_, err = reg.Create(ctx, 201513, model.PostmonthActive)
	assert.ErrorIs(t, err, postmonth.ErrInvalidPostmonth)

	_, err = reg.Get(ctx, 201509)
	assert.ErrorIs(t, err, postmonth.ErrNoPostmonth)
}

func TestCanPost(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t)
	addPostmonths(t, reg, model.PostmonthActive, 201507)
	addPostmonths(t, reg, model.PostmonthClosed, 201506)

	assert.NoError(t, reg.CanPost(ctx, 201507))
	assert.ErrorIs(t, reg.CanPost(ctx, 201506), postmonth.ErrPostmonthClosed)
	assert.NoError(t, reg.CanPost(ctx, 201602), "current month without record is implicitly active")
	assert.ErrorIs(t, reg.CanPost(ctx, 201603), postmonth.ErrPostmonthNotOpen)
}

func TestCheckNoLaterClose(t *testing.T) {
	ctx := context.Background()
	reg, st := newRegistry(t)
	addPostmonths(t, reg, model.PostmonthActive, 201511, 201512, 201602)
	addPostmonths(t, reg, model.PostmonthClosed, 201601)

	assert.ErrorIs(t, postmonth.CheckNoLaterClose(ctx, st.DB(), 201511), postmonth.ErrPostmonthClosed)
	assert.ErrorIs(t, postmonth.CheckNoLaterClose(ctx, st.DB(), 201512), postmonth.ErrPostmonthClosed)
	assert.NoError(t, postmonth.CheckNoLaterClose(ctx, st.DB(), 201601))
	assert.NoError(t, postmonth.CheckNoLaterClose(ctx, st.DB(), 201602))
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t)
	addPostmonths(t, reg, model.PostmonthActive, 201507)

	require.NoError(t, reg.Close(ctx, 201507))
	require.NoError(t, reg.Close(ctx, 201507), "closing twice is harmless")
	pm, err := reg.Get(ctx, 201507)
	require.NoError(t, err)
	assert.Equal(t, model.PostmonthClosed, pm.Status)

	assert.ErrorIs(t, reg.Close(ctx, 201508), postmonth.ErrNoPostmonth)
}

func TestUpdateFromList_Idempotent(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t)
	addPostmonths(t, reg, model.PostmonthActive, 201506, 201507, 201508)

	changes := []postmonth.Change{
		{Postmonth: "201506", Status: model.PostmonthClosed},
		{Postmonth: "201507", Status: model.PostmonthClosed},
	}
	n, err := reg.UpdateFromList(ctx, changes)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = reg.UpdateFromList(ctx, changes)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "second run changes nothing")

	for pm, want := range map[int]model.PostmonthStatus{
		201506: model.PostmonthClosed,
		201507: model.PostmonthClosed,
		201508: model.PostmonthActive,
	} {
		got, err := reg.Get(ctx, pm)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status, "postmonth %d", pm)
	}
}

func TestUpdateFromList_RejectsWholeBatch(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t)
	addPostmonths(t, reg, model.PostmonthActive, 201506, 201507)

	tests := []struct {
		name    string
		changes []postmonth.Change
		wantErr error
	}{
		{"missing postmonth", []postmonth.Change{
			{Postmonth: "201506", Status: model.PostmonthClosed},
			{Postmonth: "201509", Status: model.PostmonthClosed},
		}, postmonth.ErrNoPostmonth},
		{"not a number", []postmonth.Change{
			{Postmonth: "201506", Status: model.PostmonthClosed},
			{Postmonth: "2015x7", Status: model.PostmonthClosed},
		}, postmonth.ErrInvalidPostmonth},
		{"too long", []postmonth.Change{
			{Postmonth: "2015061", Status: model.PostmonthClosed},
		}, postmonth.ErrInvalidPostmonth},
		{"month out of range", []postmonth.Change{
			{Postmonth: "201513", Status: model.PostmonthClosed},
		}, postmonth.ErrInvalidPostmonth},
		{"bad status", []postmonth.Change{
			{Postmonth: "201507", Status: "z"},
		}, postmonth.ErrInvalidPostmonth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.UpdateFromList(ctx, tt.changes)
			assert.ErrorIs(t, err, tt.wantErr)

			for _, pm := range []int{201506, 201507} {
				got, err := reg.Get(ctx, pm)
				require.NoError(t, err)
				assert.Equal(t, model.PostmonthActive, got.Status, "postmonth %d must be untouched", pm)
			}
		})
	}
}

func TestUpdateFromMap(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t)
	addPostmonths(t, reg, model.PostmonthActive, 201506, 201507)

	n, err := reg.UpdateFromMap(ctx, map[string]model.PostmonthStatus{
		"201506": model.PostmonthClosed,
		"201507": model.PostmonthActive,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBetween(t *testing.T) {
	ctx := context.Background()
	reg, _ := newRegistry(t)
	addPostmonths(t, reg, model.PostmonthClosed, 201501, 201507)
	addPostmonths(t, reg, model.PostmonthActive, 201509, 201601)

	from := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)

	all, err := reg.Between(ctx, from, to, "")
	require.NoError(t, err)
	assert.Len(t, all, 3, "from is included, to is excluded")

	active, err := reg.Between(ctx, from, to, model.PostmonthActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 201509, active[0].Postmonth)
}

func TestList_FromLastClose(t *testing.T) {
	ctx := context.Background()
	reg, st := newRegistry(t)
	addPostmonths(t, reg, model.PostmonthClosed, 201411, 201412)
	addPostmonths(t, reg, model.PostmonthActive, 201501, 201502, 201503)

	p, err := reg.List(ctx, 0, page.New(1, 0, postmonth.DefaultPageLength))
	require.NoError(t, err)
	assert.Equal(t, 5, p.Total, "without close date every postmonth is listed")

	require.NoError(t, postmonth.RecordClose(ctx, st.DB(), time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)))
	p, err = reg.List(ctx, 0, page.New(1, 2, postmonth.DefaultPageLength))
	require.NoError(t, err)
	assert.Equal(t, 3, p.Total)
	assert.Equal(t, 2, p.NumPages())
	require.Len(t, p.Items, 2)
	assert.Equal(t, 201501, p.Items[0].Postmonth)

	p, err = reg.List(ctx, 0, page.New(2, 2, postmonth.DefaultPageLength))
	require.NoError(t, err)
	require.Len(t, p.Items, 1)
	assert.Equal(t, 201503, p.Items[0].Postmonth)
}

func TestLastClose(t *testing.T) {
	ctx := context.Background()
	reg, st := newRegistry(t)

	_, err := reg.LastClose(ctx)
	assert.ErrorIs(t, err, postmonth.ErrNoCloseDate)

	require.NoError(t, postmonth.RecordClose(ctx, st.DB(), time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, postmonth.RecordClose(ctx, st.DB(), time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)))
	last, err := reg.LastClose(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2015, last.Year())
}
