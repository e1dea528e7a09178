package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/timexkit/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	driver, err := NewDB(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	s := store.New(driver)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.CreateHistory(ctx, &store.History{
		RequestID:   "req-1",
		Timex:       "XXXX-WXX-3",
		ReferenceTs: time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC).Unix(),
		Timezone:    "UTC",
		Policy:      "past",
		Candidates:  2,
		Payload:     `[{"timex":"XXXX-WXX-3"}]`,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.NotEmpty(t, created.UID)
	assert.NotZero(t, created.CreatedTs)

	got, err := s.GetHistory(ctx, created.UID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created, got)

	missing, err := s.GetHistory(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = s.CreateHistory(ctx, &store.History{})
	assert.Error(t, err)
}

func TestListHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i, text := range []string{"2021-06-15", "P3D", "2021-02-29", "P3D"} {
		h := &store.History{Timex: text, CreatedTs: int64(1000 + i)}
		if text == "2021-02-29" {
			h.ErrorCode = "INVALID_CALENDAR_DATE"
		}
		_, err := s.CreateHistory(ctx, h)
		require.NoError(t, err)
	}

	all, err := s.ListHistory(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, int64(1003), all[0].CreatedTs, "newest first")
	assert.Equal(t, "[]", all[0].Payload)

	text := "P3D"
	durations, err := s.ListHistory(ctx, &store.FindHistory{Timex: &text})
	require.NoError(t, err)
	assert.Len(t, durations, 2)

	code := "INVALID_CALENDAR_DATE"
	failed, err := s.ListHistory(ctx, &store.FindHistory{ErrorCode: &code})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "2021-02-29", failed[0].Timex)

	page, err := s.ListHistory(ctx, &store.FindHistory{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(1002), page[0].CreatedTs)

	removed, err := s.GetDriver().DeleteHistory(ctx, &store.DeleteHistory{CreatedBefore: 1002})
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	all, err = s.ListHistory(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Migrate(context.Background()))
	assert.Equal(t, "sqlite", s.GetDriver().Type())
}

func TestNewDBRequiresDSN(t *testing.T) {
	_, err := NewDB("")
	assert.Error(t, err)
}
