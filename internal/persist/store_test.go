package persist

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveystock/internal/core"
	"surveystock/internal/storage"
	"surveystock/internal/storage/memory"
)

type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}
func (failingKV) Put(context.Context, string, string) error { return errors.New("disk on fire") }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sampleState() core.PersistedState {
	ts := core.NewTimestamp(time.Date(2025, 4, 1, 10, 30, 0, 123_000_000, time.UTC))
	return core.PersistedState{
		Stock: []core.StockItem{
			{Category: "العمر 20-29", Total: 20, Remaining: 19},
			{Category: "نيدو", Total: 90, Remaining: 89},
		},
		Transactions: []core.Transaction{
			{Category: "العمر 20-29", Notes: "بيت 4", Timestamp: ts},
			{Category: "نيدو", Notes: "بيت 4", Timestamp: ts},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	saveTime := time.Date(2025, 4, 1, 10, 31, 0, 0, time.UTC)
	s := New(kv, WithClock(fixedClock(saveTime)))

	state := sampleState()
	require.NoError(t, s.Save(ctx, &state))
	assert.True(t, state.LastSyncedAt.Equal(core.NewTimestamp(saveTime)))

	loaded, ok := s.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, state, loaded)
}

func TestSaveLoadRoundTripSQLite(t *testing.T) {
	ctx := context.Background()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer repo.Close()

	s := New(repo, WithKey("campaign-7"))
	state := sampleState()
	require.NoError(t, s.Save(ctx, &state))

	loaded, ok := s.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, state, loaded)
	assert.Equal(t, "campaign-7", s.Key())
}

func TestLoadWithoutPriorState(t *testing.T) {
	_, ok := New(memory.New()).Load(context.Background())
	assert.False(t, ok)
}

func TestLoadTreatsFailuresAsNoPriorState(t *testing.T) {
	ctx := context.Background()
	cases := map[string]KeyValueStore{
		"not json":      memory.Seed(map[string]string{DefaultKey: "{oops"}),
		"bad timestamp": memory.Seed(map[string]string{DefaultKey: `{"inventory":[],"transactions":[{"category":"A","notes":"","timestamp":"soon"}],"lastSync":5}`}),
		"read error":    failingKV{},
		"null":          memory.Seed(map[string]string{DefaultKey: "null"}),
		"array":         memory.Seed(map[string]string{DefaultKey: "[]"}),
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := New(kv).Load(ctx)
			assert.False(t, ok)
		})
	}
}

func TestLoadWithoutInventoryLeavesStockUnset(t *testing.T) {
	ctx := context.Background()
	for name, raw := range map[string]string{
		"empty object": `{}`,
		"no inventory": `{"transactions":[],"lastSync":5}`,
	} {
		t.Run(name, func(t *testing.T) {
			state, ok := New(memory.Seed(map[string]string{DefaultKey: raw})).Load(ctx)
			require.True(t, ok)
			assert.Nil(t, state.Stock)
		})
	}

	state, ok := New(memory.Seed(map[string]string{DefaultKey: `{"inventory":[],"lastSync":5}`})).Load(ctx)
	require.True(t, ok)
	assert.NotNil(t, state.Stock)
	assert.Empty(t, state.Stock)
}

func TestLoadClampsStock(t *testing.T) {
	kv := memory.Seed(map[string]string{
		DefaultKey: `{"inventory":[{"category":"A","total":2,"remaining":5},{"category":"B","total":3,"remaining":-1},` +
			`{"category":"C","total":-3,"remaining":2}],"transactions":[],"lastSync":1000}`,
	})
	state, ok := New(kv).Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, []core.StockItem{
		{Category: "A", Total: 2, Remaining: 2},
		{Category: "B", Total: 3, Remaining: 0},
		{Category: "C", Total: 0, Remaining: 0},
	}, state.Stock)
	assert.Equal(t, int64(1000), state.LastSyncedAt.Millis())
}

func TestLoadReadsOriginalFormat(t *testing.T) {
	kv := memory.Seed(map[string]string{
		DefaultKey: `{"inventory":[{"category":"حليبنا","total":29,"remaining":28}],` +
			`"transactions":[{"category":"حليبنا","notes":"","timestamp":"2024-11-05T08:15:30.250Z"}],` +
			`"lastSync":1730794530260}`,
	})
	state, ok := New(kv).Load(context.Background())
	require.True(t, ok)
	require.Len(t, state.Transactions, 1)
	assert.Equal(t, "2024-11-05T08:15:30.250Z", state.Transactions[0].Timestamp.String())
}

func TestSaveReportsWriteFailure(t *testing.T) {
	state := sampleState()
	err := New(failingKV{}).Save(context.Background(), &state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save state")
}

func TestCheckForNewer(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	saved := time.Date(2025, 5, 5, 5, 5, 5, 0, time.UTC)
	writer := New(kv, WithClock(fixedClock(saved)))
	reader := New(kv)

	_, ok := reader.CheckForNewer(ctx, core.Timestamp{})
	assert.False(t, ok, "nothing stored yet")

	state := sampleState()
	require.NoError(t, writer.Save(ctx, &state))

	got, ok := reader.CheckForNewer(ctx, core.NewTimestamp(saved.Add(-time.Millisecond)))
	require.True(t, ok)
	assert.Equal(t, state, got)

	_, ok = reader.CheckForNewer(ctx, core.NewTimestamp(saved))
	assert.False(t, ok, "equal lastSync is not newer")

	_, ok = reader.CheckForNewer(ctx, core.NewTimestamp(saved.Add(time.Second)))
	assert.False(t, ok)
}

func TestCheckForNewerIgnoresGarbage(t *testing.T) {
	kv := memory.Seed(map[string]string{DefaultKey: "]]"})
	_, ok := New(kv).CheckForNewer(context.Background(), core.Timestamp{})
	assert.False(t, ok)
}
