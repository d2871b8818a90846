package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "watches.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndListWatches(t *testing.T) {
	s := testStore(t)

	w, err := s.AddWatch(178391, 8839921, "Wireless Mouse")
	require.NoError(t, err)
	assert.NotZero(t, w.ID)

	_, err = s.AddWatch(200000, 300000, "Mouse Pad")
	require.NoError(t, err)

	watches, err := s.ListWatches()
	require.NoError(t, err)
	require.Len(t, watches, 2)
	assert.Equal(t, "Wireless Mouse", watches[0].Name)
	assert.Equal(t, int64(178391), watches[0].ShopID)
	assert.Equal(t, int64(8839921), watches[0].ItemID)
}

func TestAddWatchTwiceUpdatesName(t *testing.T) {
	s := testStore(t)

	w1, err := s.AddWatch(178391, 8839921, "Old Name")
	require.NoError(t, err)
	w2, err := s.AddWatch(178391, 8839921, "New Name")
	require.NoError(t, err)

	assert.Equal(t, w1.ID, w2.ID)

	watches, err := s.ListWatches()
	require.NoError(t, err)
	require.Len(t, watches, 1)
	assert.Equal(t, "New Name", watches[0].Name)
}

func TestRemoveWatch(t *testing.T) {
	s := testStore(t)

	w, err := s.AddWatch(178391, 8839921, "Wireless Mouse")
	require.NoError(t, err)
	require.NoError(t, s.RecordPrice(w.ID, 12.90))

	require.NoError(t, s.RemoveWatch(w.ID))

	watches, err := s.ListWatches()
	require.NoError(t, err)
	assert.Empty(t, watches)

	history, err := s.PriceHistory(w.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, history, "prices go with the watch")
}

func TestRemoveMissingWatch(t *testing.T) {
	s := testStore(t)
	assert.ErrorIs(t, s.RemoveWatch(42), sql.ErrNoRows)
}

func TestPriceHistory(t *testing.T) {
	s := testStore(t)

	w, err := s.AddWatch(178391, 8839921, "Wireless Mouse")
	require.NoError(t, err)

	for _, price := range []float64{15.90, 14.50, 12.90} {
		require.NoError(t, s.RecordPrice(w.ID, price))
	}

	history, err := s.PriceHistory(w.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 12.90, history[0].Price, "newest first")

	latest, err := s.LatestPrice(w.ID)
	require.NoError(t, err)
	assert.Equal(t, 12.90, latest.Price)
}

func TestLatestPriceMissing(t *testing.T) {
	s := testStore(t)

	w, err := s.AddWatch(178391, 8839921, "Wireless Mouse")
	require.NoError(t, err)

	_, err = s.LatestPrice(w.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
