package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "state", "desk.db"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewRepository(db)
}

func TestHandles(t *testing.T) {
	repo := newTestRepository(t)

	_, ok, err := repo.GetHandle(HandleDefaultDir)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SaveHandle(HandleDefaultDir, "/tmp/a"))
	require.NoError(t, repo.SaveHandle(HandleDefaultDir, "/tmp/b"))

	path, ok, err := repo.GetHandle(HandleDefaultDir)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/tmp/b", path)

	require.NoError(t, repo.ClearHandle(HandleDefaultDir))
	_, ok, err = repo.GetHandle(HandleDefaultDir)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPreferences(t *testing.T) {
	repo := newTestRepository(t)

	v, err := repo.GetPreference(PrefTheme, "dark")
	require.NoError(t, err)
	assert.Equal(t, "dark", v)

	require.NoError(t, repo.SetPreference(PrefTheme, "light"))
	require.NoError(t, repo.SetPreference(PrefClosedViewUnit, "pct"))
	require.NoError(t, repo.SetPreference(PrefClosedViewUnit, "usd"))

	v, err = repo.GetPreference(PrefClosedViewUnit, "pct")
	require.NoError(t, err)
	assert.Equal(t, "usd", v)

	prefs, err := repo.Preferences()
	require.NoError(t, err)
	require.Len(t, prefs, 2)
	assert.Equal(t, PrefClosedViewUnit, prefs[0].Key)
	assert.Equal(t, "light", prefs[1].Value)
}
