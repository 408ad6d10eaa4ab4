package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_UnknownBlobIsNotClean(t *testing.T) {
	c := openTest(t)
	clean, err := c.IsClean("deadbeef")
	require.NoError(t, err)
	assert.False(t, clean)
}

func TestCache_MarkCleanThenIsClean(t *testing.T) {
	c := openTest(t)
	require.NoError(t, c.MarkClean("deadbeef", 1700000000))

	clean, err := c.IsClean("deadbeef")
	require.NoError(t, err)
	assert.True(t, clean)
}

func TestCache_MarkCleanTwiceUpdatesTimestamp(t *testing.T) {
	c := openTest(t)
	require.NoError(t, c.MarkClean("h1", 100))
	require.NoError(t, c.MarkClean("h1", 200))

	clean, err := c.IsClean("h1")
	require.NoError(t, err)
	assert.True(t, clean)
}

func TestCache_Invalidate(t *testing.T) {
	c := openTest(t)
	require.NoError(t, c.MarkClean("h1", 100))
	require.NoError(t, c.Invalidate("h1"))

	clean, err := c.IsClean("h1")
	require.NoError(t, err)
	assert.False(t, clean)
}

func TestCache_SyncRuleSetVersion_FirstCallStampsVersion(t *testing.T) {
	c := openTest(t)
	wiped, err := c.SyncRuleSetVersion("v1")
	require.NoError(t, err)
	assert.True(t, wiped, "a cache with no stored version must be treated as stale")
}

func TestCache_SyncRuleSetVersion_SameVersionKeepsCleanBlobs(t *testing.T) {
	c := openTest(t)
	_, err := c.SyncRuleSetVersion("v1")
	require.NoError(t, err)
	require.NoError(t, c.MarkClean("h1", 100))

	wiped, err := c.SyncRuleSetVersion("v1")
	require.NoError(t, err)
	assert.False(t, wiped)

	clean, err := c.IsClean("h1")
	require.NoError(t, err)
	assert.True(t, clean, "resyncing the same version must not disturb recorded clean blobs")
}

func TestCache_SyncRuleSetVersion_ChangedVersionWipesCleanBlobs(t *testing.T) {
	c := openTest(t)
	_, err := c.SyncRuleSetVersion("v1")
	require.NoError(t, err)
	require.NoError(t, c.MarkClean("h1", 100))

	wiped, err := c.SyncRuleSetVersion("v2")
	require.NoError(t, err)
	assert.True(t, wiped, "a rule-set change must invalidate every previously clean blob")

	clean, err := c.IsClean("h1")
	require.NoError(t, err)
	assert.False(t, clean)
}
