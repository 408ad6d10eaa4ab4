package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendIgnoreEntry_PlainFingerprint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".nosecretsignore")

	require.NoError(t, appendIgnoreEntry(path, "nsi_abc123abc123", ""))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "nsi_abc123abc123\n", string(data))
}

func TestAppendIgnoreEntry_WithPathGlob(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".nosecretsignore")

	require.NoError(t, appendIgnoreEntry(path, "nsi_abc123abc123", "testdata/**"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "nsi_abc123abc123:testdata/**\n", string(data))
}

func TestAppendIgnoreEntry_AppendsWithoutTruncating(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".nosecretsignore")

	require.NoError(t, appendIgnoreEntry(path, "nsi_111111111111", ""))
	require.NoError(t, appendIgnoreEntry(path, "nsi_222222222222", ""))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "nsi_111111111111\nnsi_222222222222\n", string(data))
}

func TestIsYes(t *testing.T) {
	assert.True(t, isYes("y\n"))
	assert.True(t, isYes("Y\n"))
	assert.True(t, isYes("yes\n"))
	assert.False(t, isYes("\n"))
	assert.False(t, isYes("n\n"))
	assert.False(t, isYes("nope\n"))
}
