package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLine(t *testing.T) {
	t.Parallel()

	entry, err := DecodeLine([]byte(`{"timestamp":"2026-08-30T12:00:00Z","event":"Docked","MarketID":128666762}`))
	require.NoError(t, err)
	assert.Equal(t, "Docked", entry.Name())
	assert.EqualValues(t, 128666762, entry.Int("MarketID"))
}

func TestDecodeLineRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := DecodeLine([]byte(`{"timestamp":`))
	assert.ErrorContains(t, err, "decode journal line")

	_, err = DecodeLine([]byte(`{"timestamp":"t"}`))
	assert.ErrorContains(t, err, "no event name")
}

func TestLatestJournal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	assert.Empty(t, latestJournal(dir))

	for _, name := range []string{
		"Journal.2026-08-29T100000.01.log",
		"Journal.2026-08-30T090000.01.log",
		"Status.json",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	assert.Equal(t, filepath.Join(dir, "Journal.2026-08-30T090000.01.log"), latestJournal(dir))
}

func TestIsJournalFile(t *testing.T) {
	t.Parallel()

	assert.True(t, isJournalFile("/tmp/Journal.2026-08-30T090000.01.log"))
	assert.False(t, isJournalFile("/tmp/Status.json"))
	assert.False(t, isJournalFile("/tmp/Journal.2026-08-30T090000.01.log.backup"))
}

func TestNewWatcherRejectsMissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), nil)
	assert.ErrorContains(t, err, "stat journal directory")

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	_, err = NewWatcher(file, nil)
	assert.ErrorContains(t, err, "not a directory")
}
