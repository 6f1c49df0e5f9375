package inbox

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDir(t *testing.T) *Dir {
	t.Helper()
	root := t.TempDir()
	d, err := New(filepath.Join(root, "in"), filepath.Join(root, "bk"), nil)
	require.NoError(t, err)
	return d.WithClock(func() time.Time {
		return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	})
}

func write(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("<x/>"), 0644))
}

func TestActive(t *testing.T) {
	d := newDir(t)

	_, err := d.Active()
	assert.ErrorIs(t, err, ErrEmpty)

	write(t, filepath.Join(d.Path(), ".hidden"))
	require.NoError(t, os.Mkdir(filepath.Join(d.Path(), "a-dir"), 0755))
	_, err = d.Active()
	assert.ErrorIs(t, err, ErrEmpty)

	write(t, filepath.Join(d.Path(), "b.xml"))
	write(t, filepath.Join(d.Path(), "a.xml"))

	path, err := d.Active()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(d.Path(), "a.xml"), path)
}

func TestBackupName(t *testing.T) {
	at := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		want string
	}{
		{"feed.xml", "feed-07-03-2026.xml"},
		{"catalog.v2.xml", "catalog.v2-07-03-2026.xml"},
		{"noext", "noext-07-03-2026"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BackupName(tt.name, at))
		})
	}
}

func TestRelocate(t *testing.T) {
	d := newDir(t)
	assert.Equal(t, "", d.Relocate())

	write(t, filepath.Join(d.Path(), "feed.xml"))
	target := d.Relocate()
	assert.Equal(t, filepath.Join(d.BackupPath(), "feed-18-10-2026.xml"), target)
	assert.FileExists(t, target)
	assert.NoFileExists(t, filepath.Join(d.Path(), "feed.xml"))

	// Same name on the same day does not overwrite the earlier backup.
	write(t, filepath.Join(d.Path(), "feed.xml"))
	second := d.Relocate()
	assert.Equal(t, filepath.Join(d.BackupPath(), "feed-18-10-2026-1.xml"), second)
	assert.FileExists(t, target)
}

func TestRelocateFileMissing(t *testing.T) {
	d := newDir(t)
	assert.Equal(t, "", d.RelocateFile(filepath.Join(d.Path(), "gone.xml")))
}
