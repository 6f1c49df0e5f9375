// Package inbox enforces the single-active-file discipline of the feed inbox
// and moves processed feeds into the dated backup directory.
package inbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrEmpty is returned by Active when the inbox has no candidate file.
var ErrEmpty = errors.New("inbox is empty")

// DateLayout is the dd-mm-yyyy stamp used in backup and log file names.
const DateLayout = "02-01-2006"

// Dir is an inbox directory paired with its backup directory.
type Dir struct {
	inbox  string
	backup string
	logger *zerolog.Logger
	now    func() time.Time
}

// New creates the inbox and backup directories if needed.
func New(inboxDir, backupDir string, logger *zerolog.Logger) (*Dir, error) {
	for _, d := range []string{inboxDir, backupDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", d, err)
		}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Dir{inbox: inboxDir, backup: backupDir, logger: logger, now: time.Now}, nil
}

// WithClock overrides the clock used for backup names.
func (d *Dir) WithClock(now func() time.Time) *Dir {
	d.now = now
	return d
}

// Path returns the inbox directory.
func (d *Dir) Path() string {
	return d.inbox
}

// BackupPath returns the backup directory.
func (d *Dir) BackupPath() string {
	return d.backup
}

// LogDir returns the directory holding the dated import logs.
func (d *Dir) LogDir() string {
	return filepath.Join(d.backup, "logs")
}

// Active returns the path of the first regular, non-hidden file of the inbox
// in lexical order.
func (d *Dir) Active() (string, error) {
	entries, err := os.ReadDir(d.inbox)
	if err != nil {
		return "", fmt.Errorf("failed to list inbox %s: %w", d.inbox, err)
	}

	// ReadDir already sorts by name; keep the rule explicit.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || !e.Type().IsRegular() {
			continue
		}
		return filepath.Join(d.inbox, name), nil
	}
	return "", ErrEmpty
}

// Relocate moves the active inbox file into the backup directory under its
// dated name and returns the new path. It returns "" when there is nothing
// to move or the move fails; failures are logged, not returned.
func (d *Dir) Relocate() string {
	path, err := d.Active()
	if err != nil {
		if !errors.Is(err, ErrEmpty) {
			d.logger.Error().Err(err).Msg("Cannot relocate feed")
		}
		return ""
	}
	return d.RelocateFile(path)
}

// RelocateFile moves path into the backup directory. A counter suffix is
// added when the dated name is already taken.
func (d *Dir) RelocateFile(path string) string {
	target := filepath.Join(d.backup, BackupName(filepath.Base(path), d.now()))
	for i := 1; fileExists(target); i++ {
		ext := filepath.Ext(target)
		base := strings.TrimSuffix(BackupName(filepath.Base(path), d.now()), ext)
		target = filepath.Join(d.backup, base+"-"+strconv.Itoa(i)+ext)
	}

	if err := os.Rename(path, target); err != nil {
		d.logger.Error().Err(err).Str("file", path).Str("target", target).Msg("Cannot move feed to backup")
		return ""
	}
	d.logger.Info().Str("file", path).Str("target", target).Msg("Feed moved to backup")
	return target
}

// BackupName returns "<base>-<dd-mm-yyyy><ext>" for name.
func BackupName(name string, t time.Time) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return base + "-" + t.Format(DateLayout) + ext
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
