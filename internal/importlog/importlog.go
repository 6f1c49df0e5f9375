// Package importlog writes import job logs to a dated file next to the
// regular log output.
package importlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DailyFile appends to <dir>/log_<dd-mm-yyyy>.log and switches files when
// the day changes.
type DailyFile struct {
	dir string
	now func() time.Time

	mu   sync.Mutex
	f    *os.File
	name string
}

// Open creates dir if needed.
func Open(dir string) (*DailyFile, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	return &DailyFile{dir: dir, now: time.Now}, nil
}

// WithClock overrides the clock used to pick the file.
func (d *DailyFile) WithClock(now func() time.Time) *DailyFile {
	d.now = now
	return d
}

// FileName returns the log file name for t.
func FileName(t time.Time) string {
	return "log_" + t.Format("02-01-2006") + ".log"
}

// Dir returns the log directory.
func (d *DailyFile) Dir() string {
	return d.dir
}

// Path returns the file written today.
func (d *DailyFile) Path() string {
	return filepath.Join(d.dir, FileName(d.now()))
}

func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	name := FileName(d.now())
	if d.f == nil || name != d.name {
		if d.f != nil {
			d.f.Close()
		}
		f, err := os.OpenFile(filepath.Join(d.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			d.f = nil
			return 0, err
		}
		d.f, d.name = f, name
	}
	return d.f.Write(p)
}

// Close closes the current file.
func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}

// NewLogger returns a logger writing to out and to file. File lines are
// plain text prefixed with the time of day.
func NewLogger(out io.Writer, file *DailyFile, level zerolog.Level) zerolog.Logger {
	fileWriter := zerolog.ConsoleWriter{Out: file, NoColor: true, TimeFormat: "15:04:05"}
	return zerolog.New(zerolog.MultiLevelWriter(out, fileWriter)).
		Level(level).
		With().
		Timestamp().
		Str("component", "import").
		Logger()
}
