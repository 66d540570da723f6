// Package records appends accepted submissions and download events to flat
// files, one line per event.
package records

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

// Format selects how a row is encoded.
type Format int

const (
	// FormatCSV writes comma-separated values with standard quoting.
	FormatCSV Format = iota
	// FormatPipe joins values with " | ".
	FormatPipe
)

// NewlineToken replaces line breaks inside values.
const NewlineToken = " | "

var newlineReplacer = strings.NewReplacer("\r\n", NewlineToken, "\r", NewlineToken, "\n", NewlineToken)

// Appender writes one row per call. Rows for the same path are serialized by
// an in-process mutex and an advisory lock on "<path>.lock".
type Appender struct {
	format Format

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAppender creates an Appender for the given format.
func NewAppender(format Format) *Appender {
	return &Appender{format: format, locks: make(map[string]*sync.Mutex)}
}

// FlattenNewlines replaces every line break in v with NewlineToken.
func FlattenNewlines(v string) string {
	return newlineReplacer.Replace(v)
}

// Append writes row to path as a single line, creating the directory if needed.
func (a *Appender) Append(row []string, path string) error {
	return a.AppendWithHeader(row, nil, path)
}

// AppendWithHeader is Append that first writes header when the file is empty.
func (a *Appender) AppendWithHeader(row, header []string, path string) (err error) {
	if strings.TrimSpace(path) == "" {
		return errors.New("records: empty destination path")
	}
	line, err := a.encode(row)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	var head []byte
	if len(header) > 0 {
		if head, err = a.encode(header); err != nil {
			return fmt.Errorf("encode header: %w", err)
		}
	}

	pathLock := a.lockFor(path)
	pathLock.Lock()
	defer pathLock.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	fileLock := flock.New(path + ".lock")
	if err := fileLock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer func() {
		if uerr := fileLock.Unlock(); uerr != nil && err == nil {
			err = fmt.Errorf("unlock %s: %w", path, uerr)
		}
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close file: %w", cerr)
		}
	}()

	if head != nil {
		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("stat: %w", err)
		}
		if info.Size() == 0 {
			line = append(head, line...)
		}
	}
	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	return nil
}

func (a *Appender) encode(row []string) ([]byte, error) {
	clean := make([]string, len(row))
	for i, v := range row {
		clean[i] = FlattenNewlines(v)
	}
	if a.format == FormatPipe {
		return []byte(strings.Join(clean, NewlineToken) + "\n"), nil
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(clean); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *Appender) lockFor(path string) *sync.Mutex {
	key := filepath.Clean(path)
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[key]
	if !ok {
		l = &sync.Mutex{}
		a.locks[key] = l
	}
	return l
}
