package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"
)

// Format selects the on-disk serialization.
type Format string

const (
	// FormatJSON writes one pretty-printed JSON array at Close.
	FormatJSON Format = "json"

	// FormatJSONL writes one JSON object per line, flushed periodically,
	// so an interrupted run still leaves valid usable lines behind.
	FormatJSONL Format = "jsonl"
)

// DefaultFlushEvery is the JSONL flush interval in samples.
const DefaultFlushEvery = 50

// ErrDestinationExists is returned when the output file already exists
// and neither append nor overwrite was requested.
var ErrDestinationExists = errors.New("destination already exists")

// Options configures a Writer.
type Options struct {
	Format Format

	// Append continues an existing JSONL file. Invalid for JSON arrays.
	Append bool

	// Overwrite truncates an existing destination.
	Overwrite bool

	// FlushEvery overrides the JSONL flush interval. Zero means default.
	FlushEvery int
}

// Writer persists samples to one destination file. Append is safe for
// concurrent use; the orchestrator's sink contract requires it.
type Writer struct {
	mu         sync.Mutex
	path       string
	format     Format
	file       *os.File
	buf        *bufio.Writer
	pending    []Sample // JSON array mode buffers until Close
	written    int
	sinceFlush int
	flushEvery int
	closed     bool
}

// NewWriter opens path for writing samples.
func NewWriter(path string, opts Options) (*Writer, error) {
	switch opts.Format {
	case FormatJSON, FormatJSONL:
	default:
		return nil, fmt.Errorf("unknown dataset format %q", opts.Format)
	}
	if opts.Append && opts.Format == FormatJSON {
		return nil, errors.New("append requires the jsonl format")
	}

	if _, err := os.Stat(path); err == nil {
		if !opts.Append && !opts.Overwrite {
			return nil, fmt.Errorf("%w: %s", ErrDestinationExists, path)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat destination: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	w := &Writer{
		path:       path,
		format:     opts.Format,
		flushEvery: opts.FlushEvery,
	}
	if w.flushEvery <= 0 {
		w.flushEvery = DefaultFlushEvery
	}

	if opts.Format == FormatJSONL {
		flags := os.O_CREATE | os.O_WRONLY
		if opts.Append {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		f, err := os.OpenFile(path, flags, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open destination: %w", err)
		}
		w.file = f
		w.buf = bufio.NewWriter(f)
	}

	return w, nil
}

// Append persists one sample.
func (w *Writer) Append(s Sample) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.New("writer is closed")
	}

	if w.format == FormatJSON {
		w.pending = append(w.pending, s)
		w.written++
		return nil
	}

	line, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode sample %d: %w", s.ID, err)
	}
	if _, err := w.buf.Write(line); err != nil {
		return fmt.Errorf("write sample %d: %w", s.ID, err)
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("write sample %d: %w", s.ID, err)
	}

	w.written++
	w.sinceFlush++
	if w.sinceFlush >= w.flushEvery {
		if err := w.buf.Flush(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
		w.sinceFlush = 0
	}
	return nil
}

// Written returns how many samples Append has accepted so far.
func (w *Writer) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Path returns the destination path.
func (w *Writer) Path() string { return w.path }

// Close finalizes the destination. The JSON array format is written
// entirely here; JSONL just flushes the tail.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.format == FormatJSON {
		samples := w.pending
		if samples == nil {
			samples = []Sample{}
		}
		b, err := json.MarshalIndent(samples, "", "  ")
		if err != nil {
			return fmt.Errorf("encode dataset: %w", err)
		}
		b = append(b, '\n')
		if err := os.WriteFile(w.path, b, 0o644); err != nil {
			return fmt.Errorf("write dataset: %w", err)
		}
		return nil
	}

	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("flush: %w", err)
	}
	return w.file.Close()
}

// DefaultPath builds the conventional destination for a run:
// <dir>/<topic-slug>_teacher_<n>.<ext>.
func DefaultPath(dir, topic string, n int, format Format) string {
	ext := "json"
	if format == FormatJSONL {
		ext = "jsonl"
	}
	return filepath.Join(dir, fmt.Sprintf("%s_teacher_%d.%s", Slugify(topic), n, ext))
}

// Slugify makes a topic safe for filenames. Letters and digits of any
// script are kept so Chinese topics stay readable; everything else
// collapses to single underscores.
func Slugify(topic string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(topic) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimRight(b.String(), "_")
}
