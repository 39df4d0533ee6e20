package logging

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrick/logrotate/rotator"
)

// DefaultFilename is the log file name inside the log directory.
const DefaultFilename = "iotdash.log"

// RotatorConfig controls the on-disk log file.
type RotatorConfig struct {
	Dir string

	// MaxFiles is the number of rotated files kept. Zero disables rotation.
	MaxFiles int

	// MaxFileSizeMB is the size at which the active file is rolled.
	MaxFileSizeMB int

	// Filename defaults to DefaultFilename.
	Filename string
}

// RotatingWriter is an io.Writer backed by a jrick/logrotate rotator. Rolled
// files are gzip-compressed.
type RotatingWriter struct {
	pipe    *io.PipeWriter
	rotator *rotator.Rotator
	done    chan struct{}
	once    sync.Once
	err     error
}

// NewRotatingWriter creates the log directory and starts the rotator
// goroutine. Close must be called to flush the file.
func NewRotatingWriter(cfg RotatorConfig) (*RotatingWriter, error) {
	name := cfg.Filename
	if name == "" {
		name = DefaultFilename
	}
	path := filepath.Join(cfg.Dir, name)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("logging: create log directory: %w", err)
	}

	// Threshold is in kilobytes.
	r, err := rotator.New(path, int64(cfg.MaxFileSizeMB*1024), false, cfg.MaxFiles)
	if err != nil {
		return nil, fmt.Errorf("logging: create rotator: %w", err)
	}
	r.SetCompressor(gzip.NewWriter(nil), ".gz")

	pr, pw := io.Pipe()
	w := &RotatingWriter{pipe: pw, rotator: r, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		if err := r.Run(pr); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
			// The rotator is the log destination, so stderr is all that's left.
			_, _ = fmt.Fprintf(os.Stderr, "iotdash: log rotator: %v\n", err)
		}
	}()
	return w, nil
}

// Write sends b to the rotator.
func (w *RotatingWriter) Write(b []byte) (int, error) {
	return w.pipe.Write(b)
}

// Close flushes pending writes and closes the file. It is safe to call more
// than once.
func (w *RotatingWriter) Close() error {
	w.once.Do(func() {
		w.err = w.pipe.Close()
		<-w.done
		if err := w.rotator.Close(); err != nil && !errors.Is(err, os.ErrClosed) && w.err == nil {
			w.err = err
		}
	})
	return w.err
}
