package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LogRotator is a file writer that caps a log file at roughly maxLines lines.
// Once twice the cap has been written, the file is rewritten with only the
// most recent maxLines lines.
type LogRotator struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	buffer   *RingBuffer
	pending  int // Lines written since the last rewrite
	maxLines int
}

// NewLogRotator opens (or creates) the log file at path.
func NewLogRotator(path string, maxLines int) (*LogRotator, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %w", path, err)
	}

	return &LogRotator{
		file:     file,
		path:     path,
		buffer:   NewRingBuffer(maxLines),
		maxLines: max(maxLines, 1),
	}, nil
}

// Write implements io.Writer.
func (w *LogRotator) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}

	for line := range strings.SplitSeq(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}
		w.buffer.Add(line)
		w.pending++
	}

	if w.pending >= w.maxLines*2 {
		if err := w.rewrite(); err != nil {
			return n, fmt.Errorf("failed to rotate log file: %w", err)
		}
	}

	return n, nil
}

// Sync flushes the file to disk.
func (w *LogRotator) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Sync()
}

// Close closes the underlying file.
func (w *LogRotator) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// rewrite replaces the file contents with the buffered lines.
func (w *LogRotator) rewrite() error {
	temp, err := os.CreateTemp(filepath.Dir(w.path), "rotate-*.log")
	if err != nil {
		return err
	}
	tempPath := temp.Name()

	content := strings.Join(w.buffer.Lines(), "\n") + "\n"
	if _, err := temp.WriteString(content); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return err
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}

	w.file.Close()

	if err := os.Rename(tempPath, w.path); err != nil {
		os.Remove(tempPath)
		return err
	}

	file, err := os.OpenFile(w.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	w.file = file
	w.pending = w.buffer.Len()
	return nil
}
