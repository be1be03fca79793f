package unrar

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Defacto2/helper"
)

const appendOnly = os.O_WRONLY | os.O_CREATE | os.O_APPEND

// Writer appends bytes to a destination file, so an interrupted extraction can
// be continued without overwriting the bytes already written.
//
// The resume is additive only, the bytes already on disk are never verified.
// Concurrent writers to the same path are unsafe.
type Writer struct {
	path    string
	file    *os.File
	size    int64 // bytes on disk, including the bytes present at Setup
	written int64 // bytes appended since Setup
	created bool
}

// NewWriter returns a writer for the named destination file.
// Setup must be called before the first Write.
func NewWriter(name string) *Writer {
	return &Writer{path: name}
}

// Setup opens the destination file for appending, creating it when absent.
// The current size is set to the length of the file.
// Calling Setup again closes and reopens the file.
func (w *Writer) Setup() error {
	if w.file != nil {
		if err := w.Close(); err != nil {
			return fmt.Errorf("writer setup %w", err)
		}
	}
	_, err := os.Stat(w.path)
	created := errors.Is(err, fs.ErrNotExist)
	f, err := os.OpenFile(w.path, appendOnly, helper.WriteWriteRead)
	if err != nil {
		return fmt.Errorf("writer setup %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("writer setup stat %w", err)
	}
	if st.IsDir() {
		f.Close()
		return fmt.Errorf("writer setup %w: %s", ErrFile, w.path)
	}
	w.file = f
	w.size = st.Size()
	w.written = 0
	w.created = created
	return nil
}

// Write appends all of p to the file. An error is returned if fewer than
// len(p) bytes were written.
func (w *Writer) Write(p []byte) (int, error) {
	if w.file == nil {
		return 0, fmt.Errorf("writer write %w", fs.ErrClosed)
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	w.written += int64(n)
	if err != nil {
		return n, fmt.Errorf("writer write %w", err)
	}
	return n, nil
}

// Size returns the number of bytes in the file, the length at Setup
// plus the bytes written since.
func (w *Writer) Size() int64 {
	return w.size
}

// Written returns the number of bytes appended since Setup.
func (w *Writer) Written() int64 {
	return w.written
}

// Created returns true if the file did not exist before Setup.
func (w *Writer) Created() bool {
	return w.created
}

// Name returns the destination path.
func (w *Writer) Name() string {
	return w.path
}

// Close releases the file handle. It is safe to call on every exit path,
// a closed or never opened writer returns nil.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	f := w.file
	w.file = nil
	if err := f.Close(); err != nil {
		return fmt.Errorf("writer close %w", err)
	}
	return nil
}
