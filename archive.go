// Package unrar drives the unrar console program to list, extract and stream
// the content of RAR archives, turning its human-readable console output into
// progress events and classified errors.
//
// The package never reads the RAR container itself. It uses the following Linux
// terminal program and re-derives structure from its text output.
//
//  1. [unrar] - 6.24 freeware by Alexander Roshal, not the common [unrar-free] which is feature incomplete
//
// Error classification is best-effort, it depends on the exact English messages
// printed by unrar. When a message is not recognized the raw tool output is
// kept in a [ToolError].
//
// [unrar]: https://www.rarlab.com/rar_add.htm
// [unrar-free]: https://gitlab.com/bgermann/unrar-free
package unrar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Defacto2/magicnumber"
)

const rarx = ".rar" // Roshal ARchive by Alexander Roshal

var (
	ErrDest       = errors.New("destination is empty")
	ErrExt        = errors.New("extension is not .rar")
	ErrFile       = errors.New("path is a directory")
	ErrMissing    = errors.New("path does not exist")
	ErrName       = errors.New("entry has no name")
	ErrNotArchive = errors.New("is not RAR archive")
	ErrPassword   = errors.New("password protected file")
	ErrProg       = errors.New("program error")
	ErrSize       = errors.New("entry size is not a usable number")
	ErrSpawn      = errors.New("program could not be started")
	ErrType       = errors.New("entry is not a file")
	ErrValidation = errors.New("invalid request")
)

// ToolError is a failure reported by the unrar program that matched none of the
// known markers. Message is the decoded standard error text, or when that was
// empty, a description of the non-zero exit code.
type ToolError struct {
	Program  string // Program is the path of the program that failed.
	Message  string // Message is the raw decoded tool output.
	ExitCode int    // ExitCode of the program, or -1 when it is unknown.
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrProg, e.Program, strings.TrimSpace(e.Message))
}

// Unwrap allows errors.Is(err, ErrProg).
func (e *ToolError) Unwrap() error {
	return ErrProg
}

func invalid(cause error, format string, a ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrValidation, cause, fmt.Sprintf(format, a...))
}

// Sniff uses the magic number of the src file to confirm it is a RAR archive.
// Both the RAR 1.5 to 4 and the RAR 5 signatures are accepted, anything else
// returns [ErrNotArchive].
func Sniff(src string) error {
	r, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("unrar sniff open %w", err)
	}
	defer r.Close()
	sign, err := magicnumber.Archive(r)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("unrar sniff %w: %s is too short", ErrNotArchive, filepath.Base(src))
	}
	if err != nil {
		return fmt.Errorf("unrar sniff magic %w", err)
	}
	switch sign { //nolint:exhaustive
	case magicnumber.RoshalARchive,
		magicnumber.RoshalARchivev5:
		return nil
	}
	return fmt.Errorf("unrar sniff %w: %s, %s", ErrNotArchive, filepath.Base(src), sign)
}

// HardLink links src to a sibling name with the .rar extension, which the whole
// archive extraction demands. Downloads and BBS uploads often lost the extension.
//
// It returns the absolute name of the link and true when the link was created by
// this call, the caller removes it after the extraction. A sibling that already
// exists is returned with false and must be left alone. An empty name is returned
// when src already has the extension.
func HardLink(src string) (string, bool, error) {
	if strings.EqualFold(filepath.Ext(src), rarx) {
		return "", false, nil
	}
	name, err := filepath.Abs(src + rarx)
	if err != nil {
		return "", false, fmt.Errorf("unrar hardlink %w", err)
	}
	if _, err := os.Lstat(name); err == nil {
		return name, false, nil
	}
	if err := os.Link(src, name); err != nil {
		return "", false, fmt.Errorf("unrar hardlink %w", err)
	}
	return name, true, nil
}
