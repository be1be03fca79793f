package unrar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Defacto2/unrar/command"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/transform"
)

// Package file rar.go contains the whole archive extraction.

// Extractor uses the [unrar program] to extract every file of a RAR archive.
// Create one with [NewExtractor], unrelated extractions should not share an Extractor
// configured with a password.
//
//	func Extract() {
//	    x := unrar.NewExtractor()
//	    err := x.Extract(context.Background(), "archive.rar", os.TempDir(), unrar.Options{
//	        Progress: func(percent string) { fmt.Println(percent) },
//	    })
//	    if err != nil {
//	        fmt.Fprintf(os.Stderr, "error: %v\n", err)
//	        return
//	    }
//	}
//
// [unrar program]: https://www.rarlab.com/rar_add.htm
type Extractor struct {
	cfg config
}

// NewExtractor returns an extractor with the options applied.
// A password given with [WithPassword] is used unless the switches of
// the extraction include their own password switch.
func NewExtractor(opts ...Option) *Extractor {
	return &Extractor{cfg: newConfig(opts...)}
}

// Options are the optional settings of a whole archive extraction.
type Options struct {
	Command  string       // Command of unrar, default: x to extract with full paths.
	Switches []string     // Switches of unrar, such as -o+ to overwrite, default: none.
	Progress ProgressFunc // Progress receives percentages formatted as "45%".
}

// Extract extracts the src RAR archive to the dst directory, which is created when missing.
//
// Progress notifications are the percentages printed by unrar, they never decrease,
// and "100%" is sent once after the program exited successfully.
//
// An [ErrNotArchive] error is returned as soon as unrar reports that src is not
// a RAR archive and the program is stopped. An [ErrPassword] error is returned for
// a missing or incorrect password, and a [*ToolError] for any other message or a
// non-zero exit code.
func (x *Extractor) Extract(ctx context.Context, src, dst string, opts Options) error {
	if !strings.EqualFold(filepath.Ext(src), rarx) {
		return invalid(ErrExt, "%s", src)
	}
	if st, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
		return invalid(ErrMissing, "%s", src)
	} else if err != nil {
		return fmt.Errorf("unrar extractor %w", err)
	} else if st.IsDir() {
		return invalid(ErrFile, "%s", src)
	}
	if dst == "" {
		return invalid(ErrDest, "%s", src)
	}
	prog, err := x.cfg.lookPath()
	if err != nil {
		return fmt.Errorf("unrar extractor %w", err)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("unrar extractor %w", err)
	}
	dst, err = filepath.Abs(dst)
	if err != nil {
		return fmt.Errorf("unrar extractor %w", err)
	}
	args := x.args(src, dst, opts)
	if err := x.run(ctx, prog, args, opts.Progress); err != nil {
		return fmt.Errorf("unrar extractor %w", err)
	}
	return nil
}

// args returns the command, the switches and the positional arguments.
// The caller's switches are never modified.
func (x *Extractor) args(src, dst string, opts Options) []string {
	cmd := opts.Command
	if cmd == "" {
		cmd = command.Extract
	}
	switches := slices.Clone(opts.Switches)
	if !slices.ContainsFunc(switches, isPassword) {
		pw := command.Placeholder
		if x.cfg.password != "" {
			pw = command.Password + x.cfg.password
		}
		switches = append([]string{pw}, switches...)
	}
	args := append([]string{cmd}, switches...)
	// unrar reads a destination path without a trailing separator as a filename
	return append(args, src, dst+string(filepath.Separator))
}

// run drains the standard output and the standard error of the program concurrently.
// Draining only one of them can stall the program once the other pipe buffer is full.
func (x *Extractor) run(ctx context.Context, prog string, args []string, fn ProgressFunc) error {
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s, err := spawn(cctx, x.cfg, prog, args...)
	if err != nil {
		return err
	}
	progress := newEmitter(fn, x.cfg.logger)
	var stderr bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		stdout := transform.NewReader(s.stdout, x.cfg.encoding.NewDecoder())
		if err := x.watch(stdout, progress); err != nil {
			// stop the program, its remaining output is of no use
			cancel()
			return err
		}
		return nil
	})
	g.Go(drain(s.stderr, &stderr))
	readErr := g.Wait()
	waitErr := s.wait()
	if readErr != nil {
		return readErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := x.cfg.decode(stderr.Bytes())
	if NotArchive([]byte(msg)) {
		return ErrNotArchive
	}
	if err := s.failure(msg, waitErr); err != nil {
		return err
	}
	progress.emit("100%")
	return nil
}

// watch reads the standard output for progress tokens and the not archive marker.
// Tokens lower than the last notification are dropped, as is any token of 100% or
// more which is reserved for the successful exit.
func (x *Extractor) watch(r io.Reader, progress *emitter) error {
	var scan chunkScanner
	last := -1
	buf := make([]byte, x.cfg.chunkSize)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			token, notRAR := scan.scan(buf[:n])
			if notRAR {
				return ErrNotArchive
			}
			if token != "" {
				if p := percent(token); p > last && p < 100 {
					last = p
					progress.emit(token)
				}
			}
		}
		if errors.Is(rerr, io.EOF) {
			return nil
		}
		if rerr != nil {
			return fmt.Errorf("read stdout %w", rerr)
		}
	}
}
