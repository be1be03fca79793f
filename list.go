package unrar

// Package file list.go contains the archive listing and the single entry extraction.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Defacto2/unrar/command"
	"golang.org/x/sync/errgroup"
)

// Archive is a RAR archive file with the password used to read it.
// The archive path and the configuration are fixed at construction,
// so concurrent calls on different destinations are safe.
//
//	func ListRAR() {
//	    a := unrar.New("archive.rar", unrar.WithPassword("123456"))
//	    list, err := a.List(context.Background())
//	    if err != nil {
//	        fmt.Fprintf(os.Stderr, "error: %v\n", err)
//	        return
//	    }
//	    for _, e := range list {
//	        fmt.Println(e.Name(), e[unrar.KeySize])
//	    }
//	}
type Archive struct {
	path string
	cfg  config
}

// New returns the named RAR archive.
func New(src string, opts ...Option) *Archive {
	return &Archive{path: src, cfg: newConfig(opts...)}
}

// Path returns the archive path.
func (a *Archive) Path() string {
	return a.path
}

// passwordSwitch returns the configured password switch or the placeholder.
func (a *Archive) passwordSwitch() string {
	if a.cfg.password == "" {
		return command.Placeholder
	}
	return command.Password + a.cfg.password
}

// List returns the entries of the archive in the order printed by the
// [unrar program] technical listing. Header and footer records are discarded.
//
// [unrar program]: https://www.rarlab.com/rar_add.htm
func (a *Archive) List(ctx context.Context) ([]Entry, error) {
	prog, err := a.cfg.lookPath()
	if err != nil {
		return nil, fmt.Errorf("unrar list %w", err)
	}
	args := []string{command.ListTech, command.Comments, command.Volumes, a.passwordSwitch(), a.path}
	s, err := spawn(ctx, a.cfg, prog, args...)
	if err != nil {
		return nil, fmt.Errorf("unrar list %w", err)
	}
	var stdout, stderr bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		if _, err := stdout.ReadFrom(s.stdout); err != nil {
			return fmt.Errorf("read stdout %w", err)
		}
		return nil
	})
	g.Go(drain(s.stderr, &stderr))
	readErr := g.Wait()
	waitErr := s.wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("unrar list %w", err)
	}
	if readErr != nil {
		return nil, fmt.Errorf("unrar list %w", readErr)
	}
	if stderr.Len() > 0 && NotArchive(stderr.Bytes()) {
		return nil, fmt.Errorf("unrar list %w: %s", ErrNotArchive, a.path)
	}
	if err := s.failure(a.cfg.decode(stderr.Bytes()), waitErr); err != nil {
		return nil, fmt.Errorf("unrar list %w", err)
	}
	out := a.cfg.decode(stdout.Bytes())
	if PasswordFailure([]byte(out)) {
		return nil, fmt.Errorf("unrar list %w", ErrPassword)
	}
	if NotArchive([]byte(out)) {
		return nil, fmt.Errorf("unrar list %w: %s", ErrNotArchive, a.path)
	}
	return entries(out), nil
}

// EntryOptions are the optional settings of a single entry extraction.
type EntryOptions struct {
	NewName  string       // NewName replaces the entry name as the destination filename.
	Progress ProgressFunc // Progress receives percentages formatted as "12.34%".
}

// Extract streams the content of the entry to a file in the destination directory
// using the print command of the [unrar program]. The entry must be a file listed by [Archive.List].
//
// The destination file is opened to append, so an interrupted extraction can be
// continued, remove the file first to start again. Progress is the bytes written
// divided by the entry size. A file created by a failed extraction that received no
// bytes is removed.
//
// [unrar program]: https://www.rarlab.com/rar_add.htm
func (a *Archive) Extract(ctx context.Context, e Entry, dst string, opts EntryOptions) error {
	name := e.Name()
	if name == "" {
		return invalid(ErrName, "%s", a.path)
	}
	if !e.IsFile() {
		return invalid(ErrType, "%s is a %q", name, e.Type())
	}
	size, err := e.Size()
	if err != nil {
		return invalid(err, "%s size %q", name, e[KeySize])
	}
	if dst == "" {
		return invalid(ErrDest, "%s", name)
	}
	filename := name
	if opts.NewName != "" {
		filename = opts.NewName
	}
	if !filepath.IsLocal(filename) {
		return invalid(ErrName, "%q is not a local path", filename)
	}
	prog, err := a.cfg.lookPath()
	if err != nil {
		return fmt.Errorf("unrar extract %w", err)
	}
	path := filepath.Join(dst, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("unrar extract %w", err)
	}
	w := NewWriter(path)
	if err := w.Setup(); err != nil {
		return fmt.Errorf("unrar extract %w", err)
	}
	err = a.stream(ctx, prog, name, size, w, opts.Progress)
	if cerr := w.Close(); cerr != nil {
		a.cfg.logger.Warn("unrar extract", "err", cerr)
	}
	if err != nil {
		if w.Created() && w.Written() == 0 {
			_ = os.Remove(path)
		}
		return fmt.Errorf("unrar extract %w", err)
	}
	return nil
}

// stream copies the standard output of the print command to the writer
// while the standard error is collected concurrently.
func (a *Archive) stream(ctx context.Context, prog, name string, size int64, w *Writer, fn ProgressFunc) error {
	switches := []string{command.FileName + name, command.Quiet}
	if a.cfg.password != "" {
		switches = append(switches, command.Password+a.cfg.password)
	}
	args := append([]string{command.Print}, switches...)
	args = append(args, a.path)

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s, err := spawn(cctx, a.cfg, prog, args...)
	if err != nil {
		return err
	}
	progress := newEmitter(fn, a.cfg.logger)
	var stderr bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		written, err := copyChunks(w, s.stdout, a.cfg.chunkSize, func(written int64) {
			if size > 0 {
				progress.emit(fraction(written, size))
			}
		})
		if err != nil {
			cancel()
			return err
		}
		if written > size {
			a.cfg.logger.Warn("unrar extract wrote more than the entry size",
				"entry", name, "size", size, "written", written)
		}
		return nil
	})
	g.Go(drain(s.stderr, &stderr))
	readErr := g.Wait()
	waitErr := s.wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	if readErr != nil {
		return readErr
	}
	if err := s.failure(a.cfg.decode(stderr.Bytes()), waitErr); err != nil {
		return err
	}
	if size == 0 {
		progress.emit(fraction(0, 0))
	}
	return nil
}

// copyChunks writes every chunk read from r to w and reports the running total.
func copyChunks(w io.Writer, r io.Reader, chunkSize int, report func(written int64)) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return written, err
			}
			written += int64(n)
			report(written)
		}
		if errors.Is(rerr, io.EOF) {
			return written, nil
		}
		if rerr != nil {
			return written, fmt.Errorf("read stdout %w", rerr)
		}
	}
}

// fraction formats the written bytes as a percentage of size with two decimals,
// capped at 100.00%. A zero size is complete.
func fraction(written, size int64) string {
	if size <= 0 {
		return "100.00%"
	}
	p := float64(written) / float64(size) * 100
	return fmt.Sprintf("%.2f%%", min(p, 100))
}
