// Package cli is the command line interface of the unrar module.
package cli

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Defacto2/unrar"
	"github.com/Defacto2/unrar/command"
	"github.com/Defacto2/unrar/rezip"
	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
)

// CLI are the command line parameters.
type CLI struct {
	Config   string           `short:"c" type:"existingfile" help:"YAML configuration file."`
	Program  string           `help:"Path to the unrar program, by default unrar is found in the PATH."`
	Password string           `short:"p" help:"Archive password."`
	Charset  string           `help:"Character set of the unrar console output, such as ibm866."`
	Timeout  time.Duration    `help:"Maximum time a command may take, 0 for no limit."`
	Quiet    bool             `short:"q" help:"Do not show the progress bar."`
	Verbose  bool             `short:"v" help:"Verbose logging."`
	Version  kong.VersionFlag `short:"V" help:"Print release version information."`

	List    ListCmd    `cmd:"" help:"List the entries of an archive."`
	Extract ExtractCmd `cmd:"" help:"Extract every file of an archive."`
	Entry   EntryCmd   `cmd:"" help:"Extract a single file entry of an archive."`
}

// env is the resolved configuration handed to the commands.
type env struct {
	ctx      context.Context
	logger   *slog.Logger
	opts     []unrar.Option
	switches []string
	quiet    bool
	stdout   io.Writer
	stderr   io.Writer
}

// Run the entrypoint into unrar as a cli tool.
func Run(version, commit, date string) {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("unrar"),
		kong.Description("List and extract RAR archives with progress, using the unrar program."),
		kong.UsageOnError(),
		kong.Vars{
			"version": fmt.Sprintf("%s (%s), commit %s, built at %s", filepath.Base(os.Args[0]), version, commit, date),
		},
	)
	e, cancel, err := cli.env(context.Background(), os.Stdout, os.Stderr)
	if err != nil {
		kctx.FatalIfErrorf(err)
	}
	defer cancel()
	if err := kctx.Run(e); err != nil {
		e.logger.Error("unrar failed", "err", err)
		cancel()
		os.Exit(1)
	}
}

// env merges the configuration file and the flags, flags take precedence.
func (c *CLI) env(ctx context.Context, stdout, stderr io.Writer) (*env, context.CancelFunc, error) {
	file := &Config{}
	if c.Config != "" {
		var err error
		if file, err = Load(c.Config); err != nil {
			return nil, nil, err
		}
	}
	level := slog.LevelError
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: level,
	}))

	charset := first(c.Charset, file.Charset)
	enc, err := Charset(strings.ToLower(charset))
	if err != nil {
		return nil, nil, err
	}
	opts := []unrar.Option{
		unrar.WithProgram(first(c.Program, file.Program)),
		unrar.WithPassword(first(c.Password, file.Password)),
		unrar.WithLogger(logger),
		unrar.WithEncoding(enc),
	}

	cancel := context.CancelFunc(func() {})
	if timeout := max(c.Timeout, 0); timeout > 0 || file.Timeout > 0 {
		if timeout == 0 {
			timeout = file.Timeout
		}
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}
	return &env{
		ctx:      ctx,
		logger:   logger,
		opts:     opts,
		switches: file.Switches,
		quiet:    c.Quiet,
		stdout:   stdout,
		stderr:   stderr,
	}, cancel, nil
}

func first(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}

// ListCmd lists the entries of an archive.
type ListCmd struct {
	Archive string `arg:"" name:"archive" type:"existingfile" help:"Path to the RAR archive."`
	All     bool   `short:"a" help:"Include directories and other entry types."`
}

func (l *ListCmd) Run(e *env) error {
	list, err := unrar.New(l.Archive, e.opts...).List(e.ctx)
	if err != nil {
		return err
	}
	if !l.All {
		list = unrar.Files(list)
	}
	return printEntries(e.stdout, list)
}

func printEntries(w io.Writer, list []unrar.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tSIZE\tPACKED\tMODIFIED")
	for _, e := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.Name(), e.Type(), bytesize(e.Size()), bytesize(e.PackedSize()), e[unrar.KeyMTime])
	}
	return tw.Flush()
}

func bytesize(n int64, err error) string {
	if err != nil {
		return "-"
	}
	return humanize.IBytes(uint64(n))
}

// ExtractCmd extracts every file of an archive.
type ExtractCmd struct {
	Archive     string   `arg:"" name:"archive" type:"existingfile" help:"Path to the RAR archive."`
	Destination string   `arg:"" name:"destination" default:"." help:"Output directory, created when missing."`
	Flat        bool     `short:"f" help:"Extract without the archived paths."`
	Overwrite   bool     `short:"o" help:"Overwrite existing files."`
	Link        bool     `help:"Hard link archives that lack the .rar extension before extraction."`
	NoSniff     bool     `help:"Skip the RAR signature check."`
	Switch      []string `short:"s" help:"Additional unrar switches."`
	Zip         string   `short:"z" help:"Repack the extracted files into this new zip file."`
}

func (x *ExtractCmd) Run(e *env) error {
	src := x.Archive
	if !x.NoSniff {
		if err := unrar.Sniff(src); err != nil {
			return err
		}
	}
	if x.Link {
		name, created, err := unrar.HardLink(src)
		if err != nil {
			return err
		}
		if created {
			defer os.Remove(name)
		}
		if name != "" {
			src = name
		}
	}
	switches := append([]string{command.CopyrightDone}, e.switches...)
	switches = append(switches, x.Switch...)
	if x.Overwrite {
		switches = append(switches, command.Overwrite)
	}
	cmd := command.Extract
	if x.Flat {
		cmd = command.ExtractFlat
	}
	bar := newBar(e, "extracting")
	err := unrar.NewExtractor(e.opts...).Extract(e.ctx, src, x.Destination, unrar.Options{
		Command:  cmd,
		Switches: switches,
		Progress: bar.progress,
	})
	bar.finish(err)
	if err != nil || x.Zip == "" {
		return err
	}
	return repack(e, x.Destination, x.Zip)
}

// repack compresses the extracted files into the new named zip file.
func repack(e *env, dst, name string) error {
	n, err := rezip.CompressDir(e.ctx, dst, name)
	if err != nil {
		return err
	}
	e.logger.Info("repacked", "zip", name, "bytes", humanize.IBytes(uint64(n)))
	return nil
}

// EntryCmd extracts one file entry of an archive.
type EntryCmd struct {
	Archive     string `arg:"" name:"archive" type:"existingfile" help:"Path to the RAR archive."`
	Name        string `arg:"" name:"name" optional:"" help:"Name of the entry, case-insensitive."`
	Destination string `short:"d" default:"." help:"Output directory, created when missing."`
	NewName     string `short:"n" help:"Filename to save the entry as."`
	Readme      bool   `short:"r" help:"Extract the README or NFO text of the archive instead of a named entry."`
	Zip         string `short:"z" help:"Compress the extracted file into this new zip file."`
}

func (c *EntryCmd) Run(e *env) error {
	a := unrar.New(c.Archive, e.opts...)
	list, err := a.List(e.ctx)
	if err != nil {
		return err
	}
	entry, ok := c.find(list)
	if !ok {
		return fmt.Errorf("%w: %q in %s", unrar.ErrMissing, c.Name, filepath.Base(c.Archive))
	}
	bar := newBar(e, entry.Name())
	err = a.Extract(e.ctx, entry, c.Destination, unrar.EntryOptions{
		NewName:  c.NewName,
		Progress: bar.progress,
	})
	bar.finish(err)
	if err != nil || c.Zip == "" {
		return err
	}
	name := cmp.Or(c.NewName, entry.Name())
	if _, err := rezip.Compress(filepath.Join(c.Destination, name), c.Zip); err != nil {
		return err
	}
	return nil
}

func (c *EntryCmd) find(list []unrar.Entry) (unrar.Entry, bool) {
	if c.Readme {
		return unrar.Readme(c.Archive, list...)
	}
	return unrar.Find(list, c.Name)
}

// bar renders the progress notifications in the terminal.
type bar struct {
	pb *progressbar.ProgressBar
}

func newBar(e *env, description string) *bar {
	if e.quiet {
		return &bar{}
	}
	return &bar{pb: progressbar.NewOptions(100,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(e.stderr),
		progressbar.OptionSetWidth(10),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprint(e.stderr, "\n")
		}),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)}
}

func (b *bar) progress(percent string) {
	if b.pb == nil {
		return
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(percent, "%"), 64)
	if err != nil {
		return
	}
	_ = b.pb.Set(int(f))
}

func (b *bar) finish(err error) {
	if b.pb == nil {
		return
	}
	if err != nil {
		_ = b.pb.Exit()
		return
	}
	_ = b.pb.Finish()
}
