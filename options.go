package unrar

import (
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"github.com/Defacto2/unrar/command"
	"golang.org/x/text/encoding"
)

// Option is a function pointer to implement the option pattern.
type Option func(*config)

// config holds the settings shared by the [Archive] and the [Extractor].
// It is never modified after construction.
type config struct {
	// program is the path or name of the unrar program
	program string

	// password given with the -p switch, empty when not configured
	password string

	// logger stream for the process lifecycle and throttled progress
	logger *slog.Logger

	// encoding of the text printed by unrar, defaults to UTF-8 passthrough
	encoding encoding.Encoding

	// chunkSize is the size of each read from the program output
	chunkSize int
}

const (
	defaultChunk = 32 * 1024
	minChunk     = 512
)

func newConfig(opts ...Option) config {
	c := config{
		program:   command.Unrar,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		encoding:  encoding.Nop,
		chunkSize: defaultChunk,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithProgram sets the path to the unrar program.
// By default the unrar program is looked up in the PATH.
func WithProgram(path string) Option {
	return func(c *config) {
		if path != "" {
			c.program = path
		}
	}
}

// WithPassword sets the archive password.
func WithPassword(password string) Option {
	return func(c *config) {
		c.password = password
	}
}

// WithLogger sets the logger, by default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEncoding sets the character encoding of the unrar console output,
// for example a Windows OEM code page. The file content streamed by
// single entry extraction is never decoded.
func WithEncoding(enc encoding.Encoding) Option {
	return func(c *config) {
		if enc != nil {
			c.encoding = enc
		}
	}
}

// WithChunkSize sets the size of each read from the program output.
// Values below 512 bytes are raised to 512.
func WithChunkSize(n int) Option {
	return func(c *config) {
		c.chunkSize = max(n, minChunk)
	}
}

// lookPath resolves the configured program, failures are a [ErrSpawn].
func (c config) lookPath() (string, error) {
	prog, err := exec.LookPath(c.program)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSpawn, err)
	}
	return prog, nil
}

// decode converts the unrar console text to a string.
func (c config) decode(p []byte) string {
	b, err := c.encoding.NewDecoder().Bytes(p)
	if err != nil {
		return string(p)
	}
	return string(b)
}
