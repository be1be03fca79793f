package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"gopkg.in/yaml.v3"
)

// Config is the optional YAML configuration file, command line flags override its values.
//
//	program: /usr/bin/unrar
//	charset: ibm866
//	timeout: 2m
//	switches:
//	  - -o+
type Config struct {
	Program  string        `yaml:"program"`
	Password string        `yaml:"password"`
	Charset  string        `yaml:"charset"`
	Switches []string      `yaml:"switches"`
	Timeout  time.Duration `yaml:"timeout"`
}

var ErrConfig = errors.New("invalid config")

// Load reads the named YAML configuration file.
func Load(name string) (*Config, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", name, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", name, err)
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfig, name, err)
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Program = strings.TrimSpace(c.Program)
	if c.Program != "" && strings.ContainsRune(c.Program, filepath.Separator) {
		c.Program = filepath.Clean(c.Program)
	}
	c.Charset = strings.ToLower(strings.TrimSpace(c.Charset))
	switches := c.Switches[:0]
	for _, s := range c.Switches {
		if s = strings.TrimSpace(s); s != "" {
			switches = append(switches, s)
		}
	}
	c.Switches = switches
}

func (c *Config) validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout %s is negative", c.Timeout)
	}
	for i, s := range c.Switches {
		if !strings.HasPrefix(s, "-") {
			return fmt.Errorf("switch at index %d: %q must begin with a hyphen", i, s)
		}
	}
	if _, err := Charset(c.Charset); err != nil {
		return err
	}
	return nil
}

// Charset returns the named character encoding, using the WHATWG names and aliases
// such as "ibm866", "windows-1252" or "gbk". An empty name returns nil.
func Charset(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", name, err)
	}
	return enc, nil
}
