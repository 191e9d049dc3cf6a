package docstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kjk/flatstore/log"
	"github.com/kjk/flatstore/u"
)

const (
	DefaultExt        = ".json"
	DefaultIterations = 1000
	DefaultIDBytes    = 8
	DefaultRetries    = 5
	DefaultRetryDelay = 10 * time.Millisecond
)

// Config configures a DB. Zero values are replaced with defaults in Open.
type Config struct {
	// Dir is the directory with collection files. Created on first use.
	Dir string
	// Secret is the salt of the collection id derivation. Changing it
	// makes existing collections unreachable.
	Secret string
	// Ext is the extension of collection files, ".json" by default.
	// Metadata files use Ext + "info".
	Ext string
	// Iterations and IDBytes are PBKDF2 parameters of the id derivation
	Iterations int
	IDBytes    int
	// AutoCreate creates missing collections on first access. If false,
	// operations on missing collections fail with ErrNotFound.
	AutoCreate bool
	// Pretty writes indented JSON
	Pretty bool
	// Retries is how many times we try to open / lock a collection file
	// that the OS reports as busy, waiting RetryDelay between attempts.
	Retries    int
	RetryDelay time.Duration
	// Logf is used for verbose logging, log.Verbosef by default
	Logf func(format string, args ...any)
}

func (c *Config) setDefaults() error {
	if c.Dir == "" {
		return fmt.Errorf("data directory is not set. For current directory, use '.'")
	}
	if c.Secret == "" {
		return fmt.Errorf("secret is not set")
	}
	if c.Ext == "" {
		c.Ext = DefaultExt
	}
	if !strings.HasPrefix(c.Ext, ".") || len(c.Ext) < 2 || strings.ContainsAny(c.Ext, `/\`) {
		return fmt.Errorf("invalid extension '%s', must be like '.json'", c.Ext)
	}
	if c.Iterations <= 0 {
		c.Iterations = DefaultIterations
	}
	if c.IDBytes <= 0 {
		c.IDBytes = DefaultIDBytes
	}
	if c.Retries <= 0 {
		c.Retries = DefaultRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.Logf == nil {
		c.Logf = log.Verbosef
	}
	return nil
}

func parseBool(key, s string) (bool, error) {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid value '%s' for %s: %w", s, key, err)
	}
	return v, nil
}

func parseInt(key, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid value '%s' for %s: %w", s, key, err)
	}
	return v, nil
}

// ConfigFromEnv builds Config from FLATSTORE_* values, as parsed from
// a .env file. Missing keys keep their zero value.
//
//	FLATSTORE_DIR=~/data
//	FLATSTORE_SECRET=change-me
//	FLATSTORE_EXT=.json
//	FLATSTORE_AUTO_CREATE=true
//	FLATSTORE_PRETTY=false
//	FLATSTORE_ITERATIONS=1000
//	FLATSTORE_RETRIES=5
//	FLATSTORE_RETRY_DELAY=10ms
func ConfigFromEnv(m map[string]string) (*Config, error) {
	var err error
	c := &Config{
		Secret: m["FLATSTORE_SECRET"],
		Ext:    m["FLATSTORE_EXT"],
	}
	if c.Dir, err = u.ExpandTildeInPath(m["FLATSTORE_DIR"]); err != nil {
		return nil, err
	}
	if s := m["FLATSTORE_AUTO_CREATE"]; s != "" {
		if c.AutoCreate, err = parseBool("FLATSTORE_AUTO_CREATE", s); err != nil {
			return nil, err
		}
	}
	if s := m["FLATSTORE_PRETTY"]; s != "" {
		if c.Pretty, err = parseBool("FLATSTORE_PRETTY", s); err != nil {
			return nil, err
		}
	}
	if s := m["FLATSTORE_ITERATIONS"]; s != "" {
		if c.Iterations, err = parseInt("FLATSTORE_ITERATIONS", s); err != nil {
			return nil, err
		}
	}
	if s := m["FLATSTORE_RETRIES"]; s != "" {
		if c.Retries, err = parseInt("FLATSTORE_RETRIES", s); err != nil {
			return nil, err
		}
	}
	if s := m["FLATSTORE_RETRY_DELAY"]; s != "" {
		if c.RetryDelay, err = time.ParseDuration(s); err != nil {
			return nil, fmt.Errorf("invalid value '%s' for FLATSTORE_RETRY_DELAY: %w", s, err)
		}
	}
	return c, nil
}

// LoadConfig reads Config from a .env file
func LoadConfig(path string) (*Config, error) {
	m, err := u.ReadEnvFile(path)
	if err != nil {
		return nil, err
	}
	return ConfigFromEnv(m)
}
