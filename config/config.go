// Package config holds the parameters of a simulation run.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sarchlab/csim/mem/cache"
)

// Every line of the cache is allocated up front, so the geometry is bounded.
const (
	MaxSetIndexBits = 24
	MaxLines        = 1 << 24
)

// Environment variables that provide default values.
const (
	EnvSetIndexBits    = "CSIM_SET_BITS"
	EnvAssociativity   = "CSIM_ASSOCIATIVITY"
	EnvBlockOffsetBits = "CSIM_BLOCK_BITS"
	EnvTracePath       = "CSIM_TRACE"
	EnvVerbose         = "CSIM_VERBOSE"
	EnvRecord          = "CSIM_RECORD"
)

// DefaultResultsFile is where the summary is written for graders.
const DefaultResultsFile = ".csim_results"

// ErrMissingArgument is wrapped when a required parameter is not given.
var ErrMissingArgument = errors.New("missing required command line argument")

// Error is a configuration error on one parameter.
type Error struct {
	Field  string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config is the parameters of a run.
type Config struct {
	SetIndexBits    int
	Associativity   int
	BlockOffsetBits int
	TracePath       string
	Verbose         bool

	RecordPath  string
	ResultsFile string

	Monitor     bool
	MonitorPort int
	OpenBrowser bool
}

// Default returns a Config with only the optional parameters set.
func Default() Config {
	return Config{
		ResultsFile: DefaultResultsFile,
	}
}

// LoadEnv loads the given .env files into the environment. Missing files are
// ignored. Variables already set in the environment win.
func LoadEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}

	for _, f := range filenames {
		_, err := os.Stat(f)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}

		err = godotenv.Load(f)
		if err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}

	return nil
}

// ApplyEnv overrides the fields of c with the CSIM_* environment variables
// that are set.
func (c *Config) ApplyEnv() error {
	ints := []struct {
		name string
		dst  *int
	}{
		{EnvSetIndexBits, &c.SetIndexBits},
		{EnvAssociativity, &c.Associativity},
		{EnvBlockOffsetBits, &c.BlockOffsetBits},
	}

	for _, v := range ints {
		s, ok := os.LookupEnv(v.name)
		if !ok {
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return &Error{Field: v.name, Reason: "not an integer", Err: err}
		}

		*v.dst = n
	}

	if s, ok := os.LookupEnv(EnvTracePath); ok {
		c.TracePath = s
	}

	if s, ok := os.LookupEnv(EnvRecord); ok {
		c.RecordPath = s
	}

	if s, ok := os.LookupEnv(EnvVerbose); ok {
		verbose, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return &Error{Field: EnvVerbose, Reason: "not a boolean", Err: err}
		}

		c.Verbose = verbose
	}

	return nil
}

// Validate checks that every required parameter is present and that the
// cache geometry fits in an address.
func (c Config) Validate() error {
	if c.SetIndexBits == 0 || c.Associativity == 0 ||
		c.BlockOffsetBits == 0 || c.TracePath == "" {
		return ErrMissingArgument
	}

	if c.SetIndexBits < 0 {
		return &Error{Field: "s", Reason: "must be positive"}
	}

	if c.SetIndexBits > MaxSetIndexBits {
		return &Error{
			Field:  "s",
			Reason: fmt.Sprintf("cannot exceed %d", MaxSetIndexBits),
		}
	}

	if c.Associativity < 0 {
		return &Error{Field: "E", Reason: "must be positive"}
	}

	if c.Associativity > MaxLines>>c.SetIndexBits {
		return &Error{
			Field:  "E",
			Reason: fmt.Sprintf("the cache cannot exceed %d lines", MaxLines),
		}
	}

	if c.BlockOffsetBits < 0 {
		return &Error{Field: "b", Reason: "must be positive"}
	}

	if c.SetIndexBits+c.BlockOffsetBits > cache.AddressWidth {
		return &Error{
			Field: "s+b",
			Reason: fmt.Sprintf("cannot exceed the %d-bit address",
				cache.AddressWidth),
		}
	}

	return nil
}

// BuildCache builds the cache described by c.
func (c Config) BuildCache(name string) *cache.Comp {
	return cache.MakeBuilder().
		WithLog2NumSets(c.SetIndexBits).
		WithWayAssociativity(c.Associativity).
		WithLog2BlockSize(c.BlockOffsetBits).
		Build(name)
}
