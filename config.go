package nslog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvFilter is the environment variable seeding the allow/deny lists of the
// default configuration.
const EnvFilter = "DEBUG"

// Config is the configuration shared by a set of loggers: the ceiling for
// their levels, the default for timestamp prefixes, the allow/deny name
// filter, the clock, and the named sinks. Loggers created without
// WithConfig share the process-wide configuration returned by Default.
//
// A Config is safe for concurrent use, though it is normally set up once
// before loggers start writing.
type Config struct {
	mu               sync.RWMutex
	maxLevel         Level
	prependTimestamp bool
	allow            []fragment
	deny             []fragment
	clock            clock.Clock
	sinks            map[string]Sink
	loggers          map[string]*Logger
}

var std = newDefaultConfig()

// NewConfig returns a configuration with a maximum level of LevelDebug, no
// timestamps, empty allow/deny lists, the system clock and the Console sink
// registered as "console".
func NewConfig() *Config {
	c := &Config{}
	c.Reset()
	return c
}

func newDefaultConfig() *Config {
	c := NewConfig()
	if err := c.Seed(os.Getenv(EnvFilter)); err != nil {
		fmt.Fprintf(os.Stderr, "nslog: %s: %v\n", EnvFilter, err)
	}
	return c
}

// Default returns the process-wide configuration.
func Default() *Config {
	return std
}

// Reset restores c to the state returned by NewConfig. Loggers already
// registered are forgotten but keep working.
func (c *Config) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxLevel = LevelDebug
	c.prependTimestamp = false
	c.allow = nil
	c.deny = nil
	c.clock = clock.New()
	c.sinks = map[string]Sink{"console": Console}
	c.loggers = make(map[string]*Logger)
}

// SetMaxLevel sets the ceiling applied when a logger's level is given as a
// number. Loggers whose level is already set are not re-clamped.
func (c *Config) SetMaxLevel(l Level) {
	c.mu.Lock()
	c.maxLevel = clampLevel(l)
	c.mu.Unlock()
}

// MaxLevel returns the current level ceiling.
func (c *Config) MaxLevel() Level {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxLevel
}

// NormalizeLevel resolves a level given as a Level, any integer or float,
// or a keyword such as "info" or "INFO". Numbers are rounded and clamped into
// [LevelNone, MaxLevel()]. Keywords are not clamped.
func (c *Config) NormalizeLevel(v interface{}) (Level, error) {
	return resolveLevel(v, c.MaxLevel())
}

// SetPrependTimestamp sets whether loggers without their own setting prefix
// their output with a timestamp.
func (c *Config) SetPrependTimestamp(on bool) {
	c.mu.Lock()
	c.prependTimestamp = on
	c.mu.Unlock()
}

// PrependTimestamp returns the default timestamp setting.
func (c *Config) PrependTimestamp() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prependTimestamp
}

// SetClock replaces the time source used for timestamps and DT.
func (c *Config) SetClock(clk clock.Clock) {
	c.mu.Lock()
	c.clock = clk
	c.mu.Unlock()
}

func (c *Config) now() time.Time {
	c.mu.RLock()
	clk := c.clock
	c.mu.RUnlock()
	return clk.Now()
}

// Allow appends name fragments to the allow list. If any fragment is an
// invalid regular expression nothing is appended.
func (c *Config) Allow(fragments ...string) error {
	f, err := compileFragments(fragments)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.allow = append(c.allow, f...)
	c.mu.Unlock()
	return nil
}

// Deny appends name fragments to the deny list. If any fragment is an
// invalid regular expression nothing is appended.
func (c *Config) Deny(fragments ...string) error {
	f, err := compileFragments(fragments)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.deny = append(c.deny, f...)
	c.mu.Unlock()
	return nil
}

// AllowAll clears both the allow and the deny list.
func (c *Config) AllowAll() {
	c.mu.Lock()
	c.allow = nil
	c.deny = nil
	c.mu.Unlock()
}

// AllowList returns a copy of the allow list.
func (c *Config) AllowList() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fragmentTexts(c.allow)
}

// DenyList returns a copy of the deny list.
func (c *Config) DenyList() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fragmentTexts(c.deny)
}

func fragmentTexts(list []fragment) []string {
	out := make([]string, len(list))
	for i, f := range list {
		out[i] = f.text
	}
	return out
}

// Seed adds the fragments of a filter string, in the format of the DEBUG
// environment variable, to the allow and deny lists. Valid fragments are
// added even if others fail to compile; the first failure is returned.
func (c *Config) Seed(filter string) error {
	allow, deny := parseFilter(filter)
	var first error
	for _, s := range allow {
		if err := c.Allow(s); err != nil && first == nil {
			first = err
		}
	}
	for _, s := range deny {
		if err := c.Deny(s); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// CanDisplay reports whether a message of severity requested, sent by a
// logger at level threshold named name, passes the filter.
//
// A message at LevelNone, or more verbose than the logger's level, never
// passes. Otherwise a "*" in the allow list lets everything through. A
// non-empty allow list passes only names matching one of its fragments, and
// the deny list is then ignored. Without an allow list, a "*" in the deny
// list blocks everything and any other deny fragment blocks the names it
// matches. With both lists empty every name passes.
func (c *Config) CanDisplay(requested, threshold Level, name string) bool {
	if requested <= LevelNone || requested > threshold {
		return false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if containsWildcard(c.allow) {
		return true
	}
	if len(c.allow) > 0 {
		for _, f := range c.allow {
			if f.matches(name) {
				return true
			}
		}
		return false
	}
	if containsWildcard(c.deny) {
		return false
	}
	for _, f := range c.deny {
		if f.matches(name) {
			return false
		}
	}
	return true
}

// AddSink adds a named sink to the configuration.
// Returns an error if a sink of the same name has been added previously.
func (c *Config) AddSink(name string, s Sink) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sinks[name]; ok {
		return errors.Wrapf(ErrSinkExists, "%q", name)
	}
	c.sinks[name] = s
	return nil
}

func (c *Config) sink(name string) (Sink, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sinks[name]
	return s, ok
}

func (c *Config) register(l *Logger) {
	c.mu.Lock()
	c.loggers[l.name] = l
	c.mu.Unlock()
}

// LoggerByName returns the logger most recently created with name n.
// LoggerByName returns false and a nil pointer if no such logger exists.
func (c *Config) LoggerByName(n string) (*Logger, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.loggers[n]
	return l, ok
}

// Close closes every named sink. It is important that Close is called
// before exiting an application to ensure that any buffered data is written.
func (c *Config) Close() error {
	c.mu.RLock()
	sinks := make([]Sink, 0, len(c.sinks))
	for _, s := range c.sinks {
		sinks = append(sinks, s)
	}
	c.mu.RUnlock()

	var first error
	for _, s := range sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type fileConfig struct {
	MaxLevel  interface{} `yaml:"maxLevel"`
	Timestamp *bool       `yaml:"timestamp"`
	Filter    string      `yaml:"filter"`
	Allow     []string    `yaml:"allow"`
	Deny      []string    `yaml:"deny"`
}

// Load applies a YAML document to c:
//
//	maxLevel: info      # keyword or number
//	timestamp: true
//	filter: Worker,-Noisy
//	allow: [/^http/]
//	deny: [Chatty]
//
// Absent keys leave the corresponding setting unchanged.
func (c *Config) Load(r io.Reader) error {
	var fc fileConfig
	if err := yaml.NewDecoder(r).Decode(&fc); err != nil && err != io.EOF {
		return errors.Wrap(err, "decode config")
	}
	if fc.MaxLevel != nil {
		l, err := resolveLevel(fc.MaxLevel, LevelDebug)
		if err != nil {
			return errors.Wrap(err, "maxLevel")
		}
		c.SetMaxLevel(l)
	}
	if fc.Timestamp != nil {
		c.SetPrependTimestamp(*fc.Timestamp)
	}
	if err := c.Seed(fc.Filter); err != nil {
		return errors.Wrap(err, "filter")
	}
	if err := c.Allow(fc.Allow...); err != nil {
		return errors.Wrap(err, "allow")
	}
	if err := c.Deny(fc.Deny...); err != nil {
		return errors.Wrap(err, "deny")
	}
	return nil
}

// LoadFile applies the YAML configuration file at path to c.
func (c *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open config")
	}
	defer f.Close()
	return c.Load(f)
}

// SetMaxLevel sets the level ceiling of the default configuration.
func SetMaxLevel(l Level) {
	std.SetMaxLevel(l)
}

// Allow appends fragments to the allow list of the default configuration.
func Allow(fragments ...string) error {
	return std.Allow(fragments...)
}

// Deny appends fragments to the deny list of the default configuration.
func Deny(fragments ...string) error {
	return std.Deny(fragments...)
}

// AllowAll clears the allow and deny lists of the default configuration.
func AllowAll() {
	std.AllowAll()
}

// SetPrependTimestamp sets the timestamp default of the default configuration.
func SetPrependTimestamp(on bool) {
	std.SetPrependTimestamp(on)
}

// Close closes all sinks of the default configuration.
func Close() error {
	return std.Close()
}
