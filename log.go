package nslog

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Namer is implemented by values that can name the logger bound to them.
type Namer interface {
	TypeName() string
}

// Logger is a named logger. Every logger has a level; a call to one of its
// severity methods produces output only if the severity is at or below that
// level and the logger's name passes the allow/deny filter of its
// configuration.
type Logger struct {
	mu        sync.Mutex
	name      string
	level     Level
	timestamp *bool
	last      time.Time
	hasLast   bool
	config    *Config
	sinks     []Sink
}

type options struct {
	level     interface{}
	config    *Config
	sinks     []Sink
	timestamp *bool
}

// Option configures a logger created by New or NewFor.
type Option func(*options)

// WithLevel sets the initial level of the logger. The level may be a Level,
// a number or a keyword, as accepted by SetLevel. Without it the logger
// starts at DefaultLevel.
func WithLevel(level interface{}) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithConfig binds the logger to c instead of the default configuration.
func WithConfig(c *Config) Option {
	return func(o *options) {
		o.config = c
	}
}

// WithSinks sets the sinks the logger writes to. Without it the logger
// writes to Console.
func WithSinks(sinks ...Sink) Option {
	return func(o *options) {
		o.sinks = append([]Sink(nil), sinks...)
	}
}

// WithTimestamp overrides the configuration's timestamp default for the
// logger.
func WithTimestamp(on bool) Option {
	return func(o *options) {
		o.timestamp = &on
	}
}

// BindName returns the logger name derived from name: "Logger" when name is
// empty, otherwise name with its first space replaced by an underscore.
func BindName(name string) string {
	if name == "" {
		return "Logger"
	}
	return strings.Replace(name, " ", "_", 1)
}

// New returns a new logger named after name (see BindName). New returns an
// *InvalidLevelError if WithLevel is given an unrecognised level.
// Creating a logger registers it with its configuration, replacing any
// logger of the same name in LoggerByName.
func New(name string, opts ...Option) (*Logger, error) {
	o := options{level: DefaultLevel, config: std}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sinks == nil {
		o.sinks = []Sink{Console}
	}
	l := &Logger{
		name:      BindName(name),
		timestamp: o.timestamp,
		config:    o.config,
		sinks:     o.sinks,
	}
	if err := l.SetLevel(o.level); err != nil {
		return nil, err
	}
	l.config.register(l)
	return l, nil
}

// NewFor returns a new logger named after the type name of v. A nil v
// yields a logger named "Logger".
func NewFor(v Namer, opts ...Option) (*Logger, error) {
	if v == nil {
		return New("", opts...)
	}
	return New(v.TypeName(), opts...)
}

// Name returns the name the logger was bound to.
func (l *Logger) Name() string {
	return l.name
}

// Level returns the logger's current level.
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetLevel changes the logger's level. The level may be a Level, any
// integer or float (rounded, then clamped to the configuration's MaxLevel),
// or one of the keywords none, error, warn, warning, info, log and debug in
// all lower or all upper case. An unrecognised level returns an
// *InvalidLevelError and leaves the level unchanged.
func (l *Logger) SetLevel(level interface{}) error {
	lv, err := l.config.NormalizeLevel(level)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.level = lv
	l.mu.Unlock()
	return nil
}

// SetPrependTimestamp overrides the configuration's timestamp default for
// this logger.
func (l *Logger) SetPrependTimestamp(on bool) {
	l.mu.Lock()
	l.timestamp = &on
	l.mu.Unlock()
}

// ClearPrependTimestamp removes the override set by SetPrependTimestamp.
func (l *Logger) ClearPrependTimestamp() {
	l.mu.Lock()
	l.timestamp = nil
	l.mu.Unlock()
}

func (l *Logger) prependTimestamp() bool {
	l.mu.Lock()
	ts := l.timestamp
	l.mu.Unlock()
	if ts != nil {
		return *ts
	}
	return l.config.PrependTimestamp()
}

// CanDisplay reports whether a message of the given severity would be
// output by l.
func (l *Logger) CanDisplay(requested Level) bool {
	return l.config.CanDisplay(requested, l.Level(), l.name)
}

// SetSinks specifies one or more sinks that the logger should use.
// Sinks are specified by their name, and must have been added to the
// configuration previously using AddSink. "console" is always present.
// The logger's sinks are left unchanged if a name is not recognised.
func (l *Logger) SetSinks(names ...string) error {
	sinks := make([]Sink, 0, len(names))
	for _, n := range names {
		s, ok := l.config.sink(n)
		if !ok {
			return errors.Wrapf(ErrUnknownSink, "[%s]", n)
		}
		sinks = append(sinks, s)
	}
	l.mu.Lock()
	l.sinks = sinks
	l.mu.Unlock()
	return nil
}

func (l *Logger) output(level Level, args []interface{}) error {
	now := l.config.now()
	values := make([]interface{}, 0, len(args)+1)
	if l.prependTimestamp() {
		values = append(values, "["+now.UTC().Format(dateLayout)+"]")
	}
	values = append(values, args...)
	if len(values) == 0 {
		return nil
	}

	l.mu.Lock()
	sinks := l.sinks
	l.mu.Unlock()

	e := getEntry()
	defer putEntry(e)
	e.Logger = l.name
	e.Level = level
	e.Time = now
	e.Values = values
	for _, s := range sinks {
		e.Reset()
		if err := s.Emit(e); err != nil {
			return err
		}
	}
	return nil
}

func (l *Logger) logAt(level Level, args []interface{}) error {
	if !l.CanDisplay(level) {
		return nil
	}
	return l.output(level, args)
}

func (l *Logger) logfAt(level Level, format string, args []interface{}) error {
	if !l.CanDisplay(level) {
		return nil
	}
	return l.output(level, []interface{}{fmt.Sprintf(format, args...)})
}

// Error outputs args with a severity of LevelError.
// Arguments are handled in the same manner as fmt.Println.
func (l *Logger) Error(args ...interface{}) error {
	return l.logAt(LevelError, args)
}

// Errorf outputs a formatted message with a severity of LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) error {
	return l.logfAt(LevelError, format, args)
}

// Warn outputs args with a severity of LevelWarn.
// Arguments are handled in the same manner as fmt.Println.
func (l *Logger) Warn(args ...interface{}) error {
	return l.logAt(LevelWarn, args)
}

// Warnf outputs a formatted message with a severity of LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) error {
	return l.logfAt(LevelWarn, format, args)
}

// Warning is an alias of Warn.
func (l *Logger) Warning(args ...interface{}) error {
	return l.Warn(args...)
}

// Info outputs args with a severity of LevelInfo.
// Arguments are handled in the same manner as fmt.Println.
func (l *Logger) Info(args ...interface{}) error {
	return l.logAt(LevelInfo, args)
}

// Infof outputs a formatted message with a severity of LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) error {
	return l.logfAt(LevelInfo, format, args)
}

// Log outputs args with a severity of LevelLog.
// Arguments are handled in the same manner as fmt.Println.
func (l *Logger) Log(args ...interface{}) error {
	return l.logAt(LevelLog, args)
}

// Logf outputs a formatted message with a severity of LevelLog.
func (l *Logger) Logf(format string, args ...interface{}) error {
	return l.logfAt(LevelLog, format, args)
}

// Debug outputs args with a severity of LevelDebug.
// Arguments are handled in the same manner as fmt.Println.
func (l *Logger) Debug(args ...interface{}) error {
	return l.logAt(LevelDebug, args)
}

// Debugf outputs a formatted message with a severity of LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) error {
	return l.logfAt(LevelDebug, format, args)
}

// DT outputs the milliseconds elapsed since the previous call to DT on l,
// as "<n> ms", followed by args. The first call reports 0 ms. The elapsed
// time is measured from every call, including those filtered out.
// Output happens when l would display a LevelLog message and is sent with a
// severity of LevelDebug.
func (l *Logger) DT(args ...interface{}) error {
	now := l.config.now()
	l.mu.Lock()
	var elapsed time.Duration
	if l.hasLast {
		elapsed = now.Sub(l.last)
	}
	l.last = now
	l.hasLast = true
	l.mu.Unlock()

	if !l.CanDisplay(LevelLog) {
		return nil
	}
	values := make([]interface{}, 0, len(args)+1)
	values = append(values, fmt.Sprintf("%d ms", elapsed.Milliseconds()))
	values = append(values, args...)
	return l.output(LevelDebug, values)
}

var defaultLogger = newDefaultLogger()

func newDefaultLogger() *Logger {
	l, err := New("", WithLevel(LevelDebug))
	if err != nil {
		panic(err)
	}
	return l
}

// Error outputs args to the default logger with a severity of LevelError.
func Error(args ...interface{}) error {
	return defaultLogger.Error(args...)
}

// Errorf outputs a formatted message to the default logger with a severity
// of LevelError.
func Errorf(format string, args ...interface{}) error {
	return defaultLogger.Errorf(format, args...)
}

// Warn outputs args to the default logger with a severity of LevelWarn.
func Warn(args ...interface{}) error {
	return defaultLogger.Warn(args...)
}

// Warnf outputs a formatted message to the default logger with a severity
// of LevelWarn.
func Warnf(format string, args ...interface{}) error {
	return defaultLogger.Warnf(format, args...)
}

// Warning is an alias of Warn.
func Warning(args ...interface{}) error {
	return defaultLogger.Warn(args...)
}

// Info outputs args to the default logger with a severity of LevelInfo.
func Info(args ...interface{}) error {
	return defaultLogger.Info(args...)
}

// Infof outputs a formatted message to the default logger with a severity
// of LevelInfo.
func Infof(format string, args ...interface{}) error {
	return defaultLogger.Infof(format, args...)
}

// Log outputs args to the default logger with a severity of LevelLog.
func Log(args ...interface{}) error {
	return defaultLogger.Log(args...)
}

// Logf outputs a formatted message to the default logger with a severity
// of LevelLog.
func Logf(format string, args ...interface{}) error {
	return defaultLogger.Logf(format, args...)
}

// Debug outputs args to the default logger with a severity of LevelDebug.
func Debug(args ...interface{}) error {
	return defaultLogger.Debug(args...)
}

// Debugf outputs a formatted message to the default logger with a severity
// of LevelDebug.
func Debugf(format string, args ...interface{}) error {
	return defaultLogger.Debugf(format, args...)
}

// SetSinks specifies one or more named sinks for the default logger.
func SetSinks(names ...string) error {
	return defaultLogger.SetSinks(names...)
}

// CaptureStandardLog hooks into the standard go log package and redirects
// its output to l, as messages of the given severity. A severity of
// LevelNone discards the standard log output.
func CaptureStandardLog(l *Logger, level Level) {
	log.SetFlags(0)
	log.SetPrefix("")
	log.SetOutput(bridge{logger: l, level: level})
}

type bridge struct {
	logger *Logger
	level  Level
}

func (b bridge) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	if err := b.logger.logAt(b.level, []interface{}{msg}); err != nil {
		return 0, err
	}
	return len(p), nil
}
