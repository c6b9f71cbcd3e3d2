package nslog

import (
	"bytes"
	"io"
	"os"
	"sync"
	"time"
)

var defaultFormat = "%date %level %logger - %message%newline"

var defaultFormatters = mustExtract(defaultFormat)

func mustExtract(format string) []Formatter {
	f, err := extract(format)
	if err != nil {
		panic(err)
	}
	return f
}

// Entry is what a logger hands to each of its sinks: the logger's name, the
// severity of the call, when it happened and the values to output, in
// order. The embedded buffer is scratch space for sinks that format the
// entry; it is empty when Emit is called.
//
// Entries are reused once Emit returns. A sink that keeps an entry must copy
// it.
type Entry struct {
	bytes.Buffer
	Logger string
	Level  Level
	Time   time.Time
	Values []interface{}
}

var pool = make(chan *Entry, 50)

func getEntry() *Entry {
	var e *Entry
	select {
	case e = <-pool:
		e.Reset()
	default:
		e = &Entry{}
	}
	return e
}

func putEntry(e *Entry) {
	// ditch large buffers
	if e.Cap() >= 1024 {
		return
	}
	e.Values = nil
	select {
	case pool <- e:
	default: // pool full - continue
	}
}

// Sink is where log entries end up. Emit is called synchronously for every
// message that passes a logger's filter; any error it returns is returned to
// the caller of the log method. Emit must return ErrInvalidOutput when given
// a nil entry. Close is called when the configuration is closed; Sink
// implementations must use this to flush and close any open files,
// connections, etc.
type Sink interface {
	Emit(e *Entry) error
	Close() error
}

// Discard is a sink that accepts entries and does nothing with them.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(e *Entry) error {
	if e == nil {
		return ErrInvalidOutput
	}
	return nil
}

func (discard) Close() error { return nil }

// Console writes formatted entries to stderr using the default format.
var Console = NewWriterSink(os.Stderr)

// WriterSink writes formatted entries to an io.Writer. Writes are
// serialised, so one WriterSink may be shared by many loggers.
type WriterSink struct {
	mu         sync.Mutex
	out        io.Writer
	formatters []Formatter
	filters    map[Level]bool
}

// NewWriterSink returns a sink writing to w in the default format
// "%date %level %logger - %message%newline", accepting every level.
func NewWriterSink(w io.Writer) *WriterSink {
	s := &WriterSink{out: w, formatters: defaultFormatters}
	s.SetFilters(LevelError, LevelWarn, LevelInfo, LevelLog, LevelDebug)
	return s
}

// SetFormat sets the layout of each line. Formats are made of literal text
// and percent tags: %date (%d), %level (%l), %logger, %message (%m) and
// %newline (%n). A literal percent sign is written %%.
func (s *WriterSink) SetFormat(format string) error {
	f, err := extract(format)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.formatters = f
	s.mu.Unlock()
	return nil
}

// SetFilters restricts the sink to entries of the given levels.
// For example, to accept only errors and debug messages:
//
//	sink.SetFilters(nslog.LevelError, nslog.LevelDebug)
func (s *WriterSink) SetFilters(levels ...Level) {
	f := make(map[Level]bool)
	for _, l := range levels {
		f[l] = true
	}
	s.mu.Lock()
	s.filters = f
	s.mu.Unlock()
}

func (s *WriterSink) accepts(l Level) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters[l]
}

func (s *WriterSink) resetFormat() {
	s.mu.Lock()
	s.formatters = defaultFormatters
	s.mu.Unlock()
}

func (s *WriterSink) Emit(e *Entry) error {
	if e == nil {
		return ErrInvalidOutput
	}
	if len(e.Values) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.filters[e.Level] {
		return nil
	}
	e.Reset()
	for _, f := range s.formatters {
		f.Format(e)
	}
	_, err := s.out.Write(e.Bytes())
	return err
}

// Close closes the underlying writer if it is an io.Closer other than
// stdout or stderr.
func (s *WriterSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out == os.Stdout || s.out == os.Stderr {
		return nil
	}
	if c, ok := s.out.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// RecordingSink keeps a copy of every entry it is given, along with the line
// the default format produces for it. It is intended for tests of code that
// logs.
type RecordingSink struct {
	mu      sync.Mutex
	entries []Entry
	lines   []string
	closed  bool
	writer  *WriterSink
	buf     *bytes.Buffer
}

// NewRecordingSink returns an empty RecordingSink.
func NewRecordingSink() *RecordingSink {
	b := new(bytes.Buffer)
	return &RecordingSink{buf: b, writer: NewWriterSink(b)}
}

func (r *RecordingSink) Emit(e *Entry) error {
	if e == nil {
		return ErrInvalidOutput
	}
	if len(e.Values) == 0 || !r.writer.accepts(e.Level) {
		return nil
	}
	c := Entry{
		Logger: e.Logger,
		Level:  e.Level,
		Time:   e.Time,
		Values: append([]interface{}(nil), e.Values...),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.Reset()
	if err := r.writer.Emit(e); err != nil {
		return err
	}
	r.entries = append(r.entries, c)
	r.lines = append(r.lines, r.buf.String())
	return nil
}

// SetFilters restricts recording to entries of the given levels.
func (r *RecordingSink) SetFilters(levels ...Level) {
	r.writer.SetFilters(levels...)
}

// SetFormat changes the format of recorded lines.
func (r *RecordingSink) SetFormat(format string) error {
	return r.writer.SetFormat(format)
}

// Entries returns the entries recorded so far.
func (r *RecordingSink) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Lines returns the formatted lines recorded so far.
func (r *RecordingSink) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func (r *RecordingSink) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

// Closed reports whether Close has been called since the last Reset.
func (r *RecordingSink) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Reset discards everything recorded and restores the default format and
// filters.
func (r *RecordingSink) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.lines = nil
	r.closed = false
	r.buf.Reset()
	r.mu.Unlock()
	r.writer.resetFormat()
	r.writer.SetFilters(LevelError, LevelWarn, LevelInfo, LevelLog, LevelDebug)
}
