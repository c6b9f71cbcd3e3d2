package nslog

import (
	"github.com/sirupsen/logrus"
)

// LogrusSink forwards entries to a logrus logger, with the logger name in
// the "logger" field. The logrus logger's own level still applies, so it
// must be at logrus.DebugLevel or above for LevelDebug entries to appear.
type LogrusSink struct {
	logger *logrus.Logger
}

// NewLogrusSink returns a sink writing to l. A nil l uses the logrus
// standard logger.
func NewLogrusSink(l *logrus.Logger) *LogrusSink {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &LogrusSink{logger: l}
}

var logrusLevel = map[Level]logrus.Level{
	LevelError: logrus.ErrorLevel,
	LevelWarn:  logrus.WarnLevel,
	LevelInfo:  logrus.InfoLevel,
	LevelLog:   logrus.InfoLevel,
	LevelDebug: logrus.DebugLevel,
}

func (s *LogrusSink) Emit(e *Entry) error {
	if e == nil {
		return ErrInvalidOutput
	}
	lvl, ok := logrusLevel[e.Level]
	if !ok || len(e.Values) == 0 {
		return nil
	}
	entry := s.logger.WithField("logger", e.Logger)
	if !e.Time.IsZero() {
		entry = entry.WithTime(e.Time)
	}
	entry.Log(lvl, joinValues(e.Values))
	return nil
}

// Close is a no-op; the logrus logger's output belongs to its owner.
func (s *LogrusSink) Close() error {
	return nil
}
