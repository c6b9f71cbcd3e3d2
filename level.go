package nslog

import (
	"math"
	"strconv"
)

// Level is the severity of a log call, and the threshold of a logger.
// Higher values are more verbose.
type Level int

const (
	// LevelNone silences a logger entirely.
	LevelNone Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelLog
	LevelDebug
)

// LevelWarning is an alias of LevelWarn.
const LevelWarning = LevelWarn

// DefaultLevel is the level of a logger created without WithLevel.
const DefaultLevel = LevelWarn

var levelName = []string{
	"NONE",
	"ERROR",
	"WARN",
	"INFO",
	"LOG",
	"DEBUG",
}

func (l Level) String() string {
	if l < LevelNone || l > LevelDebug {
		return "Level(" + strconv.Itoa(int(l)) + ")"
	}
	return levelName[l]
}

// keywords are matched in order and case exactly; only the lower and upper
// case spellings are recognised.
var levelKeywords = []struct {
	level Level
	names []string
}{
	{LevelNone, []string{"none", "NONE"}},
	{LevelError, []string{"error", "ERROR"}},
	{LevelWarn, []string{"warn", "warning", "WARN", "WARNING"}},
	{LevelInfo, []string{"info", "INFO"}},
	{LevelLog, []string{"log", "LOG"}},
	{LevelDebug, []string{"debug", "DEBUG"}},
}

// ParseLevel returns the level named by s. Both "debug" and "DEBUG" are
// accepted, "Debug" is not. ParseLevel returns an *InvalidLevelError if s
// names no level.
func ParseLevel(s string) (Level, error) {
	for _, k := range levelKeywords {
		for _, n := range k.names {
			if n == s {
				return k.level, nil
			}
		}
	}
	return LevelNone, &InvalidLevelError{Input: s}
}

// resolveLevel maps a level given as a Level, a number or a keyword onto a
// canonical Level. Numbers are rounded half up and clamped into [LevelNone, max].
func resolveLevel(v interface{}, max Level) (Level, error) {
	var f float64
	switch x := v.(type) {
	case Level:
		f = float64(x)
	case string:
		return ParseLevel(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case float32:
		f = float64(x)
	case float64:
		f = x
	default:
		return LevelNone, &InvalidLevelError{Input: v}
	}
	if math.IsNaN(f) {
		return LevelNone, &InvalidLevelError{Input: v}
	}
	f = math.Floor(f + 0.5)
	if f < float64(LevelNone) {
		return LevelNone, nil
	}
	if f > float64(max) {
		return max, nil
	}
	return Level(f), nil
}

func clampLevel(l Level) Level {
	if l < LevelNone {
		return LevelNone
	}
	if l > LevelDebug {
		return LevelDebug
	}
	return l
}
