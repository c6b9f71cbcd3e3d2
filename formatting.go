package nslog

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Formatter is the interface for sink formats. Format appends its part of
// the line to the entry's buffer; Names lists the tags selecting it.
type Formatter interface {
	Format(e *Entry)
	Names() []string
}

type literalFormatter struct {
	s string
}

func (f *literalFormatter) Format(e *Entry) {
	e.WriteString(f.s)
}

func (f *literalFormatter) Names() []string {
	return []string{}
}

// dateLayout is ISO 8601 in UTC with millisecond precision.
const dateLayout = "2006-01-02T15:04:05.000Z"

type dateFormatter struct{}

func (f *dateFormatter) Format(e *Entry) {
	var b [len(dateLayout) + 4]byte
	e.Write(e.Time.UTC().AppendFormat(b[:0], dateLayout))
}

func (f *dateFormatter) Names() []string {
	return []string{"date", "d"}
}

type levelFormatter struct{}

func (f *levelFormatter) Format(e *Entry) {
	e.WriteString(e.Level.String())
}

func (f *levelFormatter) Names() []string {
	return []string{"level", "l"}
}

type loggerFormatter struct{}

func (f *loggerFormatter) Format(e *Entry) {
	e.WriteString(e.Logger)
}

func (f *loggerFormatter) Names() []string {
	return []string{"logger"}
}

type messageFormatter struct{}

func (f *messageFormatter) Format(e *Entry) {
	e.WriteString(joinValues(e.Values))
}

func (f *messageFormatter) Names() []string {
	return []string{"message", "m"}
}

type newlineFormatter struct{}

func (f *newlineFormatter) Format(e *Entry) {
	e.WriteByte('\n')
}

func (f *newlineFormatter) Names() []string {
	return []string{"newline", "n"}
}

// joinValues formats values the way fmt.Println does, without the newline.
func joinValues(values []interface{}) string {
	return strings.TrimSuffix(fmt.Sprintln(values...), "\n")
}

// "logger" is listed before "level" so that %logger is not read as %l.
var formatters = []Formatter{
	&dateFormatter{},
	&loggerFormatter{},
	&levelFormatter{},
	&messageFormatter{},
	&newlineFormatter{},
}

func extract(format string) ([]Formatter, error) {
	s := []Formatter{}
	p := []byte{}
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			p = append(p, c)
			continue
		}
		if i == len(format)-1 {
			p = append(p, c)
			continue
		}
		if format[i+1] == '%' { //escaped
			p = append(p, c)
			i++
			continue
		}
		i++

		if len(p) > 0 {
			s = append(s, &literalFormatter{s: string(p)})
			p = []byte{}
		}

		f, n := lookupFormatter(format[i:])
		if f == nil {
			return nil, errors.Errorf("invalid syntax at position %d, %s", i-1, format)
		}
		s = append(s, f)
		i += n - 1
	}
	if len(p) > 0 {
		s = append(s, &literalFormatter{s: string(p)})
	}
	return s, nil
}

// lookupFormatter returns the formatter whose tag prefixes rest, and the
// length of that tag.
func lookupFormatter(rest string) (Formatter, int) {
	for _, f := range formatters {
		for _, t := range f.Names() {
			if strings.HasPrefix(rest, t) {
				return f, len(t)
			}
		}
	}
	return nil, 0
}
