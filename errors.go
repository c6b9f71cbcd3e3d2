package nslog

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidOutput is returned by a sink handed a nil entry.
	ErrInvalidOutput = errors.New("invalid output: entry is not a sequence of values")
	// ErrInvalidPattern is returned when a /regex/ name fragment does not compile.
	ErrInvalidPattern = errors.New("invalid name pattern")
	// ErrSinkExists is returned by AddSink for a name already registered.
	ErrSinkExists = errors.New("sink already exists")
	// ErrUnknownSink is returned by SetSinks for a name never registered.
	ErrUnknownSink = errors.New("unrecognised sink")
)

// InvalidLevelError reports a level value that is neither a number nor a
// recognised keyword.
type InvalidLevelError struct {
	Input interface{}
}

func (e *InvalidLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q", fmt.Sprint(e.Input))
}
