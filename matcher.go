package nslog

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// wildcard, as a whole fragment, allows (or denies) every logger.
const wildcard = "*"

// fragment is one allow or deny entry together with its compiled matcher.
type fragment struct {
	text string
	re   *regexp.Regexp
}

func (f fragment) matches(name string) bool {
	return f.re.MatchString(name)
}

// isRegexFragment reports whether s is written as /body/.
func isRegexFragment(s string) bool {
	return len(s) >= 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/")
}

// compileFragment builds the matcher for s. A /body/ fragment matches when
// body matches anywhere in the name; any other fragment matches when it
// occurs literally in the name.
func compileFragment(s string) (fragment, error) {
	expr := regexp.QuoteMeta(s)
	if isRegexFragment(s) {
		expr = s[1 : len(s)-1]
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return fragment{}, errors.Wrapf(ErrInvalidPattern, "%q: %v", s, err)
	}
	return fragment{text: s, re: re}, nil
}

func compileFragments(list []string) ([]fragment, error) {
	out := make([]fragment, 0, len(list))
	for _, s := range list {
		f, err := compileFragment(s)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func containsWildcard(list []fragment) bool {
	for _, f := range list {
		if f.text == wildcard {
			return true
		}
	}
	return false
}

// parseFilter splits a filter string such as "Worker,/^http/,-Noisy" into
// its allow and deny fragments.
func parseFilter(s string) (allow, deny []string) {
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "-") {
			if part = part[1:]; part != "" {
				deny = append(deny, part)
			}
			continue
		}
		if part != "" {
			allow = append(allow, part)
		}
	}
	return allow, deny
}
