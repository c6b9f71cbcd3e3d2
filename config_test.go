package nslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanDisplaySuppressesMessagesAboveThreshold(t *testing.T) {
	c := NewConfig()
	require.NoError(t, c.Allow("*"))

	for threshold := LevelNone; threshold <= LevelDebug; threshold++ {
		for requested := LevelError; requested <= LevelDebug; requested++ {
			got := c.CanDisplay(requested, threshold, "Worker")
			assert.Equal(t, requested <= threshold, got, "requested %v threshold %v", requested, threshold)
		}
	}
}

func TestCanDisplayIsOpenWithEmptyLists(t *testing.T) {
	c := NewConfig()
	assert.True(t, c.CanDisplay(LevelInfo, LevelInfo, "Anything"))
	assert.True(t, c.CanDisplay(LevelError, LevelDebug, ""))
}

func TestCanDisplayNameStage(t *testing.T) {
	var tests = []struct {
		name  string
		allow []string
		deny  []string
		want  map[string]bool
	}{
		{
			name:  "allow wildcard beats deny",
			allow: []string{"*"},
			deny:  []string{"Foo", "*"},
			want:  map[string]bool{"Foo": true, "Bar": true},
		},
		{
			name: "deny wildcard",
			deny: []string{"*"},
			want: map[string]bool{"Foo": false, "Bar": false},
		},
		{
			name:  "allow list",
			allow: []string{"Foo"},
			want:  map[string]bool{"Foo": true, "Bar": false},
		},
		{
			name: "deny list",
			deny: []string{"Foo"},
			want: map[string]bool{"Foo": false, "Bar": true},
		},
		{
			name:  "allow list ignores deny list",
			allow: []string{"Bar"},
			deny:  []string{"*"},
			want:  map[string]bool{"Bar": true, "Foo": false},
		},
		{
			name:  "allow list ignores specific deny",
			allow: []string{"Bar"},
			deny:  []string{"Bar"},
			want:  map[string]bool{"Bar": true},
		},
		{
			name:  "literal fragments match substrings",
			allow: []string{"ork"},
			want:  map[string]bool{"Worker": true, "Other": false},
		},
		{
			name:  "regex fragments",
			allow: []string{"/^Work/"},
			want:  map[string]bool{"Worker": true, "Other": false, "HardWork": false},
		},
		{
			name: "any matching deny fragment blocks",
			deny: []string{"Foo", "/z$/"},
			want: map[string]bool{"Foo": false, "Baz": false, "Bar": true},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := NewConfig()
			require.NoError(t, c.Allow(test.allow...))
			require.NoError(t, c.Deny(test.deny...))
			for name, want := range test.want {
				assert.Equal(t, want, c.CanDisplay(LevelInfo, LevelDebug, name), name)
			}
		})
	}
}

func TestLiteralFragmentsEscapeEveryMetacharacter(t *testing.T) {
	c := NewConfig()
	require.NoError(t, c.Allow("a.b+c"))

	assert.True(t, c.CanDisplay(LevelError, LevelError, "x_a.b+c_y"))
	assert.False(t, c.CanDisplay(LevelError, LevelError, "axbbc"))
	assert.False(t, c.CanDisplay(LevelError, LevelError, "a.bbc"))
}

func TestAllowRejectsInvalidRegexAtomically(t *testing.T) {
	c := NewConfig()
	err := c.Allow("Foo", "/[a-/")

	assert.True(t, errors.Is(err, ErrInvalidPattern), "error %v", err)
	assert.Empty(t, c.AllowList())
}

func TestAllowAndDenyAppendInOrderKeepingDuplicates(t *testing.T) {
	c := NewConfig()
	require.NoError(t, c.Allow("A", "B"))
	require.NoError(t, c.Allow([]string{"A", "C"}...))
	require.NoError(t, c.Deny("X"))
	require.NoError(t, c.Deny("X"))

	assert.Equal(t, []string{"A", "B", "A", "C"}, c.AllowList())
	assert.Equal(t, []string{"X", "X"}, c.DenyList())
}

func TestAllowAllClearsBothLists(t *testing.T) {
	c := NewConfig()
	require.NoError(t, c.Allow("A"))
	require.NoError(t, c.Deny("*"))
	c.AllowAll()

	assert.Empty(t, c.AllowList())
	assert.Empty(t, c.DenyList())
	assert.True(t, c.CanDisplay(LevelInfo, LevelInfo, "A"))
}

func TestSetMaxLevelClampsToLevelRange(t *testing.T) {
	c := NewConfig()
	assert.Equal(t, LevelDebug, c.MaxLevel())

	c.SetMaxLevel(Level(12))
	assert.Equal(t, LevelDebug, c.MaxLevel())

	c.SetMaxLevel(Level(-1))
	assert.Equal(t, LevelNone, c.MaxLevel())

	c.SetMaxLevel(LevelInfo)
	assert.Equal(t, LevelInfo, c.MaxLevel())
}

func TestSetMaxLevelDoesNotReclampLoggers(t *testing.T) {
	c := NewConfig()
	l, err := New("Worker", WithConfig(c), WithSinks(Discard), WithLevel(LevelDebug))
	require.NoError(t, err)

	c.SetMaxLevel(LevelError)
	assert.Equal(t, LevelDebug, l.Level())

	require.NoError(t, l.SetLevel(5))
	assert.Equal(t, LevelError, l.Level())
}

func TestSeedSplitsAllowAndDenyFragments(t *testing.T) {
	c := NewConfig()
	require.NoError(t, c.Seed("Worker, -Noisy,/^http/,,-, -/x+/"))

	assert.Equal(t, []string{"Worker", "/^http/"}, c.AllowList())
	assert.Equal(t, []string{"Noisy", "/x+/"}, c.DenyList())
}

func TestSeedEmptyStringLeavesListsEmpty(t *testing.T) {
	c := NewConfig()
	require.NoError(t, c.Seed(""))

	assert.Empty(t, c.AllowList())
	assert.Empty(t, c.DenyList())
}

func TestSeedKeepsValidFragmentsAndReportsInvalidOnes(t *testing.T) {
	c := NewConfig()
	err := c.Seed("Good,/(/,-Bad")

	assert.True(t, errors.Is(err, ErrInvalidPattern))
	assert.Equal(t, []string{"Good"}, c.AllowList())
	assert.Equal(t, []string{"Bad"}, c.DenyList())
}

func TestLoadAppliesYAML(t *testing.T) {
	c := NewConfig()
	doc := `
maxLevel: info
timestamp: true
filter: Worker,-Noisy
allow: ["/^http/"]
deny: [Chatty]
`
	require.NoError(t, c.Load(strings.NewReader(doc)))

	assert.Equal(t, LevelInfo, c.MaxLevel())
	assert.True(t, c.PrependTimestamp())
	assert.Equal(t, []string{"Worker", "/^http/"}, c.AllowList())
	assert.Equal(t, []string{"Noisy", "Chatty"}, c.DenyList())
}

func TestLoadAcceptsNumericMaxLevel(t *testing.T) {
	c := NewConfig()
	require.NoError(t, c.Load(strings.NewReader("maxLevel: 2\n")))

	assert.Equal(t, LevelWarn, c.MaxLevel())
	assert.False(t, c.PrependTimestamp())
}

func TestLoadRejectsUnknownMaxLevel(t *testing.T) {
	c := NewConfig()
	err := c.Load(strings.NewReader("maxLevel: verbose\n"))

	var ile *InvalidLevelError
	assert.True(t, errors.As(err, &ile), "error %v", err)
	assert.Equal(t, LevelDebug, c.MaxLevel())
}

func TestLoadEmptyDocumentChangesNothing(t *testing.T) {
	c := NewConfig()
	require.NoError(t, c.Load(strings.NewReader("")))

	assert.Equal(t, LevelDebug, c.MaxLevel())
	assert.Empty(t, c.AllowList())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nslog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("deny: ['*']\n"), 0644))

	c := NewConfig()
	require.NoError(t, c.LoadFile(path))
	assert.False(t, c.CanDisplay(LevelError, LevelDebug, "Worker"))

	assert.Error(t, c.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestAddSinkReturnsErrorWhenCalledWithSameName(t *testing.T) {
	c := NewConfig()
	err := c.AddSink("console", Discard)

	assert.True(t, errors.Is(err, ErrSinkExists))
	s, _ := c.sink("console")
	assert.Equal(t, Console, s)
}

func TestConfigCloseClosesEverySink(t *testing.T) {
	c := NewConfig()
	a, b := NewRecordingSink(), NewRecordingSink()
	require.NoError(t, c.AddSink("a", a))
	require.NoError(t, c.AddSink("b", b))

	require.NoError(t, c.Close())
	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
}

func TestResetRestoresDefaults(t *testing.T) {
	c := NewConfig()
	c.SetMaxLevel(LevelError)
	c.SetPrependTimestamp(true)
	require.NoError(t, c.Allow("A"))
	require.NoError(t, c.AddSink("rec", NewRecordingSink()))
	_, err := New("Worker", WithConfig(c), WithSinks(Discard))
	require.NoError(t, err)

	c.Reset()

	assert.Equal(t, LevelDebug, c.MaxLevel())
	assert.False(t, c.PrependTimestamp())
	assert.Empty(t, c.AllowList())
	_, ok := c.sink("rec")
	assert.False(t, ok)
	_, ok = c.LoggerByName("Worker")
	assert.False(t, ok)
}

func TestCanDisplayAllowListOverridesDenyWildcard(t *testing.T) {
	c := NewConfig()
	require.NoError(t, c.Allow("Bar"))
	require.NoError(t, c.Deny("*"))

	assert.True(t, c.CanDisplay(LevelInfo, LevelDebug, "Bar"))
	assert.False(t, c.CanDisplay(LevelInfo, LevelDebug, "Foo"))
}

func TestCanDisplayNeverPassesLevelNone(t *testing.T) {
	c := NewConfig()
	require.NoError(t, c.Allow("*"))

	for threshold := LevelNone; threshold <= LevelDebug; threshold++ {
		assert.False(t, c.CanDisplay(LevelNone, threshold, "Worker"), "threshold %v", threshold)
	}
}

func TestAddSinkErrorMessage(t *testing.T) {
	c := NewConfig()
	err := c.AddSink("console", Discard)

	require.Error(t, err)
	assert.Equal(t, `"console": sink already exists`, err.Error())
}
