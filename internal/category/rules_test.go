package category

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodtune/awnotify/internal/activity"
)

const sampleRules = `
exclusive: false
total_thresholds: [2h, 3600]
categories:
  - name: Social
    matchers: ["twitter.com", "/reddit|mastodon/"]
    thresholds: [15m]
  - name: Work
    matchers: ["vscode", "terminal", "/Programming|nvim/"]
    color: "#00ff00"
    priority: 10
    thresholds: [1h, 15m, 30m]
  - name: Terminal
    matchers: ["terminal"]
    priority: 10
`

func TestParse(t *testing.T) {
	rules, err := Parse([]byte(sampleRules))
	require.NoError(t, err)

	require.Len(t, rules.Categories, 3)
	// Priority first, then declaration order
	assert.Equal(t, "Work", rules.Categories[0].Name)
	assert.Equal(t, "Terminal", rules.Categories[1].Name)
	assert.Equal(t, "Social", rules.Categories[2].Name)

	work := rules.Categories[0]
	assert.Equal(t, "#00ff00", work.Color)
	assert.Equal(t, []time.Duration{15 * time.Minute, 30 * time.Minute, time.Hour}, work.Thresholds)
	assert.Equal(t, []time.Duration{time.Hour, 2 * time.Hour}, rules.TotalThresholds)
	assert.False(t, rules.Exclusive)
	assert.Empty(t, rules.Categories[1].Thresholds)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "categories: [unterminated"},
		{"missing name", "categories:\n  - matchers: [a]\n"},
		{"no matchers", "categories:\n  - name: A\n"},
		{"duplicate name", "categories:\n  - name: A\n    matchers: [a]\n  - name: a\n    matchers: [b]\n"},
		{"reserved name", "categories:\n  - name: Uncategorized\n    matchers: [a]\n"},
		{"reserved total", "categories:\n  - name: All\n    matchers: [a]\n"},
		{"bad regex", "categories:\n  - name: A\n    matchers: [\"/(/\"]\n"},
		{"empty matcher", "categories:\n  - name: A\n    matchers: [\" \"]\n"},
		{"zero threshold", "categories:\n  - name: A\n    matchers: [a]\n    thresholds: [0]\n"},
		{"negative threshold", "categories:\n  - name: A\n    matchers: [a]\n    thresholds: [-5m]\n"},
		{"duplicate threshold", "categories:\n  - name: A\n    matchers: [a]\n    thresholds: [1h, 3600]\n"},
		{"bad threshold", "categories:\n  - name: A\n    matchers: [a]\n    thresholds: [soon]\n"},
		{"bad total threshold", "total_thresholds: [[1h]]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfigInvalid), "got %v", err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(sampleRules), 0o600))

	rules, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, rules.Categories, 3)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrConfigInvalid)
}

func TestDefaults(t *testing.T) {
	rules := Defaults()
	require.Len(t, rules.Categories, 2)
	assert.Equal(t, "Work", rules.Categories[0].Name)
	assert.Equal(t, "Twitter", rules.Categories[1].Name)
	assert.NotEmpty(t, rules.TotalThresholds)
}

func TestMatcher(t *testing.T) {
	tests := []struct {
		pattern string
		value   string
		want    bool
	}{
		{"vscode", "VSCode", true},
		{"vscode", "vs code", false},
		{"a.b", "axb", false},
		{"a.b", "A.B", true},
		{"/a.b/", "axb", true},
		{"/^Code$/", "code", true},
		{"/^Code$/", "Code - main.go", false},
		{"/", "path/to", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"_"+tt.value, func(t *testing.T) {
			m, err := NewMatcher(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Match(tt.value))
		})
	}
}

func TestClassifier_Classify(t *testing.T) {
	rules, err := Parse([]byte(sampleRules))
	require.NoError(t, err)

	c, err := NewClassifier(rules, 16, zerolog.Nop())
	require.NoError(t, err)

	tests := []struct {
		name string
		ev   activity.Event
		want []string
	}{
		{"app match", activity.Event{App: "vscode", Title: "main.go"}, []string{"Work"}},
		{"title regex", activity.Event{App: "kitty", Title: "nvim foo.go"}, []string{"Work"}},
		{"overlap counts twice", activity.Event{App: "Terminal"}, []string{"Work", "Terminal"}},
		{"url match", activity.Event{App: "Firefox", URL: "https://twitter.com/home"}, []string{"Social"}},
		{"no match", activity.Event{App: "Spotify", Title: "Music"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.ev))
			// Cached answer is identical
			assert.Equal(t, tt.want, c.Classify(tt.ev))
		})
	}
}

func TestClassifier_Exclusive(t *testing.T) {
	rules, err := Parse([]byte(sampleRules))
	require.NoError(t, err)
	rules.Exclusive = true

	c, err := NewClassifier(rules, 0, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, []string{"Work"}, c.Classify(activity.Event{App: "Terminal"}))
}

func TestClassifier_NilRulesUsesDefaults(t *testing.T) {
	c, err := NewClassifier(nil, 0, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"Twitter"}, c.Classify(activity.Event{App: "Firefox", Title: "Home / X"}))
}
