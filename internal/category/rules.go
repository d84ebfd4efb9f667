// Package category loads user-defined category rules and classifies activity
// events into categories.
//
// An event may match several categories. Each matching category is credited
// with the full duration of the event, so overlapping rules count the same
// time more than once. Set `exclusive: true` in the rules file to credit only
// the first matching rule (highest priority, then declaration order).
package category

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfigInvalid is returned when the rules file cannot be used.
var ErrConfigInvalid = errors.New("category: invalid configuration")

// Uncategorized is the implicit bucket for events matching no rule.
const Uncategorized = "Uncategorized"

// DefaultFileName is the rules file name inside the user config directory.
const DefaultFileName = "categories.yaml"

// Rule is a named category with its matchers and notification thresholds.
type Rule struct {
	Name       string
	Matchers   []Matcher
	Priority   int
	Color      string // cosmetic only
	Thresholds []time.Duration
}

// Matcher matches an activity field case-insensitively.
type Matcher struct {
	Pattern string
	re      *regexp.Regexp
}

// Match reports whether any of the values matches.
func (m Matcher) Match(values ...string) bool {
	for _, v := range values {
		if v != "" && m.re.MatchString(v) {
			return true
		}
	}
	return false
}

// Rules is the parsed rules file.
type Rules struct {
	Categories      []Rule
	TotalThresholds []time.Duration
	Exclusive       bool
}

// Threshold accepts a Go duration string ("1h30m") or integer seconds.
type Threshold time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Threshold) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: threshold must be a duration or seconds", node.Line)
	}

	if secs, err := strconv.ParseInt(node.Value, 10, 64); err == nil {
		*t = Threshold(time.Duration(secs) * time.Second)
		return nil
	}

	d, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid threshold %q: %w", node.Line, node.Value, err)
	}
	*t = Threshold(d)
	return nil
}

type fileRule struct {
	Name       string      `yaml:"name"`
	Matchers   []string    `yaml:"matchers"`
	Priority   int         `yaml:"priority"`
	Color      string      `yaml:"color"`
	Thresholds []Threshold `yaml:"thresholds"`
}

type rulesFile struct {
	Exclusive       bool        `yaml:"exclusive"`
	TotalThresholds []Threshold `yaml:"total_thresholds"`
	Categories      []fileRule  `yaml:"categories"`
}

// DefaultPath returns the well-known location of the rules file.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(dir, "awnotify", DefaultFileName)
}

// LoadFile reads and validates a rules file.
func LoadFile(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	return Parse(data)
}

// Parse parses and validates rules file contents.
func Parse(data []byte) (*Rules, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	rules := &Rules{
		Exclusive:       f.Exclusive,
		TotalThresholds: toDurations(f.TotalThresholds),
	}
	if err := validateThresholds("total_thresholds", rules.TotalThresholds); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for i, fr := range f.Categories {
		name := strings.TrimSpace(fr.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: category #%d has no name", ErrConfigInvalid, i+1)
		}
		if strings.EqualFold(name, Uncategorized) || strings.EqualFold(name, TotalCategory) {
			return nil, fmt.Errorf("%w: category name %q is reserved", ErrConfigInvalid, name)
		}
		if seen[strings.ToLower(name)] {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrConfigInvalid, name)
		}
		seen[strings.ToLower(name)] = true

		if len(fr.Matchers) == 0 {
			return nil, fmt.Errorf("%w: category %q has no matchers", ErrConfigInvalid, name)
		}

		rule := Rule{
			Name:       name,
			Priority:   fr.Priority,
			Color:      fr.Color,
			Thresholds: toDurations(fr.Thresholds),
		}
		for _, pattern := range fr.Matchers {
			m, err := NewMatcher(pattern)
			if err != nil {
				return nil, fmt.Errorf("%w: category %q: %v", ErrConfigInvalid, name, err)
			}
			rule.Matchers = append(rule.Matchers, m)
		}
		if err := validateThresholds(name, rule.Thresholds); err != nil {
			return nil, err
		}

		rules.Categories = append(rules.Categories, rule)
	}

	// Stable sort keeps declaration order among equal priorities
	sort.SliceStable(rules.Categories, func(i, j int) bool {
		return rules.Categories[i].Priority > rules.Categories[j].Priority
	})

	return rules, nil
}

// NewMatcher compiles a pattern. "/expr/" is a regular expression, anything
// else a literal substring. Both match case-insensitively.
func NewMatcher(pattern string) (Matcher, error) {
	if strings.TrimSpace(pattern) == "" {
		return Matcher{}, errors.New("empty matcher")
	}

	expr := regexp.QuoteMeta(pattern)
	if len(pattern) > 2 && strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/") {
		expr = pattern[1 : len(pattern)-1]
	}

	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return Matcher{}, fmt.Errorf("invalid matcher %q: %w", pattern, err)
	}
	return Matcher{Pattern: pattern, re: re}, nil
}

// Defaults returns the rules used when no rules file exists.
func Defaults() *Rules {
	rules, err := Parse([]byte(defaultRules))
	if err != nil {
		panic(fmt.Sprintf("built-in category rules are invalid: %v", err))
	}
	return rules
}

const defaultRules = `
total_thresholds: [15m, 30m, 1h, 2h, 4h, 6h, 8h]
categories:
  - name: Work
    matchers: ["/Programming|nvim|taxes|Roam|Code/"]
    thresholds: [15m, 30m, 1h, 2h, 4h]
  - name: Twitter
    matchers: ["/Twitter|twitter\\.com|Home \\/ X/"]
    thresholds: [15m, 30m, 1h]
`

func toDurations(in []Threshold) []time.Duration {
	out := make([]time.Duration, 0, len(in))
	for _, t := range in {
		out = append(out, time.Duration(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func validateThresholds(owner string, thresholds []time.Duration) error {
	for i, t := range thresholds {
		if t <= 0 {
			return fmt.Errorf("%w: %s: thresholds must be positive", ErrConfigInvalid, owner)
		}
		if i > 0 && thresholds[i-1] == t {
			return fmt.Errorf("%w: %s: duplicate threshold %s", ErrConfigInvalid, owner, t)
		}
	}
	return nil
}
