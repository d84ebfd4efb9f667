package category

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/goodtune/awnotify/internal/activity"
	"github.com/goodtune/awnotify/internal/metrics"
)

// TotalCategory is the pseudo-category carrying total active time.
const TotalCategory = "All"

// DefaultCacheSize is the number of distinct (app, title, url) triples
// remembered by a Classifier.
const DefaultCacheSize = 4096

type cacheKey struct {
	app, title, url string
}

// Classifier maps events to the categories they belong to.
type Classifier struct {
	rules  *Rules
	cache  *lru.Cache[cacheKey, []string]
	logger zerolog.Logger
}

// NewClassifier creates a classifier over rules. A cacheSize of zero or less
// uses DefaultCacheSize.
func NewClassifier(rules *Rules, cacheSize int, logger zerolog.Logger) (*Classifier, error) {
	if rules == nil {
		rules = Defaults()
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}

	cache, err := lru.New[cacheKey, []string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create classification cache: %w", err)
	}

	c := &Classifier{
		rules:  rules,
		cache:  cache,
		logger: logger.With().Str("component", "classifier").Logger(),
	}

	c.logger.Debug().
		Int("categories", len(rules.Categories)).
		Bool("exclusive", rules.Exclusive).
		Msg("Classifier initialized")

	return c, nil
}

// Rules returns the rules the classifier was built from.
func (c *Classifier) Rules() *Rules {
	return c.rules
}

// Classify returns the names of the categories matching the event, in rule
// order. An empty result means the event is uncategorized. The returned slice
// is shared and must not be modified.
func (c *Classifier) Classify(ev activity.Event) []string {
	key := cacheKey{app: ev.App, title: ev.Title, url: ev.URL}
	if names, ok := c.cache.Get(key); ok {
		metrics.ClassifierCacheHits.Inc()
		return names
	}
	metrics.ClassifierCacheMisses.Inc()

	var names []string
	for _, rule := range c.rules.Categories {
		if !rule.matches(ev) {
			continue
		}
		names = append(names, rule.Name)
		if c.rules.Exclusive {
			break
		}
	}

	c.cache.Add(key, names)
	return names
}

func (r Rule) matches(ev activity.Event) bool {
	for _, m := range r.Matchers {
		if m.Match(ev.App, ev.Title, ev.URL) {
			return true
		}
	}
	return false
}
