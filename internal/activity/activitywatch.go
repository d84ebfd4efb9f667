package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultURL is the address of a locally running ActivityWatch server
	DefaultURL = "http://localhost:5600"

	// DefaultTimeout bounds a single HTTP round trip
	DefaultTimeout = 10 * time.Second

	bucketTypeWindow = "currentwindow"
	bucketTypeAFK    = "afkstatus"
	bucketTypeWeb    = "web.tab.current"
)

// Config holds ActivityWatch client configuration
type Config struct {
	URL      string
	Hostname string // Prefer buckets reported by this host
	Timeout  time.Duration
}

// Client reads events from the ActivityWatch REST API
type Client struct {
	baseURL  string
	hostname string
	http     *http.Client
	logger   zerolog.Logger

	mu      sync.Mutex
	buckets *bucketSet // resolved lazily, dropped after a failed query
}

// bucketSet holds the bucket IDs a query is built from
type bucketSet struct {
	Window string
	AFK    string
	Web    map[string]string // browser -> bucket ID
}

type bucketInfo struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Client   string `json:"client"`
	Hostname string `json:"hostname"`
}

type queryRequest struct {
	TimePeriods []string `json:"timeperiods"`
	Query       []string `json:"query"`
}

type rawEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	Duration  float64        `json:"duration"`
	Data      map[string]any `json:"data"`
}

// NewClient creates a new ActivityWatch client
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		hostname: cfg.Hostname,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger.With().Str("component", "activitywatch").Logger(),
	}
}

// Fetch queries non-AFK window and browser events covering [since, until)
func (c *Client) Fetch(ctx context.Context, since, until time.Time) (iter.Seq[Event], error) {
	if !until.After(since) {
		return func(func(Event) bool) {}, nil
	}

	buckets, err := c.resolveBuckets(ctx)
	if err != nil {
		return nil, err
	}

	req := queryRequest{
		TimePeriods: []string{since.Format(time.RFC3339Nano) + "/" + until.Format(time.RFC3339Nano)},
		Query:       buildQuery(buckets),
	}

	var results []map[string][]rawEvent
	if err := c.do(ctx, http.MethodPost, "/api/0/query/", req, &results); err != nil {
		c.forgetBuckets()
		return nil, err
	}

	var events []Event
	if len(results) > 0 {
		for key, raws := range results[0] {
			browser, isWeb := strings.CutPrefix(key, webResultPrefix)
			if !isWeb && key != windowResultKey {
				continue
			}
			for _, raw := range raws {
				ev := raw.toEvent()
				if isWeb && ev.App == "" {
					ev.App = browserDisplayName(browser)
				}
				if ev, ok := Clip(ev, since, until); ok {
					events = append(events, ev)
				}
			}
		}
		sort.SliceStable(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	}

	c.logger.Debug().
		Time("since", since).
		Time("until", until).
		Int("events", len(events)).
		Msg("Fetched activity events")

	return func(yield func(Event) bool) {
		for _, ev := range events {
			if !yield(ev) {
				return
			}
		}
	}, nil
}

// resolveBuckets finds the watcher buckets to query, caching the result
func (c *Client) resolveBuckets(ctx context.Context) (*bucketSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.buckets != nil {
		return c.buckets, nil
	}

	var all map[string]bucketInfo
	if err := c.do(ctx, http.MethodGet, "/api/0/buckets/", nil, &all); err != nil {
		return nil, err
	}

	infos := make([]bucketInfo, 0, len(all))
	for id, info := range all {
		if info.ID == "" {
			info.ID = id
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })

	set := &bucketSet{
		Window: c.pickBucket(infos, bucketTypeWindow),
		AFK:    c.pickBucket(infos, bucketTypeAFK),
		Web:    make(map[string]string),
	}
	if set.Window == "" {
		return nil, fmt.Errorf("%w: no %s bucket found", ErrSourceUnavailable, bucketTypeWindow)
	}

	for _, info := range infos {
		if info.Type != bucketTypeWeb {
			continue
		}
		browser := browserFromBucket(info.ID)
		if _, known := browserAppNames[browser]; !known {
			c.logger.Debug().Str("bucket", info.ID).Msg("Ignoring web bucket for unknown browser")
			continue
		}
		if _, seen := set.Web[browser]; !seen || c.matchesHost(info) {
			set.Web[browser] = info.ID
		}
	}

	c.logger.Info().
		Str("window", set.Window).
		Str("afk", set.AFK).
		Int("browsers", len(set.Web)).
		Msg("Resolved ActivityWatch buckets")

	c.buckets = set
	return set, nil
}

func (c *Client) forgetBuckets() {
	c.mu.Lock()
	c.buckets = nil
	c.mu.Unlock()
}

// pickBucket returns the bucket of the given type, preferring this host
func (c *Client) pickBucket(infos []bucketInfo, bucketType string) string {
	var fallback string
	for _, info := range infos {
		if info.Type != bucketType {
			continue
		}
		if c.matchesHost(info) {
			return info.ID
		}
		if fallback == "" {
			fallback = info.ID
		}
	}
	return fallback
}

func (c *Client) matchesHost(info bucketInfo) bool {
	return c.hostname != "" && strings.EqualFold(info.Hostname, c.hostname)
}

// do performs a JSON request and decodes the response into out
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s returned %d: %s",
			ErrSourceUnavailable, method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %v", ErrSourceUnavailable, path, err)
	}

	return nil
}

func (r rawEvent) toEvent() Event {
	return Event{
		Start:    r.Timestamp,
		Duration: time.Duration(r.Duration * float64(time.Second)),
		App:      stringField(r.Data, "app"),
		Title:    stringField(r.Data, "title"),
		URL:      stringField(r.Data, "url"),
	}
}

func stringField(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
