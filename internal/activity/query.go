package activity

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const (
	windowResultKey = "window"
	webResultPrefix = "web:"
)

// browserAppNames maps a web watcher name to the window app names the
// browser reports on each platform. The first entry is used as display name.
var browserAppNames = map[string][]string{
	"chrome": {
		"Google Chrome", "Google-chrome", "chrome.exe", "google-chrome-stable",
		"Chromium", "Chromium-browser", "Chromium-browser-chromium", "chromium.exe",
		"Google-chrome-beta", "Google-chrome-unstable",
	},
	"firefox": {
		"Firefox", "Firefox.exe", "firefox", "firefox.exe", "Firefox Developer Edition",
		"firefoxdeveloperedition", "Firefox-esr", "Firefox Beta", "Nightly", "org.mozilla.firefox",
	},
	"edge":    {"Microsoft Edge", "msedge.exe", "Microsoft-edge"},
	"brave":   {"Brave Browser", "Brave-browser", "brave.exe"},
	"opera":   {"Opera", "opera.exe"},
	"vivaldi": {"Vivaldi", "Vivaldi-stable", "Vivaldi-snapshot", "vivaldi.exe"},
	"arc":     {"Arc", "Arc.exe"},
}

// browserFromBucket extracts the browser name from a web watcher bucket ID,
// e.g. "aw-watcher-web-firefox_laptop" -> "firefox".
func browserFromBucket(bucketID string) string {
	name := strings.TrimPrefix(bucketID, "aw-watcher-web-")
	name, _, _ = strings.Cut(name, "_")
	return strings.ToLower(name)
}

func browserDisplayName(browser string) string {
	if names := browserAppNames[browser]; len(names) > 0 {
		return names[0]
	}
	return browser
}

// buildQuery renders the ActivityWatch query for a bucket set. Window events
// are limited to non-AFK time. Browsers with a web bucket have their window
// events replaced by tab events, limited to when the browser was focused.
func buildQuery(b *bucketSet) []string {
	q := []string{
		fmt.Sprintf("window = flood(query_bucket(%s));", quote(b.Window)),
	}

	if b.AFK != "" {
		q = append(q,
			fmt.Sprintf("afk = flood(query_bucket(%s));", quote(b.AFK)),
			`not_afk = filter_keyvals(afk, "status", ["not-afk"]);`,
			"window = filter_period_intersect(window, not_afk);",
		)
	}

	browsers := make([]string, 0, len(b.Web))
	for browser := range b.Web {
		browsers = append(browsers, browser)
	}
	sort.Strings(browsers)

	var excluded []string
	for _, browser := range browsers {
		excluded = append(excluded, browserAppNames[browser]...)
	}

	if len(excluded) > 0 {
		q = append(q, fmt.Sprintf(`events = exclude_keyvals(window, "app", %s);`, quoteList(excluded)))
	} else {
		q = append(q, "events = window;")
	}

	result := []string{fmt.Sprintf("%s: events", quote(windowResultKey))}
	for i, browser := range browsers {
		v := fmt.Sprintf("web_%d", i)
		q = append(q,
			fmt.Sprintf("%s = flood(query_bucket(%s));", v, quote(b.Web[browser])),
			fmt.Sprintf(`%s = filter_period_intersect(%s, filter_keyvals(window, "app", %s));`,
				v, v, quoteList(browserAppNames[browser])),
		)
		result = append(result, fmt.Sprintf("%s: %s", quote(webResultPrefix+browser), v))
	}

	q = append(q, fmt.Sprintf("RETURN = {%s};", strings.Join(result, ", ")))
	return q
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func quoteList(items []string) string {
	b, _ := json.Marshal(items)
	return string(b)
}
