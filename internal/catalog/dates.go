package catalog

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"scrappify-bff/internal/models"
)

// parseDate accepts any representation the scrapers emit (ISO dates, RFC
// timestamps, epoch millis, ...). Zone-less values are read as UTC. Slash
// dates are month-first, as browsers read them: 01/03/2024 is January 3.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// latestIndex returns the index of the chronologically latest point, or -1
// for an empty slice. On equal dates the first occurrence wins. Points with
// unparseable dates lose to any parseable one.
func latestIndex(prices []models.PricePoint) int {
	best := -1
	var bestTime time.Time
	bestParsed := false

	for i, p := range prices {
		t, ok := parseDate(p.Date)
		switch {
		case best == -1:
			best, bestTime, bestParsed = i, t, ok
		case ok && (!bestParsed || t.After(bestTime)):
			best, bestTime, bestParsed = i, t, true
		}
	}
	return best
}
