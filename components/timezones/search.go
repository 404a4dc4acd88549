package timezones

import (
	"sort"
	"strings"
)

// Search returns zones containing query, case-insensitively. Prefix matches
// come first, then alphabetical order. An empty query returns the head of
// the list.
func Search(zones []string, query string, limit int, opts Options) []string {
	limit = clampLimit(limit, opts)

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		if len(zones) > limit {
			zones = zones[:limit]
		}
		return append([]string{}, zones...)
	}

	type match struct {
		name   string
		prefix bool
	}
	matches := make([]match, 0, 16)
	for _, zone := range zones {
		lower := strings.ToLower(zone)
		if !strings.Contains(lower, q) {
			continue
		}
		// "york" should find America/New_York by its city part too.
		city := lower[strings.LastIndexByte(lower, '/')+1:]
		matches = append(matches, match{
			name:   zone,
			prefix: strings.HasPrefix(lower, q) || strings.HasPrefix(city, q),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].prefix != matches[j].prefix {
			return matches[i].prefix
		}
		return matches[i].name < matches[j].name
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.name)
	}
	return out
}

// Label turns "America/New_York" into "America / New York".
func Label(zone string) string {
	return strings.ReplaceAll(strings.ReplaceAll(zone, "_", " "), "/", " / ")
}
