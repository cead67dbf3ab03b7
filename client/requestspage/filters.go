package requestspage

import (
	"sort"
	"strings"
	"time"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
)

// Filter is a requests tab.
type Filter string

const (
	FilterAll        Filter = "all"
	FilterPending    Filter = "pending"
	FilterProcessing Filter = "processing"
	FilterComingSoon Filter = "coming-soon"
	FilterAvailable  Filter = "available"
)

// Filters lists the tabs in display order.
var Filters = []Filter{FilterAll, FilterPending, FilterProcessing, FilterComingSoon, FilterAvailable}

// ParseFilter maps a tab name to a Filter; unknown names select FilterAll.
func ParseFilter(s string) (Filter, bool) {
	f := Filter(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Filters {
		if f == known {
			return f, true
		}
	}
	return FilterAll, false
}

// APIFilter is the filter sent to the server. Coming soon is computed
// client-side over the unfiltered list.
func (f Filter) APIFilter() string {
	if f == FilterAll || f == FilterComingSoon {
		return ""
	}
	return string(f)
}

func (f Filter) label() string {
	switch f {
	case FilterPending:
		return "Pending Approval"
	case FilterProcessing:
		return "Processing"
	case FilterComingSoon:
		return "Coming Soon"
	case FilterAvailable:
		return "Available"
	}
	return "All"
}

// ApplyFilters applies the filtering the server query cannot express. The
// input is never modified.
func ApplyFilters(requests []models.RequestView, f Filter, now time.Time) []models.RequestView {
	out := make([]models.RequestView, 0, len(requests))
	switch f {
	case FilterComingSoon:
		today := midnight(now)
		for _, r := range requests {
			if isUpcoming(r, today) && isApprovedOrProcessing(r) {
				out = append(out, r)
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return releaseSortKey(out[i], now.Location()).Before(releaseSortKey(out[j], now.Location()))
		})
	case FilterProcessing:
		for _, r := range requests {
			if !strings.EqualFold(r.MediaStatus, "partially available") {
				out = append(out, r)
			}
		}
	default:
		out = append(out, requests...)
	}
	return out
}

func releaseDate(r models.RequestView) string {
	if r.ReleaseDate != "" {
		return r.ReleaseDate
	}
	return r.FirstAirDate
}

// isUpcoming compares calendar dates only. Without a date, a release year at
// or after the current one counts as upcoming.
func isUpcoming(r models.RequestView, today time.Time) bool {
	if date := releaseDate(r); date != "" {
		day, ok := civilDate(date, today.Location())
		return ok && day.After(today)
	}
	return r.Year > 0 && r.Year >= today.Year()
}

func isApprovedOrProcessing(r models.RequestView) bool {
	switch strings.ToLower(r.MediaStatus) {
	case "processing", "approved", "pending":
		return true
	}
	return r.Status == 2 || r.Status == 3
}

// releaseSortKey orders year-only items at January 1 and unknown dates first.
func releaseSortKey(r models.RequestView, loc *time.Location) time.Time {
	if date := releaseDate(r); date != "" {
		if day, ok := civilDate(date, loc); ok {
			return day
		}
		return time.Unix(0, 0)
	}
	if r.Year > 0 {
		return time.Date(r.Year, time.January, 1, 0, 0, 0, 0, loc)
	}
	return time.Unix(0, 0)
}
