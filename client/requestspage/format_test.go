package requestspage_test

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/client/requestspage"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{-5, "0 B"},
		{1023, "1023 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1572864, "1.5 MB"},
		{1 << 30, "1 GB"},
		{5 << 40, "5 TB"},
		{2048 << 40, "2048 TB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, requestspage.FormatBytes(tt.in), "bytes %d", tt.in)
	}
}

func TestFormatTimeRemaining(t *testing.T) {
	tests := map[string]string{
		"01:23:45":   "1h 23m",
		"00:05:10":   "5m",
		"2.03:00:00": "2d 3h",
		"0.05:00:00": "5h",
		"soon":       "soon",
		"":           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, requestspage.FormatTimeRemaining(in), in)
	}
}

func TestFormatRelativeDate(t *testing.T) {
	tests := map[string]string{
		"2026-10-14T11:59:30Z":     "just now",
		"2026-10-14T11:15:00.000Z": "45m ago",
		"2026-10-14T02:00:00Z":     "10h ago",
		"2026-10-04T12:00:00Z":     "10d ago",
		"2026-08-01T12:00:00Z":     "Aug 1, 2026",
		"2026-10-15T00:00:00Z":     "",
		"garbage":                  "",
		"":                         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, requestspage.FormatRelativeDate(in, testNow), in)
	}
}

func TestFormatRelativeReleaseDate(t *testing.T) {
	tests := map[string]string{
		"2026-10-14":           "today",
		"2026-10-15":           "tomorrow",
		"2026-10-19":           "in 5 days",
		"2026-10-21":           "in 7 days",
		"2026-10-25":           "in 2 weeks",
		"2026-10-29":           "in 2 weeks",
		"2026-11-05":           "in 3 weeks",
		"2026-11-13":           "in 4 weeks",
		"2026-12-01":           "on 1st December",
		"2026-11-22":           "on 22nd November",
		"2026-12-23":           "on 23rd December",
		"2027-01-11":           "on 11th January",
		"2027-02-28":           "on 28th February",
		"2026-10-20T23:00:00Z": "in 6 days",
	}
	for in, want := range tests {
		got, ok := requestspage.FormatRelativeReleaseDate(in, testNow)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"2026-10-13", "", "someday"} {
		_, ok := requestspage.FormatRelativeReleaseDate(in, testNow)
		assert.False(t, ok, in)
	}
}

func TestFormatDownloadStats(t *testing.T) {
	assert.Equal(t, "1 MB / 2 MB", requestspage.FormatDownloadStats(2<<20, 1<<20))
	assert.Equal(t, "0 B / 100 B", requestspage.FormatDownloadStats(100, 200))
	assert.Equal(t, "100 B / 100 B", requestspage.FormatDownloadStats(100, -5))
	assert.Equal(t, "", requestspage.FormatDownloadStats(0, 5))
}

// Download stats always report the real total and never more downloaded
// than the total.
func TestPropertyDownloadStatsBounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("stats end in the total", prop.ForAll(
		func(total, remaining int64) bool {
			got := requestspage.FormatDownloadStats(total, remaining)
			parts := strings.Split(got, " / ")
			return len(parts) == 2 && parts[1] == requestspage.FormatBytes(total)
		},
		gen.Int64Range(1, 1<<42),
		gen.Int64Range(-(1 << 42), 1<<43),
	))

	properties.Property("clamped remaining renders like the bounds", prop.ForAll(
		func(total, excess int64) bool {
			over := requestspage.FormatDownloadStats(total, total+excess)
			under := requestspage.FormatDownloadStats(total, -excess)
			return over == requestspage.FormatDownloadStats(total, total) &&
				under == requestspage.FormatDownloadStats(total, 0)
		},
		gen.Int64Range(1, 1<<40),
		gen.Int64Range(0, 1<<40),
	))

	properties.TestingRun(t)
}
