package requestspage

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	clockPattern    = regexp.MustCompile(`^(\d+):(\d+):(\d+)$`)
	dayClockPattern = regexp.MustCompile(`^(\d+)\.(\d+):(\d+):(\d+)$`)
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders a size with binary units and at most one decimal.
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	i, unit := 0, int64(1)
	for i < len(byteUnits)-1 && n >= unit*1024 {
		i++
		unit *= 1024
	}
	v := math.Round(float64(n)/float64(unit)*10) / 10
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + byteUnits[i]
}

// FormatTimeRemaining shortens the queue's "HH:MM:SS" and "D.HH:MM:SS"
// values. Anything else is returned unchanged.
func FormatTimeRemaining(s string) string {
	if s == "" {
		return ""
	}
	if m := clockPattern.FindStringSubmatch(s); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		if hours > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dm", minutes)
	}
	if m := dayClockPattern.FindStringSubmatch(s); m != nil {
		days, _ := strconv.Atoi(m[1])
		hours, _ := strconv.Atoi(m[2])
		if days > 0 {
			return fmt.Sprintf("%dd %dh", days, hours)
		}
		return fmt.Sprintf("%dh", hours)
	}
	return s
}

// FormatRelativeDate describes how long ago a timestamp was. Future or
// unparsable values render as "".
func FormatRelativeDate(s string, now time.Time) string {
	if s == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return ""
	}
	diff := now.Sub(t)
	if diff < 0 {
		return ""
	}
	switch minutes := int(diff / time.Minute); {
	case minutes < 1:
		return "just now"
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	case diff < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff/(24*time.Hour)))
	}
	return t.In(now.Location()).Format("Jan 2, 2006")
}

// FormatRelativeReleaseDate renders the coming-soon badge for a release
// date. ok is false for past or unparsable dates.
func FormatRelativeReleaseDate(s string, now time.Time) (string, bool) {
	day, ok := civilDate(s, now.Location())
	if !ok {
		return "", false
	}
	days := int(math.Round(day.Sub(midnight(now)).Hours() / 24))

	switch {
	case days < 0:
		return "", false
	case days == 0:
		return "today", true
	case days == 1:
		return "tomorrow", true
	case days <= 7:
		return fmt.Sprintf("in %d days", days), true
	case days <= 14:
		return "in 2 weeks", true
	case days <= 30:
		return fmt.Sprintf("in %d weeks", days/7), true
	}
	return "on " + strconv.Itoa(day.Day()) + ordinalSuffix(day.Day()) + " " + day.Month().String(), true
}

func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}

// FormatDownloadStats renders "downloaded / total", clamping the remaining
// size into [0, total].
func FormatDownloadStats(total, remaining int64) string {
	if total <= 0 {
		return ""
	}
	remaining = max(0, min(total, remaining))
	downloaded := max(0, min(total, total-remaining))
	return FormatBytes(downloaded) + " / " + FormatBytes(total)
}

// civilDate parses a date-only ("2006-01-02") or RFC 3339 value and returns
// its midnight in loc. Date-only values are taken as calendar dates.
func civilDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return midnight(t.In(loc)), true
	}
	return time.Time{}, false
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
