package requestspage

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
)

// seasonPackMin is the smallest episode group shown as one season card.
const seasonPackMin = 3

// Renderer paints a page snapshot.
type Renderer interface {
	Render(View)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(View)

func (f RendererFunc) Render(v View) { f(v) }

// View is an immutable snapshot of everything on screen.
type View struct {
	Loading bool

	Downloads        []DownloadCard
	DownloadsMessage string

	RequestsEnabled bool
	Tabs            []Tab
	Requests        []RequestCard
	RequestsMessage string
	Pagination      *Pagination
}

type Tab struct {
	Filter Filter
	Label  string
	Active bool
}

type Pagination struct {
	Page        int
	TotalPages  int
	Label       string
	PrevEnabled bool
	NextEnabled bool
}

// DownloadCard is one queue entry or a grouped season.
type DownloadCard struct {
	Source       string
	SourceLabel  string
	Title        string
	Subtitle     string
	Status       string
	Progress     float64
	ETA          string
	Stats        string
	PosterURL    string
	SeasonPack   bool
	EpisodeRange string
	EpisodeCount int
}

type RequestCard struct {
	ID              int
	Title           string
	Year            int
	PosterURL       string
	MediaType       string
	StatusLabel     string
	StatusClass     string
	RequestedBy     string
	RequestedAvatar string
	Requested       string
	ReleaseBadge    string
	JellyfinMediaID string
	Watchable       bool
}

// DownloadGroup is either a single queue item or a season worth of episodes.
type DownloadGroup struct {
	Item         models.QueueItem
	SeasonPack   bool
	Episodes     []models.QueueItem
	EpisodeRange string
}

// GroupDownloads folds Sonarr episodes that share a series, season and
// progress into season packs. Ungrouped items keep their order and come
// first.
func GroupDownloads(items []models.QueueItem) []DownloadGroup {
	var (
		singles []DownloadGroup
		keys    []string
		groups  = make(map[string][]models.QueueItem)
	)
	for _, item := range items {
		if item.Source != "sonarr" || item.SeasonNumber == nil {
			singles = append(singles, DownloadGroup{Item: item})
			continue
		}
		key := item.Title + "|" + strconv.Itoa(*item.SeasonNumber) + "|" + strconv.FormatFloat(item.Progress, 'f', -1, 64)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], item)
	}

	out := singles
	for _, key := range keys {
		episodes := groups[key]
		if len(episodes) < seasonPackMin {
			for _, ep := range episodes {
				out = append(out, DownloadGroup{Item: ep})
			}
			continue
		}
		out = append(out, DownloadGroup{
			Item:         episodes[0],
			SeasonPack:   true,
			Episodes:     episodes,
			EpisodeRange: episodeRange(episodes),
		})
	}
	return out
}

func episodeRange(episodes []models.QueueItem) string {
	var numbers []int
	for _, ep := range episodes {
		if ep.EpisodeNumber != nil {
			numbers = append(numbers, *ep.EpisodeNumber)
		}
	}
	if len(numbers) == 0 {
		return ""
	}
	sort.Ints(numbers)
	return fmt.Sprintf("E%02d-E%02d", numbers[0], numbers[len(numbers)-1])
}

// packSizes uses the first episode's sizes when every episode reports the
// same ones (one download for the whole season), and sums them otherwise.
func packSizes(episodes []models.QueueItem) (total, remaining int64) {
	first := episodes[0]
	shared := true
	for _, ep := range episodes {
		if ep.TotalSize != first.TotalSize || ep.SizeRemaining != first.SizeRemaining {
			shared = false
			break
		}
	}
	if shared {
		return first.TotalSize, first.SizeRemaining
	}
	for _, ep := range episodes {
		total += ep.TotalSize
		remaining += ep.SizeRemaining
	}
	return total, remaining
}

func sourceLabel(source string) string {
	if source == "sonarr" {
		return "Sonarr"
	}
	return "Radarr"
}

func downloadCard(g DownloadGroup) DownloadCard {
	item := g.Item
	card := DownloadCard{
		Source:      item.Source,
		SourceLabel: sourceLabel(item.Source),
		Title:       item.Title,
		Subtitle:    item.Subtitle,
		Status:      item.Status,
		Progress:    item.Progress,
		ETA:         FormatTimeRemaining(item.TimeRemaining),
		PosterURL:   item.PosterURL,
	}
	if card.Title == "" {
		card.Title = "Unknown"
	}
	total, remaining := item.TotalSize, item.SizeRemaining
	if g.SeasonPack {
		total, remaining = packSizes(g.Episodes)
		card.SeasonPack = true
		card.EpisodeRange = g.EpisodeRange
		card.EpisodeCount = len(g.Episodes)
		card.Subtitle = fmt.Sprintf("Season %d (%d episodes)", *item.SeasonNumber, len(g.Episodes))
	}
	card.Stats = FormatDownloadStats(total, remaining)
	return card
}

// ResolveRequestStatus maps a media status to its chip label and class.
func ResolveRequestStatus(status string) (label, class string) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "available":
		return "Available", "je-chip-available"
	case "partially available":
		return "Partially Available", "je-chip-partial"
	case "processing":
		return "Processing", "je-chip-processing"
	case "approved":
		return "Requested", "je-chip-requested"
	case "pending":
		return "Pending Approval", "je-chip-requested"
	case "declined":
		return "Rejected", "je-chip-rejected"
	}
	if status == "" {
		return "Requested", "je-chip-requested"
	}
	return status, "je-chip-requested"
}

// ReleaseBadge is the coming-soon badge text, falling back to the release
// year when no full date is known.
func ReleaseBadge(r models.RequestView, now time.Time) string {
	if text, ok := FormatRelativeReleaseDate(releaseDate(r), now); ok {
		return text
	}
	if r.Year > 0 && r.Year >= now.Year() {
		return strconv.Itoa(r.Year)
	}
	return ""
}

func requestCard(r models.RequestView, withBadge bool, now time.Time) RequestCard {
	label, class := ResolveRequestStatus(r.MediaStatus)
	card := RequestCard{
		ID:              r.ID,
		Title:           r.Title,
		Year:            r.Year,
		PosterURL:       r.PosterURL,
		MediaType:       r.MediaType,
		StatusLabel:     label,
		StatusClass:     class,
		RequestedBy:     r.RequestedBy,
		RequestedAvatar: r.RequestedByAvatar,
		Requested:       FormatRelativeDate(r.CreatedAt, now),
		JellyfinMediaID: r.JellyfinMediaID,
		Watchable:       r.JellyfinMediaID != "" && (r.MediaStatus == "Available" || r.MediaStatus == "Partially Available"),
	}
	if withBadge {
		card.ReleaseBadge = ReleaseBadge(r, now)
	}
	return card
}

type viewState struct {
	loading         bool
	requestsEnabled bool
	filter          Filter
	page            int
	totalPages      int
	downloads       []models.QueueItem
	requests        []models.RequestView
}

func buildView(s viewState, now time.Time) View {
	v := View{Loading: s.loading, RequestsEnabled: s.requestsEnabled}

	switch {
	case len(s.downloads) == 0 && s.loading:
		v.DownloadsMessage = "Loading..."
	case len(s.downloads) == 0:
		v.DownloadsMessage = "No active downloads"
	default:
		for _, g := range GroupDownloads(s.downloads) {
			v.Downloads = append(v.Downloads, downloadCard(g))
		}
	}

	if !s.requestsEnabled {
		return v
	}
	for _, f := range Filters {
		v.Tabs = append(v.Tabs, Tab{Filter: f, Label: f.label(), Active: f == s.filter})
	}
	switch {
	case len(s.requests) == 0 && s.loading:
		v.RequestsMessage = "Loading..."
	case len(s.requests) == 0 && s.filter == FilterComingSoon:
		v.RequestsMessage = "No upcoming releases in your requests"
	case len(s.requests) == 0:
		v.RequestsMessage = "No requests found"
	default:
		badges := s.filter == FilterComingSoon
		for _, r := range s.requests {
			v.Requests = append(v.Requests, requestCard(r, badges, now))
		}
		if s.totalPages > 1 {
			v.Pagination = &Pagination{
				Page:        s.page,
				TotalPages:  s.totalPages,
				Label:       fmt.Sprintf("Page %d of %d", s.page, s.totalPages),
				PrevEnabled: s.page > 1,
				NextEnabled: s.page < s.totalPages,
			}
		}
	}
	return v
}
