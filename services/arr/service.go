// Package arr reads the download queues of Sonarr and Radarr and flattens
// them into the items shown on the requests page.
package arr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sourcegraph/conc"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/config"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
)

const (
	SourceSonarr = "sonarr"
	SourceRadarr = "radarr"
)

// Queue statuses as shown to clients.
const (
	StatusDownloading = "Downloading"
	StatusImporting   = "Importing"
	StatusQueued      = "Queued"
	StatusPaused      = "Paused"
	StatusDelayed     = "Delayed"
	StatusWarning     = "Warning"
	StatusFailed      = "Failed"
	StatusUnknown     = "Unknown"
)

var ErrNotConfigured = errors.New("arr instance not configured")

type image struct {
	CoverType string `json:"coverType"`
	RemoteURL string `json:"remoteUrl"`
	URL       string `json:"url"`
}

type queueRecord struct {
	Title                 string  `json:"title"`
	Status                string  `json:"status"`
	TrackedDownloadStatus string  `json:"trackedDownloadStatus"`
	TrackedDownloadState  string  `json:"trackedDownloadState"`
	Size                  float64 `json:"size"`
	SizeLeft              float64 `json:"sizeleft"`
	TimeLeft              string  `json:"timeleft"`
	SeasonNumber          *int    `json:"seasonNumber"`
	Series                *struct {
		Title  string  `json:"title"`
		Images []image `json:"images"`
	} `json:"series"`
	Episode *struct {
		Title         string `json:"title"`
		SeasonNumber  int    `json:"seasonNumber"`
		EpisodeNumber int    `json:"episodeNumber"`
	} `json:"episode"`
	Movie *struct {
		Title  string  `json:"title"`
		Year   int     `json:"year"`
		Images []image `json:"images"`
	} `json:"movie"`
}

type queuePage struct {
	Records []queueRecord `json:"records"`
}

// Service fetches both queues.
type Service struct {
	httpClient *http.Client
	attempts   uint
	logger     *log.Logger
}

// NewService creates a queue reader.
func NewService(timeout time.Duration, attempts int, logger *log.Logger) *Service {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		httpClient: &http.Client{Timeout: timeout},
		attempts:   uint(attempts),
		logger:     logger,
	}
}

// Queue returns Sonarr items followed by Radarr items. A source that is not
// configured or fails contributes nothing.
func (s *Service) Queue(ctx context.Context, settings config.ArrSettings) models.QueueResponse {
	var sonarrItems, radarrItems []models.QueueItem

	var wg conc.WaitGroup
	wg.Go(func() {
		items, err := s.SonarrQueue(ctx, settings.Sonarr)
		if err != nil && !errors.Is(err, ErrNotConfigured) {
			s.logger.Printf("[arr] Failed to fetch Sonarr queue: %v", err)
		}
		sonarrItems = items
	})
	wg.Go(func() {
		items, err := s.RadarrQueue(ctx, settings.Radarr)
		if err != nil && !errors.Is(err, ErrNotConfigured) {
			s.logger.Printf("[arr] Failed to fetch Radarr queue: %v", err)
		}
		radarrItems = items
	})
	wg.Wait()

	items := make([]models.QueueItem, 0, len(sonarrItems)+len(radarrItems))
	items = append(items, sonarrItems...)
	items = append(items, radarrItems...)
	return models.QueueResponse{Items: items}
}

// SonarrQueue reads the Sonarr queue with series and episode details.
func (s *Service) SonarrQueue(ctx context.Context, inst config.ArrInstance) ([]models.QueueItem, error) {
	page, err := s.fetch(ctx, inst, "/api/v3/queue?includeSeries=true&includeEpisode=true&pageSize=1000")
	if err != nil {
		return nil, err
	}
	items := make([]models.QueueItem, 0, len(page.Records))
	for _, rec := range page.Records {
		item := baseItem(SourceSonarr, rec)
		if rec.Series != nil {
			item.Title = rec.Series.Title
			item.PosterURL = poster(rec.Series.Images)
		}
		if rec.Episode != nil {
			season, episode := rec.Episode.SeasonNumber, rec.Episode.EpisodeNumber
			item.SeasonNumber = &season
			item.EpisodeNumber = &episode
			item.Subtitle = fmt.Sprintf("S%02dE%02d - %s", season, episode, rec.Episode.Title)
		} else if rec.SeasonNumber != nil {
			season := *rec.SeasonNumber
			item.SeasonNumber = &season
		}
		if item.Title == "" {
			item.Title = rec.Title
		}
		items = append(items, item)
	}
	return items, nil
}

// RadarrQueue reads the Radarr queue with movie details.
func (s *Service) RadarrQueue(ctx context.Context, inst config.ArrInstance) ([]models.QueueItem, error) {
	page, err := s.fetch(ctx, inst, "/api/v3/queue?includeMovie=true&pageSize=1000")
	if err != nil {
		return nil, err
	}
	items := make([]models.QueueItem, 0, len(page.Records))
	for _, rec := range page.Records {
		item := baseItem(SourceRadarr, rec)
		if rec.Movie != nil {
			item.Title = rec.Movie.Title
			if rec.Movie.Year > 0 {
				item.Subtitle = fmt.Sprintf("%d", rec.Movie.Year)
			}
			item.PosterURL = poster(rec.Movie.Images)
		}
		if item.Title == "" {
			item.Title = rec.Title
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) fetch(ctx context.Context, inst config.ArrInstance, endpoint string) (*queuePage, error) {
	if !inst.Configured() {
		return nil, ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(strings.TrimSpace(inst.URL), "/")+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", inst.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := retry.DoWithData(
		func() (*http.Response, error) { return s.httpClient.Do(req) },
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(250*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("queue request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("queue returned status %d: %s", resp.StatusCode, string(body))
	}

	var page queuePage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode queue: %w", err)
	}
	return &page, nil
}

func baseItem(source string, rec queueRecord) models.QueueItem {
	return models.QueueItem{
		Source:        source,
		Title:         rec.Title,
		Status:        MapStatus(rec.Status, rec.TrackedDownloadStatus, rec.TrackedDownloadState),
		Progress:      Progress(rec.Size, rec.SizeLeft),
		TimeRemaining: rec.TimeLeft,
		TotalSize:     int64(rec.Size),
		SizeRemaining: int64(rec.SizeLeft),
	}
}

// MapStatus folds the queue's download status and tracked state into a
// display status. Import states win, then failures and warnings.
func MapStatus(status, trackedStatus, trackedState string) string {
	switch strings.ToLower(trackedState) {
	case "importpending", "importing", "importblocked":
		return StatusImporting
	case "failedpending", "failed":
		return StatusFailed
	}
	switch strings.ToLower(status) {
	case "downloading":
		if strings.EqualFold(trackedStatus, "warning") {
			return StatusWarning
		}
		return StatusDownloading
	case "completed":
		return StatusImporting
	case "queued":
		return StatusQueued
	case "paused":
		return StatusPaused
	case "delay":
		return StatusDelayed
	case "warning":
		return StatusWarning
	case "failed":
		return StatusFailed
	}
	if strings.EqualFold(trackedStatus, "warning") {
		return StatusWarning
	}
	return StatusUnknown
}

// Progress is the downloaded share as a whole percentage.
func Progress(size, sizeLeft float64) float64 {
	if size <= 0 {
		return 0
	}
	done := size - sizeLeft
	if done < 0 {
		done = 0
	}
	return math.Round(done / size * 100)
}

func poster(images []image) string {
	for _, img := range images {
		if strings.EqualFold(img.CoverType, "poster") {
			if img.RemoteURL != "" {
				return img.RemoteURL
			}
			return img.URL
		}
	}
	return ""
}
