package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/config"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/jellyseerr"
)

const (
	defaultRequestsTake = 20
	maxRequestsTake     = 100
)

type settingsLoader interface {
	Load() (config.Settings, error)
}

type queueReader interface {
	Queue(ctx context.Context, settings config.ArrSettings) models.QueueResponse
}

// RequestLister lists request cards from the request service.
type RequestLister interface {
	RequestViews(ctx context.Context, take, skip int, filter string) (models.RequestsPage, error)
}

// RequestListerFactory builds a lister from the current Jellyseerr settings.
type RequestListerFactory func(settings config.JellyseerrSettings) (RequestLister, error)

// NewJellyseerrLister is the production RequestListerFactory.
func NewJellyseerrLister(s config.JellyseerrSettings) (RequestLister, error) {
	return jellyseerr.NewClient(s.BaseURL(), s.APIKey, s.Timeout(), jellyseerr.WithRetryAttempts(s.RetryAttempts))
}

// ArrHandler serves the downloads and requests page data.
type ArrHandler struct {
	settings  settingsLoader
	queue     queueReader
	newLister RequestListerFactory
}

func NewArrHandler(settings settingsLoader, queue queueReader, newLister RequestListerFactory) *ArrHandler {
	if newLister == nil {
		newLister = NewJellyseerrLister
	}
	return &ArrHandler{settings: settings, queue: queue, newLister: newLister}
}

// Queue returns the merged Sonarr and Radarr queue.
// GET /JellyfinEnhanced/arr/queue
func (h *ArrHandler) Queue(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Load()
	if err != nil {
		writeJSONError(w, "failed to load settings", http.StatusInternalServerError)
		return
	}
	if !settings.Downloads.PageEnabled {
		writeJSONError(w, "downloads page is disabled", http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusOK, h.queue.Queue(r.Context(), settings.Arr))
}

// Requests returns one page of Jellyseerr requests.
// GET /JellyfinEnhanced/arr/requests?take=&skip=&filter=
func (h *ArrHandler) Requests(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Load()
	if err != nil {
		writeJSONError(w, "failed to load settings", http.StatusInternalServerError)
		return
	}
	if !settings.Downloads.PageEnabled {
		writeJSONError(w, "downloads page is disabled", http.StatusForbidden)
		return
	}

	js := settings.Jellyseerr
	if !js.Enabled || strings.TrimSpace(js.APIKey) == "" || js.BaseURL() == "" {
		writeJSONError(w, "jellyseerr is not configured", http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query()
	take := parseBoundedInt(q.Get("take"), defaultRequestsTake, 1, maxRequestsTake)
	skip := parseBoundedInt(q.Get("skip"), 0, 0, 1<<20)
	filter := strings.TrimSpace(q.Get("filter"))
	if filter == "all" {
		filter = ""
	}

	lister, err := h.newLister(js)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	page, err := lister.RequestViews(r.Context(), take, skip, filter)
	if err != nil {
		log.Printf("[arr] Failed to list Jellyseerr requests: %v", err)
		status := http.StatusBadGateway
		if errors.Is(err, context.Canceled) {
			status = http.StatusRequestTimeout
		}
		writeJSONError(w, "failed to fetch requests", status)
		return
	}
	if page.Requests == nil {
		page.Requests = []models.RequestView{}
	}
	writeJSON(w, http.StatusOK, page)
}

func parseBoundedInt(raw string, def, min, max int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
