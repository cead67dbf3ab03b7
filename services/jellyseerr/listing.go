package jellyseerr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
)

const posterBaseURL = "https://image.tmdb.org/t/p/w300"

// Media status codes as reported by Jellyseerr.
const (
	MediaStatusUnknown            = 1
	MediaStatusPending            = 2
	MediaStatusProcessing         = 3
	MediaStatusPartiallyAvailable = 4
	MediaStatusAvailable          = 5
	MediaStatusDeleted            = 6
)

// Request status codes as reported by Jellyseerr.
const (
	RequestStatusPending  = 1
	RequestStatusApproved = 2
	RequestStatusDeclined = 3
)

// ListedRequest is one entry of GET /api/v1/request.
type ListedRequest struct {
	ID          int       `json:"id"`
	Status      int       `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	Type        string    `json:"type"`
	RequestedBy struct {
		DisplayName string `json:"displayName"`
		Avatar      string `json:"avatar"`
	} `json:"requestedBy"`
	Media struct {
		TmdbID          int    `json:"tmdbId"`
		MediaType       string `json:"mediaType"`
		Status          int    `json:"status"`
		JellyfinMediaID string `json:"jellyfinMediaId"`
	} `json:"media"`
}

// RequestList is a page of GET /api/v1/request.
type RequestList struct {
	PageInfo struct {
		Pages    int `json:"pages"`
		PageSize int `json:"pageSize"`
		Results  int `json:"results"`
		Page     int `json:"page"`
	} `json:"pageInfo"`
	Results []ListedRequest `json:"results"`
}

// MediaDetails is the subset of /api/v1/movie/{id} and /api/v1/tv/{id} used
// to render a request card.
type MediaDetails struct {
	Title        string `json:"title"`
	Name         string `json:"name"`
	PosterPath   string `json:"posterPath"`
	ReleaseDate  string `json:"releaseDate"`
	FirstAirDate string `json:"firstAirDate"`
}

// ListRequests returns one page of the global request list, newest first.
// An empty filter lists everything.
func (c *Client) ListRequests(ctx context.Context, take, skip int, filter string) (*RequestList, error) {
	q := url.Values{}
	q.Set("take", strconv.Itoa(take))
	q.Set("skip", strconv.Itoa(skip))
	q.Set("sort", "added")
	if filter = strings.TrimSpace(filter); filter != "" {
		q.Set("filter", filter)
	}

	body, err := c.getJSON(ctx, "/api/v1/request", q, "")
	if err != nil {
		return nil, err
	}
	var list RequestList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode request list: %w", err)
	}
	return &list, nil
}

// Details fetches title, poster and release dates for a request's media.
func (c *Client) Details(ctx context.Context, mediaType models.MediaType, tmdbID int) (*MediaDetails, error) {
	kind := "tv"
	if mediaType.IsMovie() {
		kind = "movie"
	}
	body, err := c.getJSON(ctx, "/api/v1/"+kind+"/"+strconv.Itoa(tmdbID), nil, "")
	if err != nil {
		return nil, err
	}
	var details MediaDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, fmt.Errorf("decode %s details: %w", kind, err)
	}
	return &details, nil
}

// RequestViews lists a page of requests and resolves each one's media
// details, at most four lookups at a time. A failed lookup leaves the card
// without title and artwork rather than failing the page.
func (c *Client) RequestViews(ctx context.Context, take, skip int, filter string) (models.RequestsPage, error) {
	list, err := c.ListRequests(ctx, take, skip, filter)
	if err != nil {
		return models.RequestsPage{}, err
	}

	views := make([]models.RequestView, len(list.Results))
	p := pool.New().WithMaxGoroutines(4)
	for i, req := range list.Results {
		p.Go(func() {
			view := baseView(req)
			if details, err := c.Details(ctx, models.MediaType(req.Media.MediaType), req.Media.TmdbID); err == nil {
				applyDetails(&view, details)
			}
			views[i] = view
		})
	}
	p.Wait()

	pages := list.PageInfo.Pages
	if pages < 1 {
		pages = 1
	}
	return models.RequestsPage{Requests: views, TotalPages: pages}, nil
}

func baseView(req ListedRequest) models.RequestView {
	view := models.RequestView{
		ID:                req.ID,
		Status:            req.Media.Status,
		MediaType:         req.Media.MediaType,
		MediaStatus:       MediaStatusLabel(req.Media.Status, req.Status),
		RequestedBy:       req.RequestedBy.DisplayName,
		RequestedByAvatar: req.RequestedBy.Avatar,
		JellyfinMediaID:   req.Media.JellyfinMediaID,
	}
	if !req.CreatedAt.IsZero() {
		view.CreatedAt = req.CreatedAt.UTC().Format(time.RFC3339)
	}
	return view
}

func applyDetails(view *models.RequestView, d *MediaDetails) {
	view.Title = d.Title
	if view.Title == "" {
		view.Title = d.Name
	}
	if d.PosterPath != "" {
		view.PosterURL = posterBaseURL + d.PosterPath
	}
	view.ReleaseDate = d.ReleaseDate
	view.FirstAirDate = d.FirstAirDate
	date := d.ReleaseDate
	if date == "" {
		date = d.FirstAirDate
	}
	if len(date) >= 4 {
		if year, err := strconv.Atoi(date[:4]); err == nil {
			view.Year = year
		}
	}
}

// MediaStatusLabel turns Jellyseerr status codes into the label shown on a
// request card. Media availability wins over the request's approval state;
// a declined request is reported as such regardless of media status.
func MediaStatusLabel(mediaStatus, requestStatus int) string {
	if requestStatus == RequestStatusDeclined {
		return "Declined"
	}
	switch mediaStatus {
	case MediaStatusAvailable:
		return "Available"
	case MediaStatusPartiallyAvailable:
		return "Partially Available"
	case MediaStatusProcessing:
		return "Processing"
	case MediaStatusDeleted:
		return "Deleted"
	}
	switch requestStatus {
	case RequestStatusApproved:
		return "Approved"
	case RequestStatusPending:
		return "Pending"
	}
	return "Unknown"
}
