package models

// RequestView is the client projection of a request served by /arr/requests.
type RequestView struct {
	ID                int    `json:"id,omitempty"`
	Title             string `json:"title"`
	Year              int    `json:"year,omitempty"`
	PosterURL         string `json:"posterUrl,omitempty"`
	MediaStatus       string `json:"mediaStatus"`
	Status            int    `json:"status,omitempty"` // media status code: 2 pending, 3 processing, 5 available
	MediaType         string `json:"mediaType,omitempty"`
	RequestedBy       string `json:"requestedBy,omitempty"`
	RequestedByAvatar string `json:"requestedByAvatar,omitempty"`
	CreatedAt         string `json:"createdAt,omitempty"`
	ReleaseDate       string `json:"releaseDate,omitempty"`
	FirstAirDate      string `json:"firstAirDate,omitempty"`
	JellyfinMediaID   string `json:"jellyfinMediaId,omitempty"`
}

// RequestsPage is the /arr/requests response body.
type RequestsPage struct {
	Requests   []RequestView `json:"requests"`
	TotalPages int           `json:"totalPages"`
}

// QueueItem is a single in-progress download from Sonarr or Radarr.
type QueueItem struct {
	Source        string  `json:"source"` // sonarr | radarr
	Title         string  `json:"title"`
	Subtitle      string  `json:"subtitle,omitempty"`
	Status        string  `json:"status"`
	Progress      float64 `json:"progress"`
	TimeRemaining string  `json:"timeRemaining,omitempty"`
	TotalSize     int64   `json:"totalSize,omitempty"`
	SizeRemaining int64   `json:"sizeRemaining,omitempty"`
	PosterURL     string  `json:"posterUrl,omitempty"`
	SeasonNumber  *int    `json:"seasonNumber,omitempty"`
	EpisodeNumber *int    `json:"episodeNumber,omitempty"`
}

// QueueResponse is the /arr/queue response body.
type QueueResponse struct {
	Items []QueueItem `json:"items"`
}
