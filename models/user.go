package models

// User is a local library account as exposed by the host.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// JellyseerrUser is an account in the request service. JellyfinUserID links
// it to a local user; the host formats ids with hyphens, Jellyseerr does not.
type JellyseerrUser struct {
	ID             int    `json:"id"`
	JellyfinUserID string `json:"jellyfinUserId"`
	DisplayName    string `json:"displayName,omitempty"`
}
