package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSyncDisabled            = errors.New("jellyseerr request sync is disabled")
	ErrJellyseerrNotConfigured = errors.New("jellyseerr url or api key not configured")
	ErrNoJellyseerrURL         = errors.New("no valid jellyseerr url found")
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server         ServerSettings         `json:"server"`
	Jellyseerr     JellyseerrSettings     `json:"jellyseerr"`
	Jellyfin       JellyfinSettings       `json:"jellyfin"`
	Arr            ArrSettings            `json:"arr"`
	Downloads      DownloadsSettings      `json:"downloads"`
	Storage        StorageSettings        `json:"storage"`
	Log            LogConfig              `json:"log"`
	ScheduledTasks ScheduledTasksSettings `json:"scheduledTasks,omitempty"`
}

type ServerSettings struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	AccessToken string `json:"accessToken"`
}

// JellyseerrSettings configures the request service the sync reads from.
type JellyseerrSettings struct {
	Enabled        bool   `json:"enabled"`
	SyncRequests   bool   `json:"syncRequests"`
	URLs           string `json:"urls"` // newline separated, first entry wins
	APIKey         string `json:"apiKey"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
	RetryAttempts  int    `json:"retryAttempts"` // transport errors only, status codes are never retried
}

// BaseURL returns the first non-empty configured URL without a trailing slash.
func (j JellyseerrSettings) BaseURL() string {
	for _, line := range strings.FieldsFunc(j.URLs, func(r rune) bool { return r == '\r' || r == '\n' }) {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return strings.TrimRight(trimmed, "/")
		}
	}
	return ""
}

// Validate checks the preconditions of a sync run, in the order they are
// reported to the operator.
func (j JellyseerrSettings) Validate() error {
	if !j.Enabled || !j.SyncRequests {
		return ErrSyncDisabled
	}
	if strings.TrimSpace(j.URLs) == "" || strings.TrimSpace(j.APIKey) == "" {
		return ErrJellyseerrNotConfigured
	}
	if j.BaseURL() == "" {
		return ErrNoJellyseerrURL
	}
	return nil
}

// Timeout returns the per-call HTTP timeout.
func (j JellyseerrSettings) Timeout() time.Duration {
	if j.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(j.TimeoutSeconds) * time.Second
}

// JellyfinSettings points at the host library and user API.
type JellyfinSettings struct {
	URL    string `json:"url"`
	APIKey string `json:"apiKey"`
}

type ArrInstance struct {
	URL    string `json:"url"`
	APIKey string `json:"apiKey"`
}

// Configured reports whether both url and key are present.
func (a ArrInstance) Configured() bool {
	return strings.TrimSpace(a.URL) != "" && strings.TrimSpace(a.APIKey) != ""
}

type ArrSettings struct {
	Sonarr ArrInstance `json:"sonarr"`
	Radarr ArrInstance `json:"radarr"`
}

// DownloadsSettings controls the requests page served to clients.
type DownloadsSettings struct {
	PageEnabled         bool `json:"pageEnabled"`
	PollIntervalSeconds int  `json:"pollIntervalSeconds"`
}

// PollInterval returns the client refresh interval, defaulting to 30s.
func (d DownloadsSettings) PollInterval() time.Duration {
	if d.PollIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(d.PollIntervalSeconds) * time.Second
}

type StorageSettings struct {
	Directory string `json:"directory"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	File       string `json:"file"`
	Level      string `json:"level"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// ScheduledTaskType defines the type of scheduled task
type ScheduledTaskType string

const (
	ScheduledTaskTypeJellyseerrRequestsSync ScheduledTaskType = "jellyseerr_requests_sync"
)

// ScheduledTaskFrequency defines how often a task runs
type ScheduledTaskFrequency string

const (
	ScheduledTaskFrequency1Min    ScheduledTaskFrequency = "1min"
	ScheduledTaskFrequency5Min    ScheduledTaskFrequency = "5min"
	ScheduledTaskFrequency15Min   ScheduledTaskFrequency = "15min"
	ScheduledTaskFrequency30Min   ScheduledTaskFrequency = "30min"
	ScheduledTaskFrequencyHourly  ScheduledTaskFrequency = "hourly"
	ScheduledTaskFrequency6Hours  ScheduledTaskFrequency = "6hours"
	ScheduledTaskFrequency12Hours ScheduledTaskFrequency = "12hours"
	ScheduledTaskFrequencyDaily   ScheduledTaskFrequency = "daily"
)

// Interval returns the duration for a frequency; unknown values run daily.
func (f ScheduledTaskFrequency) Interval() time.Duration {
	switch f {
	case ScheduledTaskFrequency1Min:
		return 1 * time.Minute
	case ScheduledTaskFrequency5Min:
		return 5 * time.Minute
	case ScheduledTaskFrequency15Min:
		return 15 * time.Minute
	case ScheduledTaskFrequency30Min:
		return 30 * time.Minute
	case ScheduledTaskFrequencyHourly:
		return 1 * time.Hour
	case ScheduledTaskFrequency6Hours:
		return 6 * time.Hour
	case ScheduledTaskFrequency12Hours:
		return 12 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// ScheduledTaskStatus represents the last run status
type ScheduledTaskStatus string

const (
	ScheduledTaskStatusPending ScheduledTaskStatus = "pending"
	ScheduledTaskStatusRunning ScheduledTaskStatus = "running"
	ScheduledTaskStatusSuccess ScheduledTaskStatus = "success"
	ScheduledTaskStatusError   ScheduledTaskStatus = "error"
)

// ScheduledTask represents a single scheduled task configuration
type ScheduledTask struct {
	ID            string                 `json:"id"`
	Type          ScheduledTaskType      `json:"type"`
	Name          string                 `json:"name"`
	Enabled       bool                   `json:"enabled"`
	Frequency     ScheduledTaskFrequency `json:"frequency"`
	LastRunAt     *time.Time             `json:"lastRunAt,omitempty"`
	LastStatus    ScheduledTaskStatus    `json:"lastStatus"`
	LastError     string                 `json:"lastError,omitempty"`
	ItemsImported int                    `json:"itemsImported,omitempty"`
	Progress      float64                `json:"progress,omitempty"` // only populated while running
	CreatedAt     time.Time              `json:"createdAt"`
}

// ScheduledTasksSettings contains all scheduled task configurations
type ScheduledTasksSettings struct {
	Tasks                []ScheduledTask `json:"tasks"`
	CheckIntervalSeconds int             `json:"checkIntervalSeconds"` // How often scheduler checks for due tasks (default: 60)
}

// DefaultSettings returns sane defaults for a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Server:     ServerSettings{Host: "0.0.0.0", Port: 8096},
		Jellyseerr: JellyseerrSettings{TimeoutSeconds: 30, RetryAttempts: 2},
		Downloads:  DownloadsSettings{PageEnabled: true, PollIntervalSeconds: 30},
		Storage:    StorageSettings{Directory: "cache"},
		Log: LogConfig{
			File:       "cache/logs/backend.log",
			Level:      "info",
			MaxSize:    50, // 50 MB per file
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
		ScheduledTasks: ScheduledTasksSettings{
			Tasks: []ScheduledTask{{
				ID:         uuid.NewString(),
				Type:       ScheduledTaskTypeJellyseerrRequestsSync,
				Name:       "Sync Jellyseerr Requests to Watchlist",
				Enabled:    true,
				Frequency:  ScheduledTaskFrequencyDaily,
				LastStatus: ScheduledTaskStatusPending,
				CreatedAt:  time.Now().UTC(),
			}},
			CheckIntervalSeconds: 60,
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings.json from disk or creates defaults if missing.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}
	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	s := DefaultSettings()
	// An explicit task list in the file replaces the default one.
	s.ScheduledTasks.Tasks = nil
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return Settings{}, err
	}

	if s.ScheduledTasks.CheckIntervalSeconds <= 0 {
		s.ScheduledTasks.CheckIntervalSeconds = 60
	}
	if strings.TrimSpace(s.Storage.Directory) == "" {
		s.Storage.Directory = "cache"
	}
	// Task ids must be stable across loads, so a seeded task is persisted.
	if len(s.ScheduledTasks.Tasks) == 0 {
		s.ScheduledTasks.Tasks = DefaultSettings().ScheduledTasks.Tasks
		if err := m.Save(s); err != nil {
			return Settings{}, err
		}
	}

	return s, nil
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}
