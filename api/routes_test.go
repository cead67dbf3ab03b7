package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/api"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/config"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/handlers"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/models"
)

type staticSettings struct{ s config.Settings }

func (f staticSettings) Load() (config.Settings, error) { return f.s, nil }
func (f staticSettings) Save(config.Settings) error     { return nil }

type emptyQueue struct{}

func (emptyQueue) Queue(context.Context, config.ArrSettings) models.QueueResponse {
	return models.QueueResponse{Items: []models.QueueItem{}}
}

type noTasks struct{}

func (noTasks) GetTaskStatus() []config.ScheduledTask { return nil }
func (noTasks) RunTaskNow(string) error               { return nil }

func newRouter(token string) http.Handler {
	settings := staticSettings{s: config.DefaultSettings()}
	r := mux.NewRouter()
	api.Register(r,
		handlers.NewArrHandler(settings, emptyQueue{}, nil),
		handlers.NewScheduledTasksHandler(settings, noTasks{}),
		func() string { return token },
	)
	return api.WithCORS(r)
}

func TestAccessToken(t *testing.T) {
	h := newRouter("secret")

	cases := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong", api.TokenHeader, "nope", http.StatusUnauthorized},
		{"mediabrowser header", api.TokenHeader, "secret", http.StatusOK},
		{"bearer", "Authorization", "Bearer secret", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, api.BasePath+"/arr/queue", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestEmptyTokenDisablesAuth(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter("").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, api.BasePath+"/tasks", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, api.BasePath+"/arr/requests", nil)
	req.Header.Set("Origin", "http://jellyfin.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	newRouter("secret").ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Less(t, rec.Code, 300)
}
