package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/handlers"
)

// BasePath is where the plugin API is mounted.
const BasePath = "/JellyfinEnhanced"

// TokenHeader carries the client's access token.
const TokenHeader = "X-MediaBrowser-Token"

// TokenSource returns the access token currently configured. An empty token
// disables authentication.
type TokenSource func() string

// AccessTokenMiddleware accepts the token from X-MediaBrowser-Token or an
// Authorization bearer header.
func AccessTokenMiddleware(token TokenSource) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			want := token()
			if want == "" {
				next.ServeHTTP(w, r)
				return
			}
			got := r.Header.Get(TokenHeader)
			if got == "" {
				if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
					got = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
				}
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	arrHandler *handlers.ArrHandler,
	tasksHandler *handlers.ScheduledTasksHandler,
	token TokenSource,
) {
	api := r.PathPrefix(BasePath).Subrouter()
	api.Use(AccessTokenMiddleware(token))

	api.HandleFunc("/arr/queue", arrHandler.Queue).Methods(http.MethodGet)
	api.HandleFunc("/arr/queue", handlers.Options).Methods(http.MethodOptions)
	api.HandleFunc("/arr/requests", arrHandler.Requests).Methods(http.MethodGet)
	api.HandleFunc("/arr/requests", handlers.Options).Methods(http.MethodOptions)

	api.HandleFunc("/tasks", tasksHandler.ListTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks", handlers.Options).Methods(http.MethodOptions)
	api.HandleFunc("/tasks/{taskID}", tasksHandler.UpdateTask).Methods(http.MethodPut)
	api.HandleFunc("/tasks/{taskID}", handlers.Options).Methods(http.MethodOptions)
	api.HandleFunc("/tasks/{taskID}/run", tasksHandler.RunTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{taskID}/run", handlers.Options).Methods(http.MethodOptions)
}

// WithCORS wraps the router so browser clients on other origins can call it.
func WithCORS(h http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler(h)
}
