package requestsync

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/afero"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/config"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/jellyfin"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/library"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/pending"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/reconciler"
)

var ErrJellyfinNotConfigured = errors.New("jellyfin url or api key not configured")

// Build wires a production orchestrator against the Jellyfin server and the
// pending store under the storage directory.
func Build(settings config.Settings, fs afero.Fs, logger *log.Logger) (*Orchestrator, error) {
	jf := settings.Jellyfin
	if strings.TrimSpace(jf.URL) == "" || strings.TrimSpace(jf.APIKey) == "" {
		return nil, ErrJellyfinNotConfigured
	}
	host, err := jellyfin.NewClient(jf.URL, jf.APIKey, settings.Jellyseerr.Timeout(), settings.Jellyseerr.RetryAttempts)
	if err != nil {
		return nil, fmt.Errorf("jellyfin client: %w", err)
	}
	store, err := pending.NewStore(fs, settings.Storage.Directory)
	if err != nil {
		return nil, fmt.Errorf("pending store: %w", err)
	}
	rec := reconciler.New(library.NewMatcher(host), store, host, logger)
	return New(settings.Jellyseerr, host, rec, WithLogger(logger)), nil
}
