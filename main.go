package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/api"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/config"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/handlers"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/arr"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/requestsync"
	"github.com/4eh5xitv6787h645ebv/Jellyfin-Enhanced/services/scheduler"
)

func main() {
	configFlag := flag.String("config", "", "path to settings.json (overrides JE_CONFIG)")
	portOverride := flag.Int("port", 0, "override server port from config")
	syncOnce := flag.Bool("sync-once", false, "run the Jellyseerr requests sync once and exit")
	flag.Parse()

	fmt.Println("🪼 Jellyfin Enhanced backend starting...")

	configPath := strings.TrimSpace(*configFlag)
	if configPath == "" {
		configPath = os.Getenv("JE_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	storage := afero.NewOsFs()
	newSyncer := func(s config.Settings) (scheduler.RequestsSyncer, error) {
		return requestsync.Build(s, storage, log.Default())
	}

	if *syncOnce {
		syncer, err := newSyncer(settings)
		if err != nil {
			log.Fatalf("failed to build requests sync: %v", err)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		summary := syncer.Run(ctx, func(p float64) { log.Printf("[requests-sync] Progress %.0f%%", p) })
		fmt.Println(summary)
		return
	}

	schedulerService := scheduler.NewService(cfgManager, newSyncer)
	arrService := arr.NewService(settings.Jellyseerr.Timeout(), settings.Jellyseerr.RetryAttempts, log.Default())

	r := mux.NewRouter()
	accessToken := strings.TrimSpace(settings.Server.AccessToken)
	if accessToken == "" {
		log.Println("Warning: server.accessToken is empty, API authentication is disabled")
	}
	api.Register(r,
		handlers.NewArrHandler(cfgManager, arrService, handlers.NewJellyseerrLister),
		handlers.NewScheduledTasksHandler(cfgManager, schedulerService),
		func() string { return accessToken },
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      api.WithCORS(r),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := schedulerService.Start(context.Background()); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("🛑 Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := schedulerService.Stop(shutdownCtx); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
