package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkurdin/readfeed/app/ao3"
	"github.com/mkurdin/readfeed/app/api"
	"github.com/mkurdin/readfeed/app/cache"
	"github.com/mkurdin/readfeed/app/cfg"
	"github.com/mkurdin/readfeed/app/store"
	"github.com/mkurdin/readfeed/app/tasks"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	appConfig, err := cfg.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if appConfig == nil {
		// Help was shown, exit gracefully
		return
	}

	if appConfig.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	log.Println("Starting readfeed server...")

	// Database connection
	log.Printf("Opening database at %s...", appConfig.DBPath)
	db, err := store.NewConnection(appConfig.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	version, dirty, err := store.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	log.Printf("Database ready (schema version %d, dirty: %t)", version, dirty)

	// Selector set (defaults, optionally patched from file)
	selectors := ao3.DefaultSelectors()
	if appConfig.SelectorsFile != "" {
		selectors, err = ao3.LoadSelectors(appConfig.SelectorsFile)
		if err != nil {
			log.Fatal("Failed to load selector overrides:", err)
		}
		log.Printf("Selector overrides loaded from %s", appConfig.SelectorsFile)
	}

	// Authenticated upstream session, shared by all requests
	session, err := ao3.NewSession(ao3.SessionOptions{
		HistoryUser: appConfig.HistoryUser,
		UserAgent:   appConfig.UserAgent,
	})
	if err != nil {
		log.Fatal("Failed to create session:", err)
	}

	log.Printf("Logging in to the archive as %s...", appConfig.Username)
	loginCtx, cancelLogin := context.WithTimeout(context.Background(), 60*time.Second)
	err = session.Login(loginCtx, appConfig.Username, appConfig.Password)
	cancelLogin()
	if err != nil {
		log.Fatal("Login failed:", err)
	}
	log.Printf("Logged in, serving history for %s", appConfig.HistoryUser)

	// Core components
	extractor := ao3.NewExtractor(selectors)
	pages := cache.NewPages[*ao3.HistoryPage](
		appConfig.CacheSize,
		time.Duration(appConfig.CacheTTL)*time.Second,
	)
	workRepo := store.NewWorkRepository(db)

	// Background archive sync
	var scheduler tasks.TaskSchedulerInterface
	if appConfig.SyncInterval > 0 {
		scheduler = tasks.NewScheduler(session, extractor, workRepo)
		scheduler.Start()
		log.Printf("Archive sync scheduler started (interval: %ds, depth: %d pages)",
			appConfig.SyncInterval, appConfig.SyncDepth)
	} else {
		log.Println("Archive sync scheduler disabled")
	}

	// HTTP server
	log.Println("Initializing HTTP server...")
	apiHandler := api.NewHandler(session, extractor, pages, workRepo, appConfig.PageSize)
	server := api.NewServer(apiHandler, appConfig.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appConfig.Port)
		log.Printf("Catalog endpoints available:")
		log.Printf("  Catalog root:  http://localhost:%s/opds/v1.2/catalog", appConfig.Port)
		log.Printf("  History:       http://localhost:%s/opds/v1.2/history", appConfig.Port)
		log.Printf("  Archive:       http://localhost:%s/opds/v1.2/archive", appConfig.Port)
		log.Printf("  Health check:  http://localhost:%s/health", appConfig.Port)
		log.Printf("  Statistics:    http://localhost:%s/stats", appConfig.Port)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("readfeed server started successfully!")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down server gracefully...")

	if scheduler != nil {
		scheduler.Stop()
		log.Println("Archive sync scheduler stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	log.Println("readfeed server shutdown complete")
}
