package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/netshelf/netshelf/internal/config"
	"github.com/netshelf/netshelf/internal/database"
	"github.com/netshelf/netshelf/internal/server"
)

func main() {
	fmt.Println("=======================================")
	fmt.Println("   netshelf - network share indexer    ")
	fmt.Println("=======================================")

	// Initialize configuration system first
	configPath := os.Getenv("NETSHELF_CONFIG_PATH")
	if configPath == "" {
		if _, err := os.Stat("./netshelf.yaml"); err == nil {
			configPath = "./netshelf.yaml"
		}
	}

	if err := config.Load(configPath); err != nil {
		log.Printf("⚠️  Warning: Failed to load configuration from %s: %v", configPath, err)
		log.Printf("Using default configuration")
	} else if configPath != "" {
		log.Printf("✅ Configuration loaded from: %s", configPath)
	} else {
		log.Printf("✅ Using default configuration")
	}

	cfg := config.Get()

	// Initialize database
	if err := database.Initialize(&cfg.Database); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Reload configuration on file changes
	var configWatcher *config.FileWatcher
	if configPath != "" {
		watcher, err := config.GetManager().WatchFile(configPath)
		if err != nil {
			log.Printf("⚠️  Config watch disabled: %v", err)
		} else {
			configWatcher = watcher
			log.Printf("👀 Watching configuration file for changes")
		}
	}

	// Setup router and modules
	r := server.SetupRouter()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\nShutting down gracefully...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		if configWatcher != nil {
			configWatcher.Stop()
		}

		server.ShutdownScanner()

		if err := server.ShutdownEventBus(); err != nil {
			log.Printf("Event bus shutdown error: %v", err)
		}

		cancel()
	}()

	log.Printf("🚀 Starting netshelf server on %s:%d", cfg.Server.Host, cfg.Server.Port)
	err := srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}

	<-ctx.Done()
	log.Println("Server shutdown complete")
}
