// Package main is the entry point for the DocPost API server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shimizu-Technology/docpost-api/internal/config"
	"github.com/Shimizu-Technology/docpost-api/internal/handlers"
	"github.com/Shimizu-Technology/docpost-api/internal/router"
	"github.com/Shimizu-Technology/docpost-api/internal/services/advertise"
	"github.com/Shimizu-Technology/docpost-api/internal/services/llmcheck"
	"github.com/Shimizu-Technology/docpost-api/internal/services/proxy"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("🚀 DocPost API %s starting...", Version)
	handlers.Version = Version

	// Step 1: Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	log.Printf("📋 Config loaded: port=%d, gin_mode=%s, public_dir=%s", cfg.Port, cfg.GinMode, cfg.PublicDir)

	os.Setenv("GIN_MODE", cfg.GinMode)

	if cfg.OpenAIAPIKey == "" {
		log.Println("⚠️  No OPENAI_API_KEY set (clients must send their own key)")
	}
	if cfg.DeepSeekAPIKey == "" {
		log.Println("⚠️  No DEEPSEEK_API_KEY set (clients must send their own key)")
	}

	// Step 2: Create Services
	forwarder := proxy.New(proxy.Options{
		Timeout:            cfg.ProxyTimeout,
		InsecureSkipVerify: cfg.ProxyInsecureSkipVerify,
		AllowedHosts:       cfg.ProxyAllowedHosts,
		ServerKeys:         cfg.ProviderKeys(),
	})
	checker := llmcheck.New(llmcheck.DefaultTargets(cfg.OpenAIAPIKey, cfg.DeepSeekAPIKey), cfg.ProxyTimeout)

	h := handlers.NewHandler(handlers.Deps{
		Forwarder:      forwarder,
		Checker:        checker,
		Env:            cfg.GinMode,
		OpenAIKey:      cfg.OpenAIAPIKey,
		DeepSeekKey:    cfg.DeepSeekAPIKey,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	// ctx stops middleware background work on shutdown
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Step 3: Setup HTTP Router
	r := router.Setup(ctx, h, router.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		PublicDir:      cfg.PublicDir,
		ProxyRateLimit: cfg.ProxyRateLimit,
	})

	// Step 4: Bind the listener (may move to a random port if ours is taken)
	listener, port, err := advertise.Listen("", cfg.Port, cfg.RandomPortFallback)
	if err != nil {
		log.Fatalf("❌ Failed to listen on port %d: %v", cfg.Port, err)
	}
	if port != cfg.Port {
		log.Printf("⚠️  Port %d in use, fell back to random port %d", cfg.Port, port)
	}
	h.SetPort(port)

	// Step 5: Advertise the bound port for clients
	serverPath, _ := os.Getwd()
	adv := advertise.Advertiser{PublicDir: cfg.PublicDir, PortFile: cfg.PortFile, ServerPath: serverPath}
	if err := adv.Publish(port); err != nil {
		log.Printf("⚠️  Failed to write port files: %v", err)
	} else {
		log.Printf("📝 Port %d written to %s and %s", port, cfg.PublicDir, cfg.PortFile)
	}

	// Step 6: Start the HTTP Server
	srv := &http.Server{
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.ProxyTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server listening on http://localhost:%d", port)
		log.Printf("📖 Health check: http://localhost:%d/api/health", port)

		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	// Step 7: Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("🛑 Received signal %v, shutting down gracefully...", sig)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	log.Println("👋 Server stopped. Goodbye!")
}
