package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fluencykaizen/backend/internal/api"
	"github.com/fluencykaizen/backend/internal/auth"
	"github.com/fluencykaizen/backend/internal/config"
	"github.com/fluencykaizen/backend/internal/db"
	"github.com/fluencykaizen/backend/internal/gemini"
	"github.com/fluencykaizen/backend/internal/pipeline"
	"github.com/fluencykaizen/backend/internal/project"
)

func main() {
	cfg := config.Load()

	// Ensure data directory exists
	os.MkdirAll(cfg.DataPath, 0755)

	// Initialize database
	database, err := db.NewSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Ensure admin user exists
	if err := database.EnsureAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}
	log.Printf("Admin user ensured: %s", cfg.AdminUsername)

	// Initialize JWT service
	jwtService := auth.NewJWTService(cfg.JWTSecret)

	projects := project.NewStore(cfg.ProjectsPath)

	// Gemini API key: env var first, stored setting as fallback
	apiKey := cfg.GeminiAPIKey
	if apiKey == "" {
		apiKey = database.GetSetting("gemini_api_key", "")
	}
	if apiKey == "" {
		log.Println("WARNING: no Gemini API key configured, caption analysis will fail. Set GEMINI_API_KEY or the gemini_api_key setting.")
	}

	analyzer := gemini.NewClient(apiKey, func() string {
		return database.GetSetting("gemini_model", "")
	}, cfg.Limits)

	generator := pipeline.NewGenerator(projects, analyzer, func() string {
		return database.GetSetting("whisper_model", cfg.WhisperModel)
	})
	registry := pipeline.NewRegistry()

	// Create router
	router := api.NewRouter(database, jwtService, generator, registry, projects, cfg.CORSOrigins)

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Starting server on %s", addr)
	log.Printf("Projects path: %s", cfg.ProjectsPath)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		os.Exit(0)
	}()

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
