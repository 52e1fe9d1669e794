package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/NextFutureHub/ocr-quality-service/api"
	"github.com/NextFutureHub/ocr-quality-service/internal/auth"
	"github.com/NextFutureHub/ocr-quality-service/internal/db"
	"github.com/NextFutureHub/ocr-quality-service/internal/models"
	"github.com/NextFutureHub/ocr-quality-service/internal/storage"
	"gopkg.in/yaml.v3"
)

func main() {
	// Initialize JWT
	if err := auth.Init(); err != nil {
		log.Fatalf("Failed to initialize auth: %v", err)
	}
	log.Println("JWT authentication initialized")

	// Initialize database connection pool
	if err := db.Init(); err != nil {
		log.Printf("Warning: Database not available: %v", err)
		log.Println("Running in assessment-only mode (no report persistence, open access)")
	} else {
		defer db.Close()
		log.Println("Database connection pool initialized")
	}

	// Initialize MinIO storage
	if err := storage.Init(); err != nil {
		log.Printf("Warning: MinIO storage not available: %v", err)
		log.Println("Source documents will not be archived")
	} else {
		log.Println("MinIO storage initialized")
	}

	// Load configuration
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Printf("Warning: %v, continuing with defaults", err)
	}

	// Create API handler
	handler := api.NewHandler(config)
	router := handler.SetupRoutes()

	// Add login endpoint
	router.HandleFunc("/api/auth/login", auth.LoginHandler).Methods("POST")

	// Wrap router with JWT middleware (skips /health and /api/auth/login)
	protectedRouter := auth.JWTMiddleware(router)

	// Start server
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	log.Printf("Starting OCR Quality Service v%s on %s", api.Version, addr)
	log.Printf("Languages: %s", config.OCR.Languages)
	log.Printf("Default AI Provider: %s (vision: %v)", config.AI.DefaultProvider, config.AI.UseVision)
	log.Printf("Database: %v", db.Available())
	log.Printf("Storage: %v", storage.Available())
	log.Printf("Endpoints:")
	log.Printf("  POST http://%s/api/auth/login        - Authenticate project", addr)
	log.Printf("  POST http://%s/api/ocr/process       - Recognize and assess a document", addr)
	log.Printf("  POST http://%s/api/ocr/batch         - Recognize a batch of documents", addr)
	log.Printf("  POST http://%s/api/metrics/calculate - Score a text against its ground truth", addr)
	log.Printf("  POST http://%s/api/noise/process     - Denoise then recognize", addr)
	log.Printf("  POST http://%s/api/pdf/process       - Process a PDF document", addr)
	log.Printf("  GET  http://%s/api/reports           - List stored reports", addr)
	log.Printf("  GET  http://%s/api/stats             - Monthly statistics", addr)
	log.Printf("  GET  http://%s/health                - Health check", addr)

	if err := http.ListenAndServe(addr, protectedRouter); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig reads config.yaml and layers environment overrides on top.
// A missing or broken file is reported but not fatal: the returned config
// is always usable.
func loadConfig(path string) (*models.Config, error) {
	config := &models.Config{}

	var readErr error
	if data, err := os.ReadFile(path); err != nil {
		readErr = fmt.Errorf("config file not read: %w", err)
	} else if err := yaml.Unmarshal(data, config); err != nil {
		readErr = fmt.Errorf("config file not parsed: %w", err)
		*config = models.Config{}
	}

	// Override with environment variables if present
	if port := os.Getenv("PORT"); port != "" {
		fmt.Sscanf(port, "%d", &config.Port)
	}
	if host := os.Getenv("HOST"); host != "" {
		config.Host = host
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.AI.OpenAI.APIKey = apiKey
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.AI.Gemini.APIKey = apiKey
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.AI.Ollama.BaseURL = baseURL
	}
	if model := os.Getenv("OLLAMA_MODEL"); model != "" {
		config.AI.Ollama.Model = model
	}
	if provider := os.Getenv("AI_PROVIDER"); provider != "" {
		config.AI.DefaultProvider = provider
	}
	if vision := os.Getenv("AI_USE_VISION"); vision != "" {
		config.AI.UseVision = vision == "true" || vision == "1"
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.AI.OpenAI.BaseURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		config.AI.OpenAI.Model = model
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		config.AI.Gemini.Model = model
	}
	if langs := os.Getenv("OCR_LANGUAGES"); langs != "" {
		config.OCR.Languages = langs
	}
	workers := os.Getenv("OCR_WORKERS")
	if workers == "" {
		workers = os.Getenv("MAX_WORKERS")
	}
	if workers != "" {
		if n, err := strconv.Atoi(workers); err == nil && n > 0 {
			config.OCR.Workers = n
		}
	}

	applyDefaults(config)
	return config, readErr
}

// applyDefaults fills whatever the file and the environment left unset.
func applyDefaults(config *models.Config) {
	if config.Port == 0 {
		config.Port = 8000
	}
	if config.Host == "" {
		config.Host = "0.0.0.0"
	}
	if config.OCR.Languages == "" {
		config.OCR.Languages = "rus+eng"
	}
	if config.AI.DefaultProvider == "" {
		config.AI.DefaultProvider = "openai"
	}
}
