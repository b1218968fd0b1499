package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/finsight/src/config"
	"github.com/username/finsight/src/database"
	"github.com/username/finsight/src/detector"
	"github.com/username/finsight/src/handlers"
	"github.com/username/finsight/src/llm"
	"github.com/username/finsight/src/logger"
	"github.com/username/finsight/src/processors"
	"github.com/username/finsight/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}
		if config.Cfg.FrontendBaseURL != "" {
			allowedOrigins[config.Cfg.FrontendBaseURL] = true
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-Requested-With, X-Session-ID")
			w.Header().Set("Access-Control-Expose-Headers", "X-Session-ID")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("FinSight backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	resultCache := cache.New(config.Cfg.CacheExpiration, config.Cfg.CacheCleanupInterval)

	documentStore := services.NewDocumentStore(resultCache)
	anomalyDetector := detector.NewDetector(config.Cfg.HighRiskTransactionAmount)

	var completer llm.Completer
	if config.Cfg.AssistantEnabled {
		completer = llm.NewGeminiCompleter(config.Cfg.GeminiModel)
		logger.L.Info("Assistant enabled", "model", config.Cfg.GeminiModel)
	} else {
		logger.L.Warn("Assistant disabled; analysis will use deterministic fallbacks only")
	}

	categoryProcessor := processors.NewCategoryProcessor()
	analysisService := services.NewAnalysisService(documentStore, completer, anomalyDetector, categoryProcessor)
	documentHandler := handlers.NewDocumentHandler(analysisService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "FinSight Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", documentHandler.HandleHealth)

		r.Group(func(r chi.Router) {
			r.Use(handlers.SessionMiddleware)

			r.Post("/upload", documentHandler.HandleUpload)
			r.Get("/documents", documentHandler.HandleListDocuments)
			r.Get("/documents/{documentID}", documentHandler.HandleGetDocument)
			r.Post("/chat", documentHandler.HandleChat)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			handlers.HandleNotFound(w, r)
			return
		}
		http.NotFound(w, r)
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
