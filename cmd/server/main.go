package main

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"salapoints/internal/backend"
	"salapoints/internal/config"
	"salapoints/internal/handlers"
	"salapoints/internal/points"
	"salapoints/internal/roster"
	"salapoints/internal/security"
	"salapoints/internal/session"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Backend client; all durable state lives behind it
	client := backend.New(cfg.BackendURL, cfg.RequestTimeout)

	// Session cache seeded from the persisted token, if any
	cache := session.NewCache(session.NewFileStore(cfg.StatePath))
	cache.Initialize()
	if cache.LoggedIn() {
		log.Println("Restored session from stored token")
	}

	// Load templates
	templates, err := loadTemplates(cfg.TemplatesPath)
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	log.Println("Templates loaded successfully")

	// One loader per sala; the ledger invalidates them on confirmed mutations
	registry := roster.NewRegistry(client, roster.DefaultSalas())
	ledger := points.NewLedger(client, points.WithConfirmHook(registry.InvalidateAll))

	csrf := security.NewCSRFGenerator(cfg.SessionSecret)
	loginLimiter := security.NewRateLimiter(5, time.Minute)
	flashes := handlers.NewFlashStore(cfg.SessionSecret)

	// Initialize handlers
	middleware := handlers.NewMiddleware(cache, csrf, loginLimiter)
	authHandler := handlers.NewAuthHandler(client, cache, ledger, registry, flashes, templates)
	rosterHandler := handlers.NewRosterHandler(client, cache, ledger, registry, csrf, flashes, templates)
	adminHandler := handlers.NewAdminHandler(client, cache, ledger, registry, csrf, flashes, templates)
	profileHandler := handlers.NewProfileHandler(client, cache, csrf, flashes, templates, cfg.UploadMaxSize)
	reportHandler := handlers.NewReportHandler(client, cache, registry, csrf, flashes, templates)

	// Setup routes
	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticFilesPath))))

	// Public routes
	mux.HandleFunc("GET /login", authHandler.ShowLogin)
	mux.HandleFunc("POST /login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /logout", authHandler.Logout)
	mux.HandleFunc("GET /healthz", authHandler.Healthz)

	// Roster routes
	mux.HandleFunc("GET /{$}", middleware.RequireAuth(rosterHandler.Home))
	mux.HandleFunc("GET /salas/{sala}", middleware.RequireAuth(rosterHandler.ShowSala))
	mux.HandleFunc("POST /salas/{sala}/more", middleware.RequireAuth(rosterHandler.LoadMore))
	mux.HandleFunc("POST /salas/{sala}/children/{id}/points", middleware.RequireAuth(middleware.CSRFProtect(rosterHandler.AddPoint)))
	mux.HandleFunc("POST /salas/{sala}/children/{id}/points/remove", middleware.RequireAuth(middleware.CSRFProtect(rosterHandler.RemovePoint)))
	mux.HandleFunc("GET /children/{id}", middleware.RequireAuth(rosterHandler.ChildDetails))

	// Profile routes
	mux.HandleFunc("GET /profile", middleware.RequireAuth(profileHandler.ShowProfile))
	mux.HandleFunc("POST /profile", middleware.RequireAuth(middleware.CSRFProtect(profileHandler.UpdateProfile)))

	// Report routes
	mux.HandleFunc("GET /report", middleware.RequireAuth(reportHandler.ShowReport))
	mux.HandleFunc("GET /report/export", middleware.RequireAuth(reportHandler.ExportChildren))
	mux.HandleFunc("GET /report/classes/{id}/points", middleware.RequireAuth(reportHandler.ClassPoints))

	// Admin routes
	mux.HandleFunc("GET /admin/presence", middleware.RequireAdmin(adminHandler.ShowPresence))
	mux.HandleFunc("POST /admin/presence/{id}", middleware.RequireAdmin(middleware.CSRFProtect(adminHandler.AddPresence)))
	mux.HandleFunc("POST /admin/presence/bulk", middleware.RequireAdmin(middleware.CSRFProtect(adminHandler.BulkAddPresence)))
	mux.HandleFunc("POST /admin/presence/{id}/remove", middleware.RequireAdmin(middleware.CSRFProtect(adminHandler.RemovePresence)))
	mux.HandleFunc("GET /admin/children", middleware.RequireAdmin(adminHandler.ShowChildren))
	mux.HandleFunc("POST /admin/children", middleware.RequireAdmin(middleware.CSRFProtect(adminHandler.CreateChild)))
	mux.HandleFunc("POST /admin/children/{id}/update", middleware.RequireAdmin(middleware.CSRFProtect(adminHandler.UpdateChild)))
	mux.HandleFunc("POST /admin/children/delete", middleware.RequireAdmin(middleware.CSRFProtect(adminHandler.DeleteChildren)))
	mux.HandleFunc("POST /admin/points/reset", middleware.RequireAdmin(middleware.CSRFProtect(adminHandler.ResetPoints)))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Periodically drop lapsed sessions so the kiosk falls back to the login
	// screen instead of failing on the first protected request
	go revalidateSessions(cache)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s (backend: %s)", addr, cfg.BackendURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// loadTemplates loads all template files
func loadTemplates(templatesPath string) (*template.Template, error) {
	baseTemplate := filepath.Join(templatesPath, "base.tmpl")

	patterns := []string{
		filepath.Join(templatesPath, "auth/*.tmpl"),
		filepath.Join(templatesPath, "roster/*.tmpl"),
		filepath.Join(templatesPath, "admin/*.tmpl"),
		filepath.Join(templatesPath, "profile/*.tmpl"),
		filepath.Join(templatesPath, "report/*.tmpl"),
		filepath.Join(templatesPath, "components/*.tmpl"),
	}

	var files []string
	files = append(files, baseTemplate)

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}

	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("02/01/2006")
		},
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"until": func(count int) []int {
			result := make([]int, count)
			for i := 0; i < count; i++ {
				result[i] = i
			}
			return result
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return tmpl, nil
}

// revalidateSessions periodically re-checks token expiry
func revalidateSessions(cache *session.Cache) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if !cache.Revalidate() && cache.Token() != "" {
			log.Println("Stored session expired, logged out")
		}
	}
}
