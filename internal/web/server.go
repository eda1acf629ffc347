// Package web provides the HTTP server and JSON API handlers for the
// product import service.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/Pankaj-karwasra/product-importer/internal/catalog"
	"github.com/Pankaj-karwasra/product-importer/internal/config"
	"github.com/Pankaj-karwasra/product-importer/internal/progress"
	"github.com/Pankaj-karwasra/product-importer/internal/queue"
)

// ProductStore is the catalog surface the product handlers need.
// Satisfied by *catalog.Store.
type ProductStore interface {
	ListProducts(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (catalog.Product, error)
	CreateProduct(ctx context.Context, rec catalog.ProductRecord) (catalog.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, rec catalog.ProductRecord) (catalog.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	DeleteAllProducts(ctx context.Context) (int64, error)
}

// WebhookStore is the catalog surface the webhook handlers need.
// Satisfied by *catalog.Store.
type WebhookStore interface {
	ListWebhooks(ctx context.Context) ([]catalog.Webhook, error)
	GetWebhook(ctx context.Context, id uuid.UUID) (catalog.Webhook, error)
	CreateWebhook(ctx context.Context, wh catalog.Webhook) (catalog.Webhook, error)
	UpdateWebhook(ctx context.Context, id uuid.UUID, wh catalog.Webhook) (catalog.Webhook, error)
	DeleteWebhook(ctx context.Context, id uuid.UUID) error
}

// ProgressStore reads and seeds job progress snapshots.
// Satisfied by *progress.Store.
type ProgressStore interface {
	Set(ctx context.Context, jobID string, snap progress.Snapshot) error
	Get(ctx context.Context, jobID string) (progress.Snapshot, error)
}

// JobQueue submits background jobs. Satisfied by *queue.RedisQueue.
type JobQueue interface {
	Submit(ctx context.Context, job queue.Job) error
}

// Server is the HTTP server for the product import API.
type Server struct {
	cfg      *config.Config
	products ProductStore
	webhooks WebhookStore
	progress ProgressStore
	jobs     JobQueue
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a new Server instance.
func NewServer(cfg *config.Config, products ProductStore, webhooks WebhookStore, prog ProgressStore, jobs JobQueue) *Server {
	s := &Server{
		cfg:      cfg,
		products: products,
		webhooks: webhooks,
		progress: prog,
		jobs:     jobs,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	// Security hardening
	s.router.Use(securityHeaders)

	// Rate limiting: 100 requests per minute per IP
	limiter := newRateLimiter(100, time.Minute)
	s.router.Use(limiter.middleware)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		// CSV import
		r.Post("/upload", s.handleUpload)
		r.Get("/upload-status/{jobID}", s.handleUploadStatus)

		// Product catalog
		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.handleListProducts)
			r.Post("/", s.handleCreateProduct)
			r.Post("/bulk-delete", s.handleBulkDeleteProducts)
			r.Get("/{productID}", s.handleGetProduct)
			r.Put("/{productID}", s.handleUpdateProduct)
			r.Delete("/{productID}", s.handleDeleteProduct)
		})

		// Webhook endpoints
		r.Route("/webhooks", func(r chi.Router) {
			r.Get("/", s.handleListWebhooks)
			r.Post("/", s.handleCreateWebhook)
			r.Get("/{webhookID}", s.handleGetWebhook)
			r.Put("/{webhookID}", s.handleUpdateWebhook)
			r.Delete("/{webhookID}", s.handleDeleteWebhook)
			r.Post("/{webhookID}/test", s.handleTestWebhook)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	// Start cleanup goroutine
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{
			tokens:    rl.rate - 1, // consume one token
			lastReset: time.Now(),
		}
		return true
	}

	// Reset tokens if window has passed
	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		// Use X-Real-IP if set (by RealIP middleware)
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			ip = realIP
		}

		if !rl.allow(ip) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeError writes a JSON error response.
// Logs the full error server-side but returns only the message to the client.
func writeError(w http.ResponseWriter, status int, message string) {
	slog.Error("request failed", "status", status, "error", message)
	writeJSONStatus(w, status, map[string]string{"error": message})
}

// writeJSON encodes v as JSON with a 200 status.
func writeJSON(w http.ResponseWriter, v interface{}) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v as JSON and writes it with the given status.
// Logs encoding errors since headers are already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
