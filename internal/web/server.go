package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/vbonduro/setasidevault/internal/auth"
	"github.com/vbonduro/setasidevault/internal/mediastore"
	"github.com/vbonduro/setasidevault/internal/service"
)

const shutdownTimeout = 10 * time.Second

// Services groups the application services the HTTP layer drives.
type Services struct {
	Collections *service.CollectionService
	Items       *service.ItemService
	Stories     *service.StoryService
	Media       *service.MediaService
}

// Options holds the HTTP-facing settings.
type Options struct {
	// StaticDir is the built client bundle. Empty disables static serving.
	StaticDir      string
	MaxUploadBytes int64
	CORSOrigins    []string
}

type Server struct {
	svc     Services
	files   mediastore.Store
	auth    *auth.Authenticator
	opts    Options
	mux     *http.ServeMux
	handler http.Handler
	logger  *slog.Logger
}

func NewServer(svc Services, files mediastore.Store, authn *auth.Authenticator, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		svc:    svc,
		files:  files,
		auth:   authn,
		opts:   opts,
		mux:    http.NewServeMux(),
		logger: logger,
	}
	s.registerRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         3600,
	})
	s.handler = requestLogger(logger, securityHeaders(c.Handler(s.mux)))
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/hello", s.handleHello)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("POST /api/admin/login", s.handleLogin)
	s.mux.HandleFunc("GET /api/admin/status", s.handleAuthStatus)

	s.mux.HandleFunc("GET /api/collections", s.handleListCollections)
	s.mux.HandleFunc("POST /api/collections", s.admin(s.handleCreateCollection))
	s.mux.HandleFunc("GET /api/collections/{id}", s.handleGetCollection)
	s.mux.HandleFunc("PUT /api/collections/{id}", s.admin(s.handleUpdateCollection))
	s.mux.HandleFunc("DELETE /api/collections/{id}", s.admin(s.handleDeleteCollection))
	s.mux.HandleFunc("GET /api/collections/{id}/items", s.handleListCollectionItems)

	s.mux.HandleFunc("GET /api/items", s.handleListItems)
	s.mux.HandleFunc("POST /api/items", s.admin(s.handleCreateItem))
	s.mux.HandleFunc("GET /api/items/{id}", s.handleGetItem)
	s.mux.HandleFunc("PUT /api/items/{id}", s.admin(s.handleUpdateItem))
	s.mux.HandleFunc("DELETE /api/items/{id}", s.admin(s.handleDeleteItem))
	s.mux.HandleFunc("POST /api/items/{id}/describe", s.admin(s.handleDescribeItem))

	s.mux.HandleFunc("GET /api/stories", s.handleListStories)
	s.mux.HandleFunc("POST /api/stories", s.admin(s.handleCreateStory))
	s.mux.HandleFunc("GET /api/stories/{id}", s.handleGetStory)
	s.mux.HandleFunc("PUT /api/stories/{id}", s.admin(s.handleUpdateStory))
	s.mux.HandleFunc("DELETE /api/stories/{id}", s.admin(s.handleDeleteStory))

	s.mux.HandleFunc("GET /api/images/{filename}", s.handleGetImage)
	s.mux.HandleFunc("GET /api/media/unused", s.admin(s.handleListUnusedMedia))
	s.mux.HandleFunc("POST /api/media/bulk", s.admin(s.handleBulkUpload))
	s.mux.HandleFunc("DELETE /api/media/bulk", s.admin(s.handleBulkDelete))
	s.mux.HandleFunc("DELETE /api/media/{filename}", s.admin(s.handleDeleteMedia))

	s.mux.HandleFunc("GET /api/", s.handleAPINotFound)
	if s.opts.StaticDir != "" {
		s.mux.Handle("GET /", newSPAHandler(s.opts.StaticDir, s.logger))
	}
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self'; "+
				"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; "+
				"font-src 'self' https://fonts.gstatic.com; "+
				"img-src 'self' data: blob:; "+
				"connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
