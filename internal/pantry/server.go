package pantry

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// Server handles HTTP requests for the pantry and recipe pages
type Server struct {
	service    *Service
	mux        *http.ServeMux
	httpServer *http.Server
}

// NewServer creates a new Server with default mux
func NewServer(service *Service) *Server {
	return NewServerWithMux(service, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, mux *http.ServeMux) *Server {
	s := &Server{
		service: service,
		mux:     mux,
	}
	s.httpServer = &http.Server{
		Handler:           s.corsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.registerRoutes()
	return s
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleControllers serves controller JavaScript files with correct MIME type
func (s *Server) handleControllers(w http.ResponseWriter, r *http.Request) {
	fileServer := http.FileServer(http.FS(getControllersFS()))

	if strings.HasSuffix(r.URL.Path, ".js") {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	}
	r.URL.Path = strings.TrimPrefix(r.URL.Path, "/static/controllers/")
	if r.URL.Path == "" {
		r.URL.Path = "/"
	}
	fileServer.ServeHTTP(w, r)
}

// registerRoutes registers all routes on the server's mux
func (s *Server) registerRoutes() {
	// Static files
	s.mux.HandleFunc("GET /static/controllers/", s.handleControllers)
	s.mux.HandleFunc("GET /static/app.css", s.handleStaticCSS)
	s.mux.HandleFunc("GET /static/app.js", s.handleStaticJS)

	// API endpoints - pantry items
	s.mux.HandleFunc("GET /api/items", s.handleListItems)
	s.mux.HandleFunc("POST /api/items", s.handleAddItem)
	s.mux.HandleFunc("POST /api/items/{name}/increment", s.handleIncrementItem)
	s.mux.HandleFunc("POST /api/items/{name}/decrement", s.handleDecrementItem)
	s.mux.HandleFunc("PUT /api/items/{name}/name", s.handleRenameItem)
	s.mux.HandleFunc("PUT /api/items/{name}/note", s.handleSetNote)
	s.mux.HandleFunc("GET /api/items/{name}/photo", s.handleGetItemPhoto)

	// API endpoints - captures
	s.mux.HandleFunc("POST /api/captures", s.handleCapture)
	s.mux.HandleFunc("DELETE /api/captures/{id}", s.handleDiscardCapture)

	// API endpoints - recipes
	s.mux.HandleFunc("POST /api/generate-recipe", s.handleGenerateRecipe)
	s.mux.HandleFunc("POST /api/generate-recipe/pantry", s.handleGenerateFromPantry)
	s.mux.HandleFunc("GET /api/recipe-board", s.handleRecipeBoard)
	s.mux.HandleFunc("GET /api/recipes/{id}", s.handleGetRecipe)
	s.mux.HandleFunc("DELETE /api/recipes/{id}", s.handleDeleteRecipe)
	s.mux.HandleFunc("GET /api/recipes", s.handleListRecipes)
	s.mux.HandleFunc("POST /api/recipes", s.handleSaveRecipe)

	// Static HTML interface (register last as it's the catch-all)
	s.mux.HandleFunc("GET /index.html", s.handleIndex)
	s.mux.HandleFunc("GET /", s.handleIndex)
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.corsMiddleware(s.mux).ServeHTTP(w, r)
}
