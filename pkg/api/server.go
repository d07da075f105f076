// Package api serves the loaded skill collection over a read-only JSON HTTP
// API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/skillskit/skillskit/pkg/logger"
	"github.com/skillskit/skillskit/pkg/presenter"
	"github.com/skillskit/skillskit/pkg/searchindex"
	"github.com/skillskit/skillskit/pkg/skills"
	"github.com/skillskit/skillskit/pkg/version"
)

// SkillSource is the subset of the skill loader the server reads from
type SkillSource interface {
	LoadAll(ctx context.Context, sourceDir string) ([]*skills.ParsedSkill, error)
	GetSkillByName(ctx context.Context, name, sourceDir string) (*skills.ParsedSkill, error)
	GetSkillsByCategory(ctx context.Context, category, sourceDir string) ([]*skills.ParsedSkill, error)
	Reload(ctx context.Context) ([]*skills.ParsedSkill, error)
}

// Server represents the API server
type Server struct {
	router *mux.Router
	source SkillSource
	config *ServerConfig
	server *http.Server
}

// ServerConfig holds the configuration for the API server
type ServerConfig struct {
	Host string
	Port int
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}

	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	return nil
}

// CategoryCount is one entry of the categories endpoint
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ReloadResponse is returned by POST /api/reload
type ReloadResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

// NewServer creates a new API server reading from source
func NewServer(config *ServerConfig, source SkillSource) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}
	if source == nil {
		return nil, errors.New("skill source is required")
	}

	s := &Server{
		router: mux.NewRouter(),
		source: source,
		config: config,
	}
	s.setupRoutes()

	return s, nil
}

// Handler returns the routed handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/skills", s.handleListSkills).Methods("GET")
	api.HandleFunc("/skills/{name}", s.handleGetSkill).Methods("GET")
	api.HandleFunc("/categories", s.handleListCategories).Methods("GET")
	api.HandleFunc("/search-mapping", s.handleSearchMapping).Methods("GET")
	api.HandleFunc("/reload", s.handleReload).Methods("POST")
	api.HandleFunc("/version", s.handleVersion).Methods("GET")

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		logger.G(r.Context()).WithFields(map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration":    time.Since(start),
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request")
	})
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// handleListSkills handles GET /api/skills with optional category and tag
// filters. The category filter ignores case, the tag filter does not.
func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var (
		list []*skills.ParsedSkill
		err  error
	)
	if category := query.Get("category"); category != "" {
		list, err = s.source.GetSkillsByCategory(ctx, category, "")
	} else {
		list, err = s.source.LoadAll(ctx, "")
	}
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to load skills", err)
		return
	}

	if tag := query.Get("tag"); tag != "" {
		list = filterByTag(list, tag)
	}
	if list == nil {
		list = []*skills.ParsedSkill{}
	}

	s.writeJSONResponse(w, list)
}

// handleGetSkill handles GET /api/skills/{name}
func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	skill, err := s.source.GetSkillByName(r.Context(), name, "")
	if err != nil {
		if errors.Is(err, skills.ErrSkillNotFound) {
			s.writeErrorResponse(w, http.StatusNotFound, fmt.Sprintf("skill '%s' not found", name), nil)
			return
		}
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to load skill", err)
		return
	}

	s.writeJSONResponse(w, skill)
}

// handleListCategories handles GET /api/categories
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := s.source.LoadAll(r.Context(), "")
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to load skills", err)
		return
	}

	s.writeJSONResponse(w, countCategories(list))
}

// handleSearchMapping handles GET /api/search-mapping
func (s *Server) handleSearchMapping(w http.ResponseWriter, r *http.Request) {
	list, err := s.source.LoadAll(r.Context(), "")
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to load skills", err)
		return
	}

	s.writeJSONResponse(w, searchindex.Build(list))
}

// handleReload handles POST /api/reload
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	list, err := s.source.Reload(r.Context())
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to reload skills", err)
		return
	}

	s.writeJSONResponse(w, ReloadResponse{Success: true, Count: len(list)})
}

// handleVersion handles GET /api/version
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	s.writeJSONResponse(w, version.Get())
}

func filterByTag(list []*skills.ParsedSkill, tag string) []*skills.ParsedSkill {
	matched := []*skills.ParsedSkill{}
	for _, skill := range list {
		for _, t := range skill.Metadata.Tags {
			if t == tag {
				matched = append(matched, skill)
				break
			}
		}
	}
	return matched
}

// countCategories returns non-empty categories in first-seen order.
func countCategories(list []*skills.ParsedSkill) []CategoryCount {
	counts := []CategoryCount{}
	index := make(map[string]int)
	for _, skill := range list {
		category := skill.Metadata.Category
		if category == "" {
			continue
		}
		if i, ok := index[category]; ok {
			counts[i].Count++
			continue
		}
		index[category] = len(counts)
		counts = append(counts, CategoryCount{Name: category, Count: 1})
	}
	return counts
}

// writeJSONResponse writes a JSON response
func (s *Server) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode JSON response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// writeErrorResponse writes an error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	if err != nil {
		logger.G(context.TODO()).WithError(err).Error(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]any{
		"error":   message,
		"status":  statusCode,
		"success": false,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode error response")
	}
}

// Start starts the server and blocks until ctx is cancelled, then shuts it
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:              address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	presenter.Info(fmt.Sprintf("Starting API server on http://%s", address))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.G(ctx).WithError(err).Error("API server error")
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "failed to serve API")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Stop stops the server
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}
