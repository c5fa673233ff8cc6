package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driving"
	"github.com/custodia-labs/sales-support-ai/internal/logger"
)

// OwnerHeader carries the authenticated user's email, set by the upstream
// auth proxy.
const OwnerHeader = "X-User-Email"

// Ports aggregates the driving ports the HTTP adapter serves.
type Ports struct {
	Upload    driving.UploadService
	Ingestion driving.IngestionService
	Documents driving.DocumentService
	Search    driving.SearchService
	Chat      driving.ChatService
}

// ErrMissingPort is returned when a required port is nil.
var ErrMissingPort = errors.New("http: all ports are required")

// Validate ensures all ports are set.
func (p *Ports) Validate() error {
	if p.Upload == nil || p.Ingestion == nil || p.Documents == nil || p.Search == nil || p.Chat == nil {
		return ErrMissingPort
	}
	return nil
}

// Config tunes the HTTP server.
type Config struct {
	Addr string

	// MaxUploadBytes bounds a single uploaded file.
	MaxUploadBytes int64

	// ReadTimeout bounds reading a request, body included.
	ReadTimeout time.Duration

	// StageTimeout bounds a manually invoked stage. The stage outlives the
	// request so a disconnecting client cannot abort it half way.
	StageTimeout time.Duration

	// AllowedOrigins restricts websocket origins. Empty allows any origin.
	AllowedOrigins []string
}

// Server routes HTTP requests to the driving ports.
type Server struct {
	ports    *Ports
	hub      *Hub
	cfg      Config
	router   *mux.Router
	upgrader *websocket.Upgrader
}

// NewServer creates the server and registers all routes.
func NewServer(ports *Ports, hub *Hub, cfg Config) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if hub == nil {
		hub = NewHub()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = time.Minute
	}
	if cfg.StageTimeout <= 0 {
		cfg.StageTimeout = 10 * time.Minute
	}

	s := &Server{
		ports:  ports,
		hub:    hub,
		cfg:    cfg,
		router: mux.NewRouter(),
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router
	r.Use(logRequests)
	r.HandleFunc("/healthz", s.healthCheck).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(requireOwner)

	sales := api.PathPrefix("/sales-ai").Subrouter()
	sales.HandleFunc("/upload", s.uploadSales).Methods(http.MethodPost)
	sales.HandleFunc("/search", s.searchCatalog).Methods(http.MethodPost)
	sales.HandleFunc("/search/analyze", s.analyzeProducts).Methods(http.MethodPost)
	sales.HandleFunc("/search-in-document", s.searchInDocument).Methods(http.MethodPost)
	sales.HandleFunc("/list-analyzed-documents", s.listAnalyzed).Methods(http.MethodGet)
	sales.HandleFunc("/documents/{id}", s.getDocument).Methods(http.MethodGet)
	sales.HandleFunc("/documents/{id}", s.deleteDocument).Methods(http.MethodDelete)
	sales.HandleFunc("/delete-document", s.deleteDocumentByBody).Methods(http.MethodDelete, http.MethodPost)

	support := api.PathPrefix("/support-ai").Subrouter()
	support.HandleFunc("/upload-document", s.uploadSupport).Methods(http.MethodPost)
	support.HandleFunc("/documents", s.listSupport).Methods(http.MethodGet)
	support.HandleFunc("/documents/{id}", s.deleteSupportDocument).Methods(http.MethodDelete)
	support.HandleFunc("/chat", s.chat).Methods(http.MethodPost)

	api.HandleFunc("/documents/{id}/stages/{stage}", s.runStage).Methods(http.MethodPost)

	ws := r.PathPrefix("/ws").Subrouter()
	ws.Use(requireOwner)
	ws.HandleFunc("/documents", s.documentEvents).Methods(http.MethodGet)
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on cfg.Addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("http: listening on %s", s.cfg.Addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) documentEvents(w http.ResponseWriter, r *http.Request) {
	serveWS(s.hub, s.upgrader, w, r, ownerFrom(r))
}

type ownerKey struct{}

// requireOwner rejects requests without an owner and stores it in the context.
func requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.Header.Get(OwnerHeader))
		if owner == "" {
			respondError(w, http.StatusUnauthorized, "Unauthorized: user not authenticated.")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, owner)))
	})
}

func ownerFrom(r *http.Request) string {
	owner, _ := r.Context().Value(ownerKey{}).(string)
	return owner
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("http: %s %s (%s)", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	})
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		for _, a := range allowed {
			if strings.EqualFold(origin, a) {
				return true
			}
		}
		return false
	}
}
