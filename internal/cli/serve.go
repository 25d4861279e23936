package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/figtreehq/figtree/pkg/cache"
	"github.com/figtreehq/figtree/pkg/errors"
	"github.com/figtreehq/figtree/pkg/guid"
	"github.com/figtreehq/figtree/pkg/pipeline"
	"github.com/figtreehq/figtree/pkg/scene"
	"github.com/figtreehq/figtree/pkg/store"
)

const (
	// sessionTTL is how long a loaded document stays addressable.
	sessionTTL = 24 * time.Hour

	// maxSnapshotBytes caps uploaded snapshot size.
	maxSnapshotBytes = 64 << 20
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		redisURL string
		mongoURI string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API for loading and querying documents",
		Long: `Run an HTTP API that accepts document snapshots and serves
scene graph queries, override resolution, and blob payloads.

Loaded documents are held in sessions addressed by ID. Document
summaries persist to MongoDB when --mongo is set, otherwise they
live in memory for the lifetime of the process.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			srv, err := c.newServer(ctx, serverConfig{
				RedisURL: redisURL,
				MongoURI: mongoURI,
				NoCache:  noCache,
			})
			if err != nil {
				return err
			}
			defer srv.Close(ctx)

			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           srv.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				c.Logger.Info("listening", "addr", addr)
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpSrv.Shutdown(shutdownCtx)
			case err := <-errCh:
				return err
			}
		},
	}

	defaultAddr := c.Config.ListenAddr
	if defaultAddr == "" {
		defaultAddr = ":8080"
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&redisURL, "redis", c.Config.RedisURL, "Redis URL for the pipeline cache")
	cmd.Flags().StringVar(&mongoURI, "mongo", c.Config.MongoURI, "MongoDB URI for document summaries")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the pipeline cache")

	return cmd
}

type serverConfig struct {
	RedisURL string
	MongoURI string
	NoCache  bool
}

// newServer wires the runner, summary store, and session table.
func (c *CLI) newServer(ctx context.Context, cfg serverConfig) (*Server, error) {
	var (
		backend cache.Cache
		err     error
	)
	switch {
	case cfg.NoCache:
		backend = cache.NewNullCache()
	case cfg.RedisURL != "":
		backend, err = cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	default:
		backend, err = c.newCache(false)
		if err != nil {
			return nil, err
		}
	}

	var summaries store.Store
	if cfg.MongoURI != "" {
		summaries, err = store.NewMongoStore(ctx, cfg.MongoURI)
		if err != nil {
			backend.Close()
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
	} else {
		summaries = store.NewMemoryStore()
	}

	return &Server{
		runner:    pipeline.NewRunner(backend, cache.NewDefaultKeyer(), c.Logger),
		summaries: summaries,
		logger:    c.Logger,
		sessions:  make(map[string]*docSession),
	}, nil
}

// =============================================================================
// Server
// =============================================================================

// Server holds loaded documents in sessions and answers queries
// against their scene graphs.
type Server struct {
	runner    *pipeline.Runner
	summaries store.Store
	logger    *log.Logger

	mu       sync.RWMutex
	sessions map[string]*docSession
}

// docSession is a loaded document addressable by session ID.
type docSession struct {
	ID        string
	DocHash   string
	Name      string
	Graph     *scene.Graph
	Stats     pipeline.Stats
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s *docSession) expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Close releases the runner cache and the summary store.
func (s *Server) Close(ctx context.Context) error {
	err := s.runner.Close()
	if cerr := s.summaries.Close(ctx); err == nil {
		err = cerr
	}
	return err
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/documents", s.handleLoadDocument)
		r.Get("/documents", s.handleListDocuments)
		r.Get("/documents/{hash}", s.handleGetDocument)
		r.Delete("/documents/{hash}", s.handleDeleteDocument)

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Get("/nodes/{key}", s.handleGetNode)
			r.Get("/resolve", s.handleResolve)
			r.Get("/resolve/{key}", s.handleResolve)
			r.Get("/blobs/{key}", s.handleGetBlob)
		})
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sessionView is the JSON shape of a session response.
type sessionView struct {
	SessionID     string        `json:"session_id"`
	DocHash       string        `json:"doc_hash"`
	Name          string        `json:"name,omitempty"`
	NodeCount     int           `json:"node_count"`
	PageCount     int           `json:"page_count"`
	BlobCount     int           `json:"blob_count"`
	InstanceCount int           `json:"instance_count"`
	Orphans       []guid.Key    `json:"orphans,omitempty"`
	Pages         []pageSummary `json:"pages,omitempty"`
	ExpiresAt     time.Time     `json:"expires_at"`
}

func sessionToView(sess *docSession) sessionView {
	view := sessionView{
		SessionID:     sess.ID,
		DocHash:       sess.DocHash,
		Name:          sess.Name,
		NodeCount:     sess.Stats.NodeCount,
		PageCount:     sess.Stats.PageCount,
		BlobCount:     sess.Stats.BlobCount,
		InstanceCount: sess.Stats.InstanceCount,
		Orphans:       orphanKeys(sess.Graph),
		ExpiresAt:     sess.ExpiresAt,
	}
	for _, p := range sess.Graph.Pages {
		view.Pages = append(view.Pages, pageSummary{
			GUID:     p.GUID,
			Name:     p.Name,
			Children: len(p.Children),
		})
	}
	return view
}

// handleLoadDocument ingests a snapshot and opens a session for it.
func (s *Server) handleLoadDocument(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSnapshotBytes))
	if err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "read body: %v", err))
		return
	}

	name := r.URL.Query().Get("name")
	result, err := s.runner.Execute(r.Context(), pipeline.Options{
		Data: data,
		Name: name,
	})
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidDocument, err, "load document"))
		return
	}

	now := time.Now()
	sess := &docSession{
		ID:        uuid.NewString(),
		DocHash:   result.DocHash,
		Name:      name,
		Graph:     result.Graph,
		Stats:     result.Stats,
		CreatedAt: now,
		ExpiresAt: now.Add(sessionTTL),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	summary := store.DocumentSummary{
		DocHash:       result.DocHash,
		Name:          name,
		NodeCount:     result.Stats.NodeCount,
		PageCount:     result.Stats.PageCount,
		BlobCount:     result.Stats.BlobCount,
		InstanceCount: result.Stats.InstanceCount,
		OrphanCount:   len(result.Graph.Orphans()),
		LoadedAt:      now,
	}
	if err := s.summaries.Put(r.Context(), summary); err != nil {
		s.logger.Warn("persist summary", "doc", result.DocHash, "err", err)
	}

	writeJSON(w, http.StatusCreated, sessionToView(sess))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid limit: %s", v))
			return
		}
		limit = n
	}

	summaries, err := s.summaries.List(r.Context(), limit)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "list documents"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": summaries})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	summary, err := s.summaries.Get(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.summaries.Delete(r.Context(), chi.URLParam(r, "hash")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToView(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	key := chi.URLParam(r, "key")
	if err := errors.ValidateNodeKey(key); err != nil {
		writeError(w, err)
		return
	}

	n, ok := sess.Graph.Node(guid.Key(key))
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNodeNotFound, "node not found: %s", key))
		return
	}

	writeJSON(w, http.StatusOK, nodeView{
		GUID:     n.GUID,
		Type:     n.Type,
		Name:     n.Name,
		Visible:  n.IsVisible(),
		Parent:   n.Parent,
		Children: n.Children,
		SymbolID: n.SymbolID,
		TextData: n.TextData,
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	opts := pipeline.Options{Resolve: true}
	if key := chi.URLParam(r, "key"); key != "" {
		if err := errors.ValidateNodeKey(key); err != nil {
			writeError(w, err)
			return
		}
		opts.Instance = key
	}

	resolved, err := s.runner.ResolveAll(r.Context(), sess.Graph, sess.DocHash, opts)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeNodeNotFound, err, "resolve"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"instances": resolved})
}

func (s *Server) handleGetBlob(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	key := chi.URLParam(r, "key")
	if err := errors.ValidateBlobKey(key); err != nil {
		writeError(w, err)
		return
	}

	data, ok := sess.Graph.Blobs[key]
	if !ok {
		writeError(w, errors.New(errors.ErrCodeBlobNotFound, "blob not found: %s", key))
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// session looks up a live session, dropping it if expired.
func (s *Server) session(id string) (*docSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session not found: %s", id)
	}
	if sess.expired() {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, errors.New(errors.ErrCodeSessionExpired, "session expired: %s", id)
	}
	return sess, nil
}

// =============================================================================
// Response helpers
// =============================================================================

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	writeJSON(w, statusForCode(code), errorResponse{
		Error: errors.UserMessage(err),
		Code:  code,
	})
}

func statusForCode(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidDocument,
		errors.ErrCodeInvalidGUID, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeNodeNotFound,
		errors.ErrCodeBlobNotFound, errors.ErrCodeFileNotFound,
		errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeSessionExpired:
		return http.StatusGone
	case errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrCodeForbidden:
		return http.StatusForbidden
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
