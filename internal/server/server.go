package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/appengine-ltd/wildmons/internal/atlas"
	"github.com/appengine-ltd/wildmons/internal/parser"
	"github.com/appengine-ltd/wildmons/internal/render"
	"github.com/appengine-ltd/wildmons/internal/source"
)

type Server struct {
	atlas       *atlas.Atlas
	defaultMode parser.MatchMode
	router      *mux.Router
	log         *zap.Logger
}

func New(a *atlas.Atlas, defaultMode parser.MatchMode, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if !parser.ValidMatchMode(defaultMode) {
		defaultMode = parser.MatchExact
	}
	s := &Server{atlas: a, defaultMode: defaultMode, router: mux.NewRouter(), log: log}
	s.setupRoutes()
	return s
}

// Handler wraps the router in CORS handling so preflight requests are
// answered even though routes only accept GET.
func (s *Server) Handler() http.Handler { return corsMiddleware(s.router) }

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/maps", s.handleListMaps).Methods(http.MethodGet)
	api.HandleFunc("/maps/{id}", s.handleGetMap).Methods(http.MethodGet)
	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)

	s.router.HandleFunc("/", s.handleHomePage).Methods(http.MethodGet)
	s.router.HandleFunc("/maps", s.handleMapRedirect).Methods(http.MethodGet)
	s.router.HandleFunc("/maps/{id}", s.handleMapPage).Methods(http.MethodGet)
	s.router.HandleFunc("/search", s.handleSearchPage).Methods(http.MethodGet)

	s.router.Use(s.logMiddleware)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("wildmons server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// REST API handlers

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	ids, err := s.atlas.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"maps": ids})
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	m, err := s.atlas.LoadMap(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q is required"})
		return
	}
	mode, ok := s.matchMode(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "mode must be exact or contains"})
		return
	}
	res, err := s.atlas.Search(r.Context(), q, mode)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Web interface handlers

func (s *Server) handleHomePage(w http.ResponseWriter, r *http.Request) {
	ids, err := s.atlas.List(r.Context())
	if err != nil {
		s.renderPage(w, statusFor(err), render.Page{Error: "Failed to load map list."})
		return
	}
	page := render.Page{Maps: ids}
	if len(ids) > 0 {
		page.Selected = ids[0]
		s.fillMap(r.Context(), &page)
	}
	s.renderPage(w, http.StatusOK, page)
}

func (s *Server) handleMapRedirect(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/maps/"+url.PathEscape(id), http.StatusSeeOther)
}

func (s *Server) handleMapPage(w http.ResponseWriter, r *http.Request) {
	ids, err := s.atlas.List(r.Context())
	if err != nil {
		s.renderPage(w, statusFor(err), render.Page{Error: "Failed to load map list."})
		return
	}
	page := render.Page{Maps: ids, Selected: mux.Vars(r)["id"]}
	status := s.fillMap(r.Context(), &page)
	s.renderPage(w, status, page)
}

func (s *Server) handleSearchPage(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	page := render.Page{Query: q}
	if ids, err := s.atlas.List(r.Context()); err == nil {
		page.Maps = ids
	}
	if q == "" {
		page.Error = "Please enter a species name to search for."
		s.renderPage(w, http.StatusBadRequest, page)
		return
	}
	mode, _ := s.matchMode(r)
	res, err := s.atlas.Search(r.Context(), q, mode)
	if err != nil {
		page.Error = "Search failed."
		s.renderPage(w, statusFor(err), page)
		return
	}
	page.Search = &res
	s.renderPage(w, http.StatusOK, page)
}

func (s *Server) fillMap(ctx context.Context, page *render.Page) int {
	m, err := s.atlas.LoadMap(ctx, page.Selected)
	if err != nil {
		s.log.Warn("map load failed", zap.String("map", page.Selected), zap.Error(err))
		page.Error = "Failed to load map file: " + page.Selected
		return statusFor(err)
	}
	page.Map = &m
	return http.StatusOK
}

func (s *Server) matchMode(r *http.Request) (parser.MatchMode, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("mode"))
	if raw == "" {
		return s.defaultMode, true
	}
	mode := parser.MatchMode(strings.ToLower(raw))
	if !parser.ValidMatchMode(mode) {
		return s.defaultMode, false
	}
	return mode, true
}

func (s *Server) renderPage(w http.ResponseWriter, status int, page render.Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := render.HTML(w, page); err != nil {
		s.log.Error("render page failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, source.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
