package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"printq/internal/config"
	"printq/internal/logging"
	"printq/internal/request"
	"printq/internal/store"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

type requestListResponse struct {
	Requests []*request.Request `json:"requests"`
	Page     int                `json:"page"`
	Pages    int                `json:"pages"`
	Total    int                `json:"total"`
}

type createRequestPayload struct {
	Requester request.Requester `json:"requester"`
	Group     string            `json:"group"`
	Purpose   string            `json:"purpose"`
	Payload   request.Payload   `json:"payload"`
}

type commentPayload struct {
	Comment string `json:"comment"`
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}

	token := cfg.Paths.APIToken
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/requests", authMiddleware(token, srv.handleRequests))
	mux.HandleFunc("/api/requests/", authMiddleware(token, srv.handleRequest))
	mux.HandleFunc("/api/cleanup", authMiddleware(token, srv.handleCleanup))
	mux.Handle("/metrics", d.metrics.handler())

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status())
}

func (s *apiServer) handleRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listRequests(w, r)
	case http.MethodPost:
		s.createRequest(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) listRequests(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var requests []*request.Request
	switch scope := strings.TrimSpace(query.Get("scope")); scope {
	case "", "active":
		requests = s.daemon.store.ListActive()
	case "archive":
		requests = s.daemon.store.ListArchived()
	default:
		s.writeError(w, http.StatusBadRequest, "unknown scope "+strconv.Quote(scope))
		return
	}

	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, ok := request.ParseStatus(raw)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unknown status "+strconv.Quote(raw))
			return
		}
		filtered := requests[:0]
		for _, req := range requests {
			if req.Status == status {
				filtered = append(filtered, req)
			}
		}
		requests = filtered
	}

	pageIndex := 0
	if raw := query.Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		pageIndex = parsed - 1
	}

	page := store.PageOf(requests, s.daemon.cfg.Store.PageSize, pageIndex)
	s.writeJSON(w, http.StatusOK, requestListResponse{
		Requests: page.Requests,
		Page:     page.Index + 1,
		Pages:    store.PageCount(page.Total, page.Size),
		Total:    page.Total,
	})
}

func (s *apiServer) createRequest(w http.ResponseWriter, r *http.Request) {
	var payload createRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := s.daemon.store.Create(payload.Requester, payload.Group, payload.Purpose, payload.Payload)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.daemon.metrics.observeSummary(s.daemon.store.Stats())
	s.writeJSON(w, http.StatusCreated, created)
}

// handleRequest serves /api/requests/{id} and its action sub-routes.
func (s *apiServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/requests/")
	idPart, action, _ := strings.Cut(rest, "/")
	if idPart == "" || strings.Contains(action, "/") {
		s.writeError(w, http.StatusNotFound, "request not found")
		return
	}

	id, err := s.daemon.store.ResolveID(idPart)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		req, err := s.daemon.store.Get(id)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, req)
	case "advance":
		s.advanceRequest(w, r, id)
	case "comment":
		s.commentRequest(w, r, id)
	case "archive":
		s.archiveRequest(w, r, id)
	default:
		s.writeError(w, http.StatusNotFound, "unknown action "+strconv.Quote(action))
	}
}

func (s *apiServer) advanceRequest(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	current, err := s.daemon.store.GetActive(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	target, ok := request.Next(current.Status)
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		target, ok = request.ParseStatus(raw)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unknown status "+strconv.Quote(raw))
			return
		}
	} else if !ok {
		s.writeError(w, http.StatusConflict, "request already in its final status")
		return
	}

	updated, err := s.daemon.store.Transition(id, target)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.daemon.metrics.observeSummary(s.daemon.store.Stats())
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *apiServer) commentRequest(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var payload commentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := s.daemon.store.AddComment(id, payload.Comment)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *apiServer) archiveRequest(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	archived, err := s.daemon.store.Archive(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.daemon.metrics.observeSummary(s.daemon.store.Stats())
	s.writeJSON(w, http.StatusOK, archived)
}

func (s *apiServer) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	result, err := s.daemon.RunCleanup(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, request.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, request.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, request.ErrInvalidTransition):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("api response encode failed", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
