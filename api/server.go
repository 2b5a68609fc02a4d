package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wricardo/mcp-training/trainprogram/game/engine"
	"github.com/wricardo/mcp-training/trainprogram/game/metrics"
	"github.com/wricardo/mcp-training/trainprogram/game/service"
	"github.com/wricardo/mcp-training/trainprogram/transport/websocket"
)

// PlayIntentType is accepted by the intent endpoint in addition to the
// engine's intent kinds; it runs the queue and plays it back in the background.
const PlayIntentType = "play"

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	metrics *metrics.Recorder
	logger  *slog.Logger
	router  *mux.Router
}

// ServerOption configures the server
type ServerOption func(*Server)

// WithMetrics exposes recorder on /metrics
func WithMetrics(recorder *metrics.Recorder) ServerOption {
	return func(s *Server) { s.metrics = recorder }
}

// WithLogger sets the server logger
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server. When hub is set, intents sent by
// WebSocket clients are applied through the server like REST intents.
func NewServer(gameService service.GameService, hub *websocket.Hub, opts ...ServerOption) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		logger:  slog.Default(),
		router:  mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if hub != nil {
		hub.SetIntentHandler(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	// Unified sessions for multi-session view (must be before {id} pattern)
	api.HandleFunc("/sessions/unified", s.handleUnifiedSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game state and intents
	api.HandleFunc("/sessions/{id}/state", s.handleGetState).Methods("GET")
	api.HandleFunc("/sessions/{id}/intents", s.handleIntent).Methods("POST")
	api.HandleFunc("/sessions/{id}/title", s.handleGoToTitle).Methods("POST")
	api.HandleFunc("/sessions/{id}/level-select", s.handleGoToLevelSelect).Methods("POST")
	api.HandleFunc("/sessions/{id}/levels/{index}/start", s.handleStartLevel).Methods("POST")
	api.HandleFunc("/sessions/{id}/commands", s.handleAddCommand).Methods("POST")
	api.HandleFunc("/sessions/{id}/commands", s.handleClearQueue).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/commands/{index}", s.handleRemoveCommand).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/run", s.handleRun).Methods("POST")
	api.HandleFunc("/sessions/{id}/step", s.handleAdvanceStep).Methods("POST")
	api.HandleFunc("/sessions/{id}/finalize", s.handleFinalize).Methods("POST")
	api.HandleFunc("/sessions/{id}/play", s.handlePlay).Methods("POST")
	api.HandleFunc("/sessions/{id}/retry", s.handleRetry).Methods("POST")
	api.HandleFunc("/sessions/{id}/next-level", s.handleNextLevel).Methods("POST")
	api.HandleFunc("/sessions/{id}/skin", s.handleSelectSkin).Methods("PUT")

	// Catalogs
	api.HandleFunc("/catalogs", s.handleListCatalogs).Methods("GET")
	api.HandleFunc("/catalogs", s.handleCreateCatalog).Methods("POST")
	api.HandleFunc("/catalogs/reload", s.handleReloadCatalogs).Methods("POST")
	api.HandleFunc("/catalogs/{name}", s.handleGetCatalog).Methods("GET")
	api.HandleFunc("/catalogs/{name}/levels", s.handleCatalogLevels).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service and engine errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrCatalogNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrUnknownIntent),
		errors.Is(err, engine.ErrInvalidCommand),
		errors.Is(err, engine.ErrInvalidSkin),
		errors.Is(err, engine.ErrMissingIndex),
		errors.Is(err, service.ErrInvalidCatalog):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CatalogID string `json:"catalog_id,omitempty"`
	}

	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	session, err := s.service.CreateSession(r.Context(), req.CatalogID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Parse query parameters
	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else { // "accessed"
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj) // desc
	})

	total := len(sessions)
	limit := total
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < total {
			limit = l
		}
	}
	sessions = sessions[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// State and Intent Handlers

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetState(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// HandleIntent applies an intent sent over a WebSocket connection
func (s *Server) HandleIntent(ctx context.Context, sessionID string, intent engine.Intent) error {
	_, err := s.applyIntent(ctx, sessionID, intent)
	return err
}

// applyIntent dispatches intent, logs it and broadcasts the new state
func (s *Server) applyIntent(ctx context.Context, sessionID string, intent engine.Intent) (*service.IntentResult, error) {
	result, err := s.service.Dispatch(ctx, sessionID, intent)
	if err != nil {
		return nil, err
	}
	s.afterIntent(sessionID, intent.Kind(), result)
	return result, nil
}

// afterIntent writes the compact intent log line and notifies viewers
func (s *Server) afterIntent(sessionID string, kind engine.IntentKind, result *service.IntentResult) {
	if result.State != nil {
		if result.State.SessionID != "" {
			sessionID = result.State.SessionID
		}
		if s.hub != nil {
			s.hub.BroadcastState(sessionID, result.State)
		}
		s.logger.Info("intent",
			"session", sessionID,
			"kind", kind,
			"applied", result.Applied,
			"phase", fmt.Sprintf("%s/%s", result.State.ScreenPhase, result.State.PlaySubPhase),
			"cursor", result.State.Cursor,
		)
	}
}

func (s *Server) respondIntent(w http.ResponseWriter, r *http.Request, intent engine.Intent) {
	result, err := s.applyIntent(r.Context(), mux.Vars(r)["id"], intent)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	var env engine.IntentEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.EqualFold(strings.TrimSpace(env.Type), PlayIntentType) {
		s.handlePlay(w, r)
		return
	}

	intent, err := engine.DecodeIntent(env)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondIntent(w, r, intent)
}

func (s *Server) handleGoToTitle(w http.ResponseWriter, r *http.Request) {
	s.respondIntent(w, r, engine.GoToTitle{})
}

func (s *Server) handleGoToLevelSelect(w http.ResponseWriter, r *http.Request) {
	s.respondIntent(w, r, engine.GoToLevelSelect{})
}

func (s *Server) handleStartLevel(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid level index")
		return
	}
	s.respondIntent(w, r, engine.StartLevel{Index: index})
}

func (s *Server) handleAddCommand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cmd, err := engine.ParseCommand(req.Command)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondIntent(w, r, engine.AddCommand{Command: cmd})
}

func (s *Server) handleRemoveCommand(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid command index")
		return
	}
	s.respondIntent(w, r, engine.RemoveCommand{Index: index})
}

func (s *Server) handleClearQueue(w http.ResponseWriter, r *http.Request) {
	s.respondIntent(w, r, engine.ClearQueue{})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	s.respondIntent(w, r, engine.Run{})
}

func (s *Server) handleAdvanceStep(w http.ResponseWriter, r *http.Request) {
	s.respondIntent(w, r, engine.AdvanceStep{})
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	s.respondIntent(w, r, engine.FinalizeExecution{})
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	s.respondIntent(w, r, engine.Retry{})
}

func (s *Server) handleNextLevel(w http.ResponseWriter, r *http.Request) {
	s.respondIntent(w, r, engine.NextLevel{})
}

func (s *Server) handleSelectSkin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Skin string `json:"skin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	skin, err := engine.ParseVehicleSkin(req.Skin)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondIntent(w, r, engine.SelectVehicleSkin{Skin: skin})
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.Play(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.afterIntent(sessionID, engine.KindRun, result)

	respondJSON(w, http.StatusOK, result)
}

// Catalog Handlers

func (s *Server) handleListCatalogs(w http.ResponseWriter, r *http.Request) {
	catalogs, err := s.service.ListCatalogs(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, catalogs)
}

func (s *Server) handleReloadCatalogs(w http.ResponseWriter, r *http.Request) {
	catalogs, err := s.service.ReloadCatalogs(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, catalogs)
}

func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := s.service.LoadCatalog(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, catalog)
}

func (s *Server) handleCatalogLevels(w http.ResponseWriter, r *http.Request) {
	catalog, err := s.service.LoadCatalog(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	summaries := make([]engine.LevelSummary, 0, catalog.Len())
	for _, level := range catalog.Levels {
		summaries = append(summaries, engine.SummarizeLevel(level))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":   catalog.Name,
		"levels": summaries,
	})
}

func (s *Server) handleCreateCatalog(w http.ResponseWriter, r *http.Request) {
	var catalog engine.Catalog
	if err := json.NewDecoder(r.Body).Decode(&catalog); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if catalog.Name == "" {
		respondError(w, http.StatusBadRequest, "Catalog name is required")
		return
	}

	if err := s.service.SaveCatalog(r.Context(), catalog.Name, &catalog); err != nil {
		respondError(w, statusFor(err), fmt.Sprintf("Failed to save catalog: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "Catalog saved successfully",
		"catalog_id": catalog.Name,
	})
}

// Unified Sessions Handler

func (s *Server) handleUnifiedSessions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var sessions []*service.SessionInfo

	if sessionIDs := query.Get("sessionIds"); sessionIDs != "" {
		ids := strings.Split(sessionIDs, ",")
		sessions = make([]*service.SessionInfo, 0, len(ids))
		for _, id := range ids {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if session, err := s.service.GetSession(r.Context(), id); err == nil {
				sessions = append(sessions, session)
			}
		}
	} else {
		allSessions, err := s.service.ListSessions(r.Context())
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		catalogID := query.Get("catalogId")
		sessions = make([]*service.SessionInfo, 0, len(allSessions))
		for _, session := range allSessions {
			if catalogID == "" || session.CatalogID == catalogID {
				sessions = append(sessions, session)
			}
		}
	}

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })

	catalogName := ""
	levelCount := 0
	if len(sessions) > 0 {
		catalogName = sessions[0].CatalogName
		if sessions[0].State != nil {
			levelCount = sessions[0].State.LevelCount
		}
	}

	entries := make([]map[string]interface{}, 0, len(sessions))
	for _, session := range sessions {
		entries = append(entries, map[string]interface{}{
			"session_id":    session.ID,
			"catalog_id":    session.CatalogID,
			"state":         session.State,
			"created_at":    session.CreatedAt,
			"last_accessed": session.LastAccessedAt,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"catalog_name": catalogName,
		"level_count":  levelCount,
		"sessions":     entries,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "WebSocket not available", http.StatusServiceUnavailable)
		return
	}

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, session.ID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
