package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/trainprogram/game/engine"
	"github.com/wricardo/mcp-training/trainprogram/game/metrics"
	"github.com/wricardo/mcp-training/trainprogram/game/stepper"
)

// gameServiceImpl implements the GameService interface. A single mutex
// serializes every intent, whether it comes from a request or from a
// background playback, so each session sees one ordered stream of intents.
type gameServiceImpl struct {
	sessions SessionManager
	catalogs CatalogManager
	notifier Notifier
	metrics  *metrics.Recorder
	logger   *slog.Logger
	pacing   stepper.Pacing

	mu        sync.Mutex
	playbacks map[string]*playback
	wg        sync.WaitGroup
}

// playback tracks one background stepper
type playback struct {
	cancel context.CancelFunc
}

// Option configures the game service
type Option func(*gameServiceImpl)

// WithNotifier sets the receiver of background playback updates
func WithNotifier(n Notifier) Option {
	return func(s *gameServiceImpl) { s.notifier = n }
}

// WithMetrics sets the metrics recorder
func WithMetrics(r *metrics.Recorder) Option {
	return func(s *gameServiceImpl) { s.metrics = r }
}

// WithLogger sets the logger; nil keeps slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(s *gameServiceImpl) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPacing sets the delays used by background playback
func WithPacing(p stepper.Pacing) Option {
	return func(s *gameServiceImpl) { s.pacing = p }
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, catalogs CatalogManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions:  sessions,
		catalogs:  catalogs,
		logger:    slog.Default(),
		pacing:    stepper.DefaultPacing(),
		playbacks: make(map[string]*playback),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getCatalogID returns the catalog_id for a catalog display name
func (s *gameServiceImpl) getCatalogID(catalogName string) string {
	available, err := s.catalogs.ListCatalogs()
	if err == nil {
		for _, info := range available {
			if info.Name == catalogName {
				return info.CatalogID
			}
		}
	}
	return "default"
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, catalogID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var catalog *engine.Catalog
	if catalogID != "" {
		loaded, err := s.catalogs.LoadCatalog(catalogID)
		if err != nil {
			if errors.Is(err, ErrCatalogNotFound) {
				var ids []string
				if available, listErr := s.catalogs.ListCatalogs(); listErr == nil {
					for _, info := range available {
						ids = append(ids, info.CatalogID)
					}
				}
				return nil, fmt.Errorf("%w: '%s'. Available catalogs: %v", ErrCatalogNotFound, catalogID, ids)
			}
			return nil, fmt.Errorf("failed to load catalog %s: %w", catalogID, err)
		}
		catalog = loaded
	} else {
		catalog = s.catalogs.GetDefault()
		catalogID = s.getCatalogID(catalog.Name)
	}

	sess, err := s.sessions.Create("", catalogID, catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.metrics.SessionsActive(s.sessions.Count())
	s.logger.Info("session created", "session", sess.ID, "catalog", catalogID, "levels", catalog.Len())

	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession stops any playback and removes the session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return fmt.Errorf("session %q: %w", sessionID, err)
	}
	s.stopPlayback(sess.ID)

	if err := s.sessions.Delete(sess.ID); err != nil {
		return fmt.Errorf("session %q: %w", sessionID, err)
	}

	s.metrics.SessionsActive(s.sessions.Count())
	s.logger.Info("session deleted", "session", sess.ID)
	return nil
}

// CleanupExpiredSessions drops sessions idle for longer than maxAge
func (s *gameServiceImpl) CleanupExpiredSessions(ctx context.Context, maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.sessions.CleanupExpiredSessions(maxAge)
	for _, id := range removed {
		s.stopPlayback(id)
	}
	if len(removed) > 0 {
		s.metrics.SessionsActive(s.sessions.Count())
		s.logger.Info("expired sessions removed", "count", len(removed), "max_age", maxAge)
	}
	return len(removed)
}

// GetState returns the current state view of a session
func (s *gameServiceImpl) GetState(ctx context.Context, sessionID string) (*StateView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// Dispatch applies a user intent. An applied intent stops the session's
// background playback, except for a skin change, which does not touch
// playback state.
func (s *gameServiceImpl) Dispatch(ctx context.Context, sessionID string, intent engine.Intent) (*IntentResult, error) {
	if intent == nil {
		return nil, engine.ErrUnknownIntent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	if intent.Kind() != engine.KindSelectVehicleSkin &&
		engine.Permits(sess.Engine.GetState(), sess.Catalog, intent) {
		s.stopPlayback(sess.ID)
	}

	_, applied := s.apply(sess, intent)
	return &IntentResult{Applied: applied, State: s.view(sess)}, nil
}

// Play runs the queue and reveals the trace in the background at the
// service's pacing. Any running playback for the session is replaced.
func (s *gameServiceImpl) Play(ctx context.Context, sessionID string) (*IntentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	s.stopPlayback(sess.ID)
	state, applied := s.apply(sess, engine.Run{})
	if !applied {
		return &IntentResult{Applied: false, State: s.view(sess)}, nil
	}

	playCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	pb := &playback{cancel: cancel}
	s.playbacks[sess.ID] = pb

	s.wg.Add(1)
	go s.runPlayback(playCtx, sess, pb, state)

	return &IntentResult{Applied: true, State: s.view(sess)}, nil
}

// ListCatalogs returns all available catalogs
func (s *gameServiceImpl) ListCatalogs(ctx context.Context) ([]*CatalogInfo, error) {
	return s.catalogs.ListCatalogs()
}

// LoadCatalog loads a catalog by id
func (s *gameServiceImpl) LoadCatalog(ctx context.Context, catalogID string) (*engine.Catalog, error) {
	catalog, err := s.catalogs.LoadCatalog(catalogID)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", catalogID, err)
	}
	return catalog, nil
}

// SaveCatalog validates and stores a catalog
func (s *gameServiceImpl) SaveCatalog(ctx context.Context, catalogID string, catalog *engine.Catalog) error {
	if err := s.catalogs.SaveCatalog(catalogID, catalog); err != nil {
		return fmt.Errorf("failed to save catalog %s: %w", catalogID, err)
	}
	s.logger.Info("catalog saved", "catalog", catalogID, "levels", catalog.Len())
	return nil
}

// ReloadCatalogs drops cached catalogs so edited files are read again. Running
// sessions keep the catalog they were created with.
func (s *gameServiceImpl) ReloadCatalogs(ctx context.Context) ([]*CatalogInfo, error) {
	s.catalogs.RefreshCache()
	infos, err := s.catalogs.ListCatalogs()
	if err != nil {
		return nil, fmt.Errorf("failed to list catalogs: %w", err)
	}
	s.logger.Info("catalogs reloaded", "count", len(infos))
	return infos, nil
}

// Close cancels every background playback and waits for them to stop
func (s *gameServiceImpl) Close() {
	s.mu.Lock()
	for id := range s.playbacks {
		s.stopPlayback(id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// getSession looks up a session and marks it accessed. Callers hold s.mu.
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sess.ID)
	return sess, nil
}

// apply dispatches intent to the session engine and records it. Callers hold s.mu.
func (s *gameServiceImpl) apply(sess *Session, intent engine.Intent) (engine.SessionState, bool) {
	state, applied := sess.Engine.Dispatch(intent)
	s.sessions.UpdateLastAccessed(sess.ID)

	s.metrics.Intent(intent.Kind(), applied)
	if applied {
		switch intent.(type) {
		case engine.Run:
			s.metrics.Run(state.Trace)
		case engine.FinalizeExecution:
			if level, ok := sess.Catalog.Level(state.CurrentLevelIndex); ok {
				s.metrics.Outcome(level.ID, state.ScreenPhase == engine.PhaseSuccess)
			}
		}
	}

	s.logger.Debug("intent",
		"session", sess.ID,
		"kind", intent.Kind(),
		"applied", applied,
		"phase", state.ScreenPhase,
		"sub_phase", state.PlaySubPhase,
		"cursor", state.Cursor,
	)
	return state, applied
}

// stopPlayback cancels the session's background playback, if any. Callers hold s.mu.
func (s *gameServiceImpl) stopPlayback(sessionID string) {
	if pb, ok := s.playbacks[sessionID]; ok {
		pb.cancel()
		delete(s.playbacks, sessionID)
	}
}

// runPlayback drives the stepper for one run. Every step goes through
// apply under s.mu and is dropped once the playback has been cancelled.
func (s *gameServiceImpl) runPlayback(ctx context.Context, sess *Session, pb *playback, state engine.SessionState) {
	defer s.wg.Done()

	start := time.Now()
	dispatcher := stepper.DispatcherFunc(func(ctx context.Context, intent engine.Intent) (engine.SessionState, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := ctx.Err(); err != nil {
			return sess.Engine.GetState(), err
		}
		state, _ := s.apply(sess, intent)
		return state, nil
	})

	st := stepper.New(s.pacing, stepper.WithOnStep(func(state engine.SessionState) {
		s.notify(sess)
		if step := state.CurrentStep(); step != nil && state.PlaySubPhase == engine.SubPhaseExecuting && step.Command == engine.CmdSignal {
			s.notifyEvent(sess.ID, EventSignal, SignalEvent{Step: state.Cursor, Position: step.PoseAfter.Position})
		}
	}))
	final, err := st.Play(ctx, dispatcher, state)

	result := metrics.PlaybackCompleted
	switch {
	case err == nil:
	case errors.Is(err, stepper.ErrAbandoned):
		result = metrics.PlaybackAbandoned
	case errors.Is(err, context.Canceled):
		result = metrics.PlaybackCancelled
	default:
		result = metrics.PlaybackFailed
		s.logger.Error("playback failed", "session", sess.ID, "error", err)
	}
	s.metrics.Playback(result, time.Since(start))
	s.logger.Debug("playback finished", "session", sess.ID, "result", result, "elapsed", time.Since(start))

	s.mu.Lock()
	if s.playbacks[sess.ID] == pb {
		delete(s.playbacks, sess.ID)
	}
	s.mu.Unlock()

	if result == metrics.PlaybackCompleted {
		s.notify(sess)
		if level, ok := sess.Catalog.Level(final.CurrentLevelIndex); ok {
			s.notifyEvent(sess.ID, EventPlaybackFinished, PlaybackFinishedEvent{
				LevelID: level.ID,
				Outcome: outcome(final.ScreenPhase),
			})
		}
	}
}

// notify sends the session's current view to the notifier
func (s *gameServiceImpl) notify(sess *Session) {
	if s.notifier == nil {
		return
	}
	s.mu.Lock()
	view := s.view(sess)
	s.mu.Unlock()
	s.notifier.BroadcastState(sess.ID, view)
}

// notifyEvent sends a playback event to the notifier
func (s *gameServiceImpl) notifyEvent(sessionID, event string, data interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.BroadcastEvent(sessionID, event, data)
}

// view builds the state view of a session. Callers hold s.mu.
func (s *gameServiceImpl) view(sess *Session) *StateView {
	_, active := s.playbacks[sess.ID]
	return NewStateView(sess.ID, sess.Engine.GetState(), sess.Catalog, active)
}

// sessionInfo builds the session summary. Callers hold s.mu.
func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		CatalogID:      sess.CatalogID,
		CatalogName:    sess.Catalog.Name,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		State:          s.view(sess),
	}
}
