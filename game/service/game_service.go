package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/mcp-training/trainprogram/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrCatalogNotFound = errors.New("catalog not found")
	ErrInvalidCatalog  = errors.New("invalid catalog")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, catalogID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error
	CleanupExpiredSessions(ctx context.Context, maxAge time.Duration) int

	// Game Operations
	Dispatch(ctx context.Context, sessionID string, intent engine.Intent) (*IntentResult, error)
	Play(ctx context.Context, sessionID string) (*IntentResult, error)

	// Game State
	GetState(ctx context.Context, sessionID string) (*StateView, error)

	// Catalogs
	ListCatalogs(ctx context.Context) ([]*CatalogInfo, error)
	LoadCatalog(ctx context.Context, catalogID string) (*engine.Catalog, error)
	SaveCatalog(ctx context.Context, catalogID string, catalog *engine.Catalog) error
	ReloadCatalogs(ctx context.Context) ([]*CatalogInfo, error)

	// Close stops every background playback
	Close()
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, catalogID string, catalog *engine.Catalog) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	CleanupExpiredSessions(maxAge time.Duration) []string
	Count() int
}

// CatalogManager handles level catalog loading
type CatalogManager interface {
	LoadCatalog(name string) (*engine.Catalog, error)
	ListCatalogs() ([]*CatalogInfo, error)
	GetDefault() *engine.Catalog
	SaveCatalog(name string, catalog *engine.Catalog) error
	RefreshCache()
}

// Notifier receives session state changes made outside a request, such as
// background playback steps, and the playback events
type Notifier interface {
	BroadcastState(sessionID string, view *StateView)
	BroadcastEvent(sessionID string, event string, data interface{})
}

// Session represents an active game session
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Catalog        *engine.Catalog
	CatalogID      string
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
