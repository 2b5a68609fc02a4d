// Package session provides session management for the Train Program Game.
//
// The session package implements:
//   - Thread-safe in-memory session storage and retrieval
//   - Short unique session ID generation
//   - Session expiry based on last access time
//
// Core Types:
//
// Manager is the session store used by the game service. Each
// service.Session owns its own engine.GameEngine together with the catalog
// it plays and bookkeeping such as creation and last access time.
//
// Session Identifiers:
//
// Generated IDs are 4 hexadecimal characters taken from crypto/rand, retried
// on collision. Callers may also supply their own IDs. Lookups ignore case.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", "classic", catalog)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sessionID)
//
//	// Drop sessions idle for more than a day
//	removed := manager.CleanupExpiredSessions(24 * time.Hour)
//
// Sessions are not persisted; restarting the process starts from an empty
// store.
package session
