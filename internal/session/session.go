// Package session carries the per-user context handed to the engine.
//
// The identity collaborator supplies an opaque user identifier; the engine
// never inspects its structure. Session replaces any ambient per-user state:
// the gate, forms and habit engine all receive it explicitly at construction.
package session

import "github.com/ramionh/thrive-well-guide-sub001/internal/models"

// Session identifies the active user for one request or interaction.
type Session struct {
	UserID string
}

// New creates a session for the given opaque user identifier.
func New(userID string) (*Session, error) {
	if userID == "" {
		return nil, models.ErrEmptyUserID
	}
	return &Session{UserID: userID}, nil
}
