package providers

import (
	"context"

	"github.com/minjispace/web-pet/game"
)

// Session is the identity-provider view of an authenticated user
type Session struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
}

// AuthUser converts the session to the domain auth-user shape
func (s *Session) AuthUser() *game.AuthUser {
	return &game.AuthUser{
		ID:    s.UserID,
		Name:  s.DisplayName,
		Photo: s.PhotoURL,
	}
}

// IdentityProvider is the external identity service boundary.
//
// SignIn runs the interactive sign-in flow and yields a session.
// CurrentSession returns the ambient session if one is persisted, or
// (nil, nil) when the user is signed out. SignOut invalidates the session.
type IdentityProvider interface {
	SignIn(ctx context.Context) (*Session, error)
	SignOut(ctx context.Context) error
	CurrentSession(ctx context.Context) (*Session, error)
}

// ProfileStore is the external document store boundary, addressed by user id.
//
// Get returns (nil, nil) when no document exists. Set overwrites the whole
// document. Update applies a shallow top-level merge: fields present in the
// patch replace the stored fields wholesale, everything else is untouched.
// Subscribe delivers the full document on every remote change until ctx is
// done; the returned channel is closed on cancellation.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*game.UserProfile, error)
	Set(ctx context.Context, userID string, doc *game.UserProfile) error
	Update(ctx context.Context, userID string, patch game.ProfilePatch) error
	Subscribe(ctx context.Context, userID string) (<-chan *game.UserProfile, error)
}
