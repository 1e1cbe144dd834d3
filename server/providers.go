package server

import "github.com/minjispace/web-pet/pkg/providers"

// Aliases so embedders importing only the server package can name the
// provider contracts.
type (
	// IdentityProvider authenticates the player
	IdentityProvider = providers.IdentityProvider
	// ProfileStore persists and streams profile documents
	ProfileStore = providers.ProfileStore
	// Session is the authenticated identity snapshot
	Session = providers.Session
)
