package services

import (
	"strings"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
)

var (
	// ReadScopes are needed to list and compare playlists.
	ReadScopes = []string{
		spotifyauth.ScopePlaylistReadPrivate,
		spotifyauth.ScopePlaylistReadCollaborative,
	}

	// ModifyScopes are needed for sync, undo and remove.
	ModifyScopes = []string{
		spotifyauth.ScopePlaylistModifyPublic,
		spotifyauth.ScopePlaylistModifyPrivate,
	}
)

// DefaultScopes is everything the authorize redirect asks for.
func DefaultScopes() []string {
	scopes := []string{spotifyauth.ScopeUserReadPrivate}
	scopes = append(scopes, ReadScopes...)
	return append(scopes, ModifyScopes...)
}

// RequireScopes checks the space separated granted scope string against required.
//
// An empty granted string means the scopes are unknown (e.g. a token pasted into the config by hand)
// and the check is left to the remote API.
func RequireScopes(granted string, required ...string) error {
	if strings.TrimSpace(granted) == "" {
		return nil
	}

	have := make(map[string]struct{})
	for _, s := range strings.Fields(granted) {
		have[s] = struct{}{}
	}

	var missing []string
	for _, s := range required {
		if _, ok := have[s]; !ok {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		return &ScopeError{Missing: missing}
	}
	return nil
}
