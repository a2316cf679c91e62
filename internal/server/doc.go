// Package server exposes the playlist engine as a JSON API.
//
// # Routes
//
// [Server] mounts a chi router:
//   - GET /health and GET /metrics (Prometheus exposition)
//   - GET /auth/login and GET /auth/callback for the browser authorization code flow
//   - /api/* for listing, comparing, syncing, undoing and removing; these require a session
//
// # Sessions
//
// The access token comes from an "Authorization: Bearer" header or the plsync_token cookie.
// Granted scopes come from the X-Spotify-Scope header or the plsync_scope cookie; when neither is
// present the scope check is left to the Web API. The undo slot is keyed by the SHA-256 of the token.
//
// # Errors
//
// Engine errors map to statuses in one place (see errors.go). Failed batches answer 502 with the
// batches already committed, so clients can show what was applied.
//
// # CLI callback
//
// [OAuthHandler] serves the single callback of `plsync auth` on a temporary local server and
// publishes the exchanged token on a channel.
package server
