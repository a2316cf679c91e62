// Package services is the Spotify Web API access layer used by the sync engine.
//
// # Fetcher
//
// [Fetcher] is the single authenticated HTTP path to the API. It takes the bearer token from an
// [oauth2.TokenSource], retries 429 responses after the advertised Retry-After delay (five attempts in
// total), optionally paces requests with a token bucket, and reports every other failure as a typed error.
//
// # Errors
//
// Failures are typed so callers can branch with errors.As and errors.Is:
//   - [AuthError] : no usable access token, matches [shared.ErrNotAuthenticated]
//   - [APIError] : non-2xx response with status and decoded details, matches [shared.ErrAPIRequest]
//   - [ScopeError] : granted scopes lack what an operation needs, matches [shared.ErrMissingScope]
//
// [ScopeError] is produced locally by [RequireScopes] and never by a remote call.
//
// # Pagination
//
// [WalkPages] follows next cursors one page at a time, bounded by a page cap and a repeated-cursor check.
//
// # Mapping
//
// [MapTrack] and [MapPlaylist] convert wire records to [models.Track] and [models.PlaylistSummary].
// Deleted or unavailable playlist items are dropped, never fatal.
//
// # Auth
//
// [NewAuthenticator] wraps the zmb3/spotify authenticator for the authorize redirect and code exchange;
// [RefreshingTokenSource] renews saved CLI tokens.
package services
