package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/desertthunder/plsync/internal/shared"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// NewAuthenticator builds the Spotify OAuth authenticator from config. It asks for [DefaultScopes] when scopes is empty.
func NewAuthenticator(config shared.SpotifyConfig, scopes ...string) (*spotifyauth.Authenticator, error) {
	if config.ClientID == "" {
		return nil, fmt.Errorf("%w: spotify client_id", shared.ErrMissingCredentials)
	}
	if config.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_secret", shared.ErrMissingCredentials)
	}
	if len(scopes) == 0 {
		scopes = DefaultScopes()
	}

	return spotifyauth.New(
		spotifyauth.WithClientID(config.ClientID),
		spotifyauth.WithClientSecret(config.ClientSecret),
		spotifyauth.WithRedirectURL(config.RedirectURI),
		spotifyauth.WithScopes(scopes...),
	), nil
}

// GrantedScope returns the space separated scope string the token endpoint reported.
func GrantedScope(token *oauth2.Token) string {
	if token == nil {
		return ""
	}
	scope, _ := token.Extra("scope").(string)
	return scope
}

// StaticToken wraps a bearer token received from a browser session.
func StaticToken(accessToken string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
}

// Refresher renews an expired token.
type Refresher interface {
	RefreshToken(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
}

// RefreshingTokenSource hands out the stored token and renews it through a [Refresher] once it expires.
//
// OnRefresh, when set, receives every renewed token so it can be persisted.
type RefreshingTokenSource struct {
	ctx       context.Context
	refresher Refresher
	OnRefresh func(*oauth2.Token)

	mu    sync.Mutex
	token *oauth2.Token
}

// NewRefreshingTokenSource creates a token source seeded with token.
func NewRefreshingTokenSource(ctx context.Context, refresher Refresher, token *oauth2.Token) *RefreshingTokenSource {
	return &RefreshingTokenSource{ctx: ctx, refresher: refresher, token: token}
}

func (s *RefreshingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == nil || s.token.AccessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}
	if s.token.Valid() || s.token.RefreshToken == "" || s.refresher == nil {
		return s.token, nil
	}

	fresh, err := s.refresher.RefreshToken(s.ctx, s.token)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = s.token.RefreshToken
	}
	s.token = fresh
	if s.OnRefresh != nil {
		s.OnRefresh(fresh)
	}
	return fresh, nil
}

// NewSpotifyFetcher wires a [Fetcher] from the API section of the configuration.
func NewSpotifyFetcher(tokens oauth2.TokenSource, api shared.APIConfig, opts ...FetcherOption) *Fetcher {
	base := []FetcherOption{
		WithRateLimit(api.RequestsPerSecond),
		WithMaxAttempts(api.MaxAttempts),
	}
	if api.BaseURL != "" {
		base = append(base, WithBaseURL(api.BaseURL))
	}
	if api.DefaultRetryAfterMS > 0 {
		base = append(base, WithDefaultRetryAfter(time.Duration(api.DefaultRetryAfterMS)*time.Millisecond))
	}
	if api.TimeoutSeconds > 0 {
		base = append(base, WithHTTPClient(&http.Client{Timeout: time.Duration(api.TimeoutSeconds) * time.Second}))
	}
	return NewFetcher(tokens, append(base, opts...)...)
}
