package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/plsync/internal/server"
	"github.com/desertthunder/plsync/internal/services"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/go-chi/chi/v5"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Auth performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local HTTP server on the redirect URI, opens the browser for user authorization, and saves the exchanged
// token to the config file.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if r.configPath == "" {
		r.configPath = cmd.String("config")
	}

	auth := r.auth
	if auth == nil {
		a, err := services.NewAuthenticator(r.config.Credentials.Spotify)
		if err != nil {
			return fmt.Errorf("%w: set credentials.spotify.client_id and client_secret in %s", err, r.configPath)
		}
		auth = a
	}

	token, err := r.doOAuth(ctx, auth, cmd.Duration("timeout"))
	if err != nil {
		return err
	}

	if err := r.saveToken(token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n", r.configPath)
	if scope := services.GrantedScope(token); scope != "" {
		r.writePlain("Granted scopes: %s\n", scope)
	}
	r.writePlain("\nYou can now use: plsync playlists\n")
	return nil
}

func (r *Runner) doOAuth(ctx context.Context, auth server.Authenticator, timeout time.Duration) (*oauth2.Token, error) {
	redirectURI := r.config.Credentials.Spotify.RedirectURI
	redirect, err := url.Parse(redirectURI)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("%w: redirect_uri %q", shared.ErrInvalidConfig, redirectURI)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	oauthHandler, err := server.NewOAuthHandler(auth, redirectURI, state)
	if err != nil {
		return nil, err
	}
	router := chi.NewRouter()
	for _, path := range oauthHandler.Routes() {
		router.Handle(path, oauthHandler)
	}

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}
	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", redirect.Host)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := auth.AuthURL(state)
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	r.writePlain("→ Waiting for authorization (%v timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %v", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}
