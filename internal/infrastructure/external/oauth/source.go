package oauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Keys names the settings entries a refreshed token is written back to
type Keys struct {
	Access  string
	Refresh string
}

// TokenStore persists refreshed credentials for a user
type TokenStore interface {
	StoreTokens(ctx context.Context, userID string, values map[string]string) error
}

// Source holds the access token of one user and refreshes it through the
// OAuth2 refresh token grant when it is missing or rejected.
type Source struct {
	name       string
	cfg        *oauth2.Config
	missingMsg string

	mu      sync.Mutex
	access  string
	refresh string

	userID string
	keys   Keys
	store  TokenStore
	logger *zap.Logger
}

// SourceOptions configures a Source
type SourceOptions struct {
	// Name prefixes refresh errors, e.g. "Google OAuth"
	Name string
	// Config is nil when the refresh flow is not configured
	Config       *oauth2.Config
	AccessToken  string
	RefreshToken string
	// MissingMessage is returned when there is neither a token nor a refresh flow
	MissingMessage string
	UserID         string
	Keys           Keys
	Store          TokenStore
	Logger         *zap.Logger
}

// NewSource creates a token source
func NewSource(opts SourceOptions) *Source {
	return &Source{
		name:       opts.Name,
		cfg:        opts.Config,
		missingMsg: opts.MissingMessage,
		access:     strings.TrimSpace(opts.AccessToken),
		refresh:    strings.TrimSpace(opts.RefreshToken),
		userID:     opts.UserID,
		keys:       opts.Keys,
		store:      opts.Store,
		logger:     opts.Logger,
	}
}

// CanRefresh reports whether a refresh token and client credentials exist
func (s *Source) CanRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg != nil && s.refresh != ""
}

// AccessToken returns the current token, refreshing first when there is none
func (s *Source) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	access := s.access
	s.mu.Unlock()
	if access != "" {
		return access, nil
	}
	if !s.CanRefresh() {
		msg := s.missingMsg
		if msg == "" {
			msg = s.name + " access token is missing."
		}
		return "", errors.New(msg)
	}
	return s.Refresh(ctx)
}

// Refresh exchanges the refresh token for a new access token and writes the
// new credentials back to the user's settings
func (s *Source) Refresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg == nil || s.refresh == "" {
		return "", fmt.Errorf("%s refresh token flow is not configured.", s.name)
	}

	token, err := s.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: s.refresh}).Token()
	if err != nil {
		return "", fmt.Errorf("%s refresh failed: %w", s.name, err)
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return "", fmt.Errorf("%s refresh did not include access_token.", s.name)
	}

	s.access = strings.TrimSpace(token.AccessToken)
	if rt := strings.TrimSpace(token.RefreshToken); rt != "" {
		s.refresh = rt
	}
	s.persist(ctx)
	return s.access, nil
}

func (s *Source) persist(ctx context.Context) {
	if s.store == nil || s.userID == "" {
		return
	}
	values := map[string]string{s.keys.Access: s.access}
	if s.keys.Refresh != "" && s.refresh != "" {
		values[s.keys.Refresh] = s.refresh
	}
	if err := s.store.StoreTokens(ctx, s.userID, values); err != nil && s.logger != nil {
		s.logger.Warn("failed to persist refreshed oauth token",
			zap.String("provider", s.name),
			zap.String("user_id", s.userID),
			zap.Error(err),
		)
	}
}
