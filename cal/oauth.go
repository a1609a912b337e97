// ABOUTME: OAuth token storage and Calendar service construction
// ABOUTME: Loads a stored Google token from XDG data and builds the API client
package cal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// NewOAuthConfig creates the OAuth2 config for Google Calendar. Client
// credentials come from the environment; the interactive grant itself
// happens outside this tool (any OAuth playground or helper works), only
// the stored token is consumed here.
func NewOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  "http://localhost:8080/oauth/callback",
		Scopes: []string{
			"https://www.googleapis.com/auth/calendar.readonly",
		},
		Endpoint: google.Endpoint,
	}
}

// TokenPath returns the XDG-compliant token location.
func TokenPath() string {
	return filepath.Join(xdg.DataHome, "taskbridge", "google-credentials.json")
}

// SaveToken writes the token with restricted permissions.
func SaveToken(token *oauth2.Token) error {
	path := TokenPath()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	return nil
}

// LoadToken reads the stored token.
func LoadToken() (*oauth2.Token, error) {
	f, err := os.Open(TokenPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no google token found at %s", TokenPath())
		}
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	return &token, nil
}

// NewService creates a Calendar API service from an OAuth token. The
// returned token source refreshes transparently when the token expires;
// callers persist the rotation with PersistIfRefreshed.
func NewService(ctx context.Context, token *oauth2.Token) (*calendar.Service, oauth2.TokenSource, error) {
	if token == nil {
		return nil, nil, fmt.Errorf("token cannot be nil")
	}

	source := NewOAuthConfig().TokenSource(ctx, token)
	client := oauth2.NewClient(ctx, source)

	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return service, source, nil
}

// PersistIfRefreshed writes the token back to disk when the source rotated
// it, so the next run does not burn another refresh.
func PersistIfRefreshed(source oauth2.TokenSource, original *oauth2.Token) error {
	current, err := source.Token()
	if err != nil {
		return fmt.Errorf("failed to read token from source: %w", err)
	}
	if current.AccessToken == original.AccessToken {
		return nil
	}
	return SaveToken(current)
}
