// Package auth exchanges Spotify client credentials for access tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// requestTimeout bounds every token exchange and catalog request.
const requestTimeout = 10 * time.Second

var (
	// ErrMissingCredentials is returned when SPOTIFY_ID or SPOTIFY_SECRET is not set.
	ErrMissingCredentials = errors.New("missing SPOTIFY_ID or SPOTIFY_SECRET environment variable")

	// ErrTokenExchange is returned when the token endpoint rejects the exchange
	// or cannot be reached.
	ErrTokenExchange = errors.New("token exchange failed")
)

// TokenProvider obtains app-level access tokens with the client-credentials
// grant. Tokens are reused until they expire.
type TokenProvider struct {
	configured bool
	src        oauth2.TokenSource
	baseCtx    context.Context
}

// Option configures a TokenProvider.
type Option func(*options)

type options struct {
	tokenURL   string
	httpClient *http.Client
}

// WithTokenURL overrides the token endpoint.
func WithTokenURL(url string) Option {
	return func(o *options) {
		if url != "" {
			o.tokenURL = url
		}
	}
}

// WithHTTPClient sets the HTTP client used for token exchanges.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// New creates a TokenProvider. Missing credentials are not an error here;
// Token reports ErrMissingCredentials so the service can start and answer
// with a configuration error.
func New(clientID, clientSecret string, opts ...Option) *TokenProvider {
	o := options{
		tokenURL:   spotifyauth.TokenURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     o.tokenURL,
	}

	// The token source keeps this context for refreshes, so it must outlive
	// any single request.
	baseCtx := context.WithValue(context.Background(), oauth2.HTTPClient, o.httpClient)

	return &TokenProvider{
		configured: clientID != "" && clientSecret != "",
		src:        cfg.TokenSource(baseCtx),
		baseCtx:    baseCtx,
	}
}

// Token returns a valid access token, exchanging credentials when the cached
// token is missing or expired.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	if !p.configured {
		return "", ErrMissingCredentials
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tok, err := p.src.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenExchange, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrTokenExchange)
	}
	return tok.AccessToken, nil
}

// HTTPClient returns a client that authorizes every request with a token
// from this provider.
func (p *TokenProvider) HTTPClient() *http.Client {
	c := oauth2.NewClient(p.baseCtx, p.src)
	c.Timeout = requestTimeout
	return c
}
