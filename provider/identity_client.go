package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/minjispace/web-pet/auth"
	"github.com/minjispace/web-pet/config"
	"github.com/minjispace/web-pet/httpclient"
	"github.com/minjispace/web-pet/pkg/providers"
)

// IdentityClient implements providers.IdentityProvider against the
// platform identity service. Sign-in exchanges a device code for a JWT
// session token; the token is kept for the lifetime of the session and
// validated locally on restore.
type IdentityClient struct {
	http        *httpclient.Client
	tokenSecret string
	logger      zerolog.Logger

	mu    sync.Mutex
	token string
}

// NewIdentityClient creates a new identity service client
func NewIdentityClient(cfg *config.Config, logger zerolog.Logger) *IdentityClient {
	return &IdentityClient{
		http: httpclient.New(httpclient.Config{
			BaseURL: cfg.Auth.BaseURL,
			Timeout: cfg.Auth.Timeout,
			Logger:  logger,
		}),
		tokenSecret: cfg.Auth.TokenSecret,
		logger:      logger.With().Str("component", "identity_client").Logger(),
	}
}

// signInResponse is the identity service sign-in payload
type signInResponse struct {
	Data struct {
		Token string `json:"token"`
	} `json:"data"`
}

// SignIn runs the sign-in flow against the identity service
func (c *IdentityClient) SignIn(ctx context.Context) (*providers.Session, error) {
	var resp signInResponse
	if err := c.http.PostJSON(ctx, "/auth/signin", nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("sign-in request failed: %w", err)
	}

	claims, err := auth.ParseSessionToken(resp.Data.Token, c.tokenSecret)
	if err != nil {
		return nil, fmt.Errorf("sign-in returned bad token: %w", err)
	}

	c.mu.Lock()
	c.token = resp.Data.Token
	c.mu.Unlock()

	c.logger.Debug().Str("user_id", claims.UserID).Msg("Signed in")

	return &providers.Session{
		UserID:      claims.UserID,
		DisplayName: claims.DisplayName,
		PhotoURL:    claims.PhotoURL,
	}, nil
}

// SignOut invalidates the current session token
func (c *IdentityClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.token = ""
	c.mu.Unlock()

	if token == "" {
		return nil
	}

	headers := map[string]string{"Authorization": "Bearer " + token}
	if _, err := c.http.Post(ctx, "/auth/signout", nil, headers); err != nil {
		return fmt.Errorf("sign-out request failed: %w", err)
	}
	return nil
}

// CurrentSession returns the ambient session, or (nil, nil) when signed out.
// The persisted token is validated locally; an expired or invalid token
// counts as signed out, not as a failure.
func (c *IdentityClient) CurrentSession(ctx context.Context) (*providers.Session, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if token == "" {
		return nil, nil
	}

	claims, err := auth.ParseSessionToken(token, c.tokenSecret)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Persisted session token rejected")
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		return nil, nil
	}

	return &providers.Session{
		UserID:      claims.UserID,
		DisplayName: claims.DisplayName,
		PhotoURL:    claims.PhotoURL,
	}, nil
}

// SetToken installs a persisted session token (e.g. restored from disk by
// the host application) so CurrentSession can pick it up.
func (c *IdentityClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current session token ("" when signed out)
func (c *IdentityClient) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}
