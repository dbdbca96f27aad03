package idp

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/upb/campus-eats/config"
	"github.com/upb/campus-eats/services"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Client performs the OIDC authorization-code handshake. It never touches storage.
type Client struct {
	oauth        *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	responseMode string
	logger       *zap.Logger
}

// New discovers the tenant issuer and creates a new Client
func New(ctx context.Context, cfg config.OIDCConfig, logger *zap.Logger) (*Client, error) {
	if !cfg.Configured() {
		return nil, errors.New("oidc client ID and tenant or issuer URL are required")
	}

	issuer := cfg.Issuer()
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover oidc issuer %s: %w", issuer, err)
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})

	logger.Info("oidc provider discovered",
		zap.String("issuer", issuer),
		zap.String("response_mode", cfg.ResponseMode))

	return newClient(oauthCfg, verifier, cfg.ResponseMode, logger), nil
}

func newClient(oauthCfg *oauth2.Config, verifier *oidc.IDTokenVerifier, responseMode string, logger *zap.Logger) *Client {
	if responseMode == "" {
		responseMode = config.ResponseModeQuery
	}
	return &Client{
		oauth:        oauthCfg,
		verifier:     verifier,
		responseMode: responseMode,
		logger:       logger,
	}
}

// AuthCodeURL returns the provider authorization URL bound to state and nonce
func (c *Client) AuthCodeURL(state, nonce string) string {
	opts := []oauth2.AuthCodeOption{oidc.Nonce(nonce)}
	if c.responseMode == config.ResponseModeFormPost {
		opts = append(opts, oauth2.SetAuthURLParam("response_mode", config.ResponseModeFormPost))
	}
	return c.oauth.AuthCodeURL(state, opts...)
}

// Complete exchanges the authorization code, verifies the id_token and
// returns the asserted identity.
func (c *Client) Complete(ctx context.Context, code, nonce string) (*ExternalIdentity, error) {
	if code == "" {
		return nil, rejected("authorization code missing", nil)
	}

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		c.logger.Warn("oidc token exchange failed", zap.Error(err))
		return nil, rejected("token exchange failed", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, rejected("token response carried no id_token", nil)
	}

	idToken, err := c.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		c.logger.Warn("oidc id_token verification failed", zap.Error(err))
		return nil, rejected("id_token verification failed", err)
	}

	if nonce == "" || idToken.Nonce != nonce {
		return nil, rejected("id_token nonce mismatch", nil)
	}

	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, rejected("id_token claims unreadable", err)
	}

	identity, err := identityFromClaims(idToken.Issuer, claims)
	if err != nil {
		c.logger.Warn("oidc identity incomplete",
			zap.String("issuer", idToken.Issuer),
			zap.Bool("subject_present", claims.Subject != ""))
		return nil, err
	}

	c.logger.Debug("oidc identity verified",
		zap.String("issuer", identity.Issuer),
		zap.Time("expiry", idToken.Expiry))

	return identity, nil
}

// Rejected converts an error reported on the callback by the provider
func Rejected(code, description string) error {
	return rejected("provider returned "+code, errors.New(description)).
		WithDetail("error", code)
}

func identityFromClaims(issuer string, claims idTokenClaims) (*ExternalIdentity, error) {
	if claims.Subject == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "id_token has no subject", nil)
	}
	email := claims.email()
	if email == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "id_token has no upn, email or emails claim", nil)
	}
	return &ExternalIdentity{
		Subject:     claims.Subject,
		Email:       email,
		DisplayName: claims.displayName(email),
		Issuer:      issuer,
	}, nil
}

func rejected(message string, err error) *services.DomainError {
	return services.NewDomainError(services.ErrorTypeExternal, message, err)
}
