package line

import (
	"context"
	"errors"
	"fmt"

	"checkinflow/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const (
	defaultAuthURL  = "https://access.line.me/oauth2/v2.1/authorize"
	defaultTokenURL = "https://api.line.me/oauth2/v2.1/token"
	idTokenIssuer   = "https://access.line.me"
)

// ErrInvalidIDToken is returned when LINE's id_token is missing or fails verification.
var ErrInvalidIDToken = errors.New("line: invalid id_token")

// Config holds LINE Login channel settings. AuthURL and TokenURL default to LINE's endpoints.
type Config struct {
	ChannelID     string
	ChannelSecret string
	CallbackURL   string
	AuthURL       string
	TokenURL      string
}

type idTokenClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
}

type client struct {
	oauth  *oauth2.Config
	secret []byte
	chanID string
}

// NewClient returns a LineAuthenticator that runs the LINE Login authorization code flow.
func NewClient(cfg Config) domain.LineAuthenticator {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = defaultAuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	return &client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ChannelID,
			ClientSecret: cfg.ChannelSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"profile", "openid"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		secret: []byte(cfg.ChannelSecret),
		chanID: cfg.ChannelID,
	}
}

// AuthCodeURL returns the LINE authorize URL; state carries the event id through the round trip.
func (c *client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

func (c *client) Exchange(ctx context.Context, code string) (*domain.LineIdentity, error) {
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("line token exchange: %w", err)
	}
	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, ErrInvalidIDToken
	}
	return c.verifyIDToken(raw)
}

func (c *client) verifyIDToken(raw string) (*domain.LineIdentity, error) {
	claims := &idTokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(idTokenIssuer),
		jwt.WithAudience(c.chanID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidIDToken
	}
	return &domain.LineIdentity{UserID: claims.Subject, DisplayName: claims.Name}, nil
}
