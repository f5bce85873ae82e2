package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ghaggin/fluidbalance/internal/api"
	"github.com/ghaggin/fluidbalance/internal/config"
	"github.com/ghaggin/fluidbalance/internal/interceptor"
	"github.com/ghaggin/fluidbalance/internal/model"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrNoToken      = errors.New("auth: login response carried no token")
	ErrNoPublicKey  = errors.New("auth: backend returned no public key")
	ErrInvalidEmail = errors.New("auth: invalid email")
)

// Client talks to the backend's /auth endpoints. It runs on the base
// transport so that auth calls never recurse into session handling.
type Client struct {
	api *api.Client
}

type clientParams struct {
	fx.In

	Config *config.Config
	Base   interceptor.Base
	Log    *zap.Logger
}

func NewClient(p clientParams) *Client {
	hc := &http.Client{
		Transport: p.Base.RoundTripper,
		Timeout:   p.Config.Backend.Timeout,
	}
	return NewClientWith(api.NewClient(p.Config.Backend.AuthURL, hc, p.Log))
}

func NewClientWith(c *api.Client) *Client {
	return &Client{api: c}
}

func (c *Client) Login(ctx context.Context, creds model.Credentials) (string, error) {
	var resp model.LoginResponse
	if err := c.api.Do(ctx, http.MethodPost, "/auth/login", nil, creds, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", ErrNoToken
	}
	return resp.Token, nil
}

// Logout invalidates tok on the backend.
func (c *Client) Logout(ctx context.Context, tok string) error {
	return c.api.Do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil,
		api.WithHeader("Authorization", "Bearer "+tok))
}

// PublicKey fetches the key passwords are encrypted with. The backend has
// answered with plain PEM, a JSON string and a JSON object over time.
func (c *Client) PublicKey(ctx context.Context) (string, error) {
	var body string
	if err := c.api.Do(ctx, http.MethodGet, "/auth/public-key", nil, nil, &body); err != nil {
		return "", err
	}

	body = strings.TrimSpace(body)
	switch {
	case strings.HasPrefix(body, `"`):
		var s string
		if err := json.Unmarshal([]byte(body), &s); err == nil {
			body = s
		}
	case strings.HasPrefix(body, "{"):
		var obj struct {
			PublicKey string `json:"publicKey"`
			Key       string `json:"key"`
		}
		if err := json.Unmarshal([]byte(body), &obj); err == nil {
			body = obj.PublicKey
			if body == "" {
				body = obj.Key
			}
		}
	}

	if strings.TrimSpace(body) == "" {
		return "", ErrNoPublicKey
	}
	return body, nil
}

func (c *Client) ValidateEmail(ctx context.Context, email string) error {
	return c.api.Do(ctx, http.MethodPost, "/auth/validate-email", nil, model.EmailRequest{Email: email}, nil)
}

// RecoverPassword checks that email belongs to an account and then asks the
// backend to mail a new password to it.
func (c *Client) RecoverPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		return ErrInvalidEmail
	}
	if err := c.ValidateEmail(ctx, email); err != nil {
		return err
	}
	return c.api.Do(ctx, http.MethodPost, "/auth/recover-password", nil, model.EmailRequest{Email: email}, nil)
}

// ValidEmail is a loose shape check: something@something, no whitespace.
func ValidEmail(s string) bool {
	at := strings.LastIndex(s, "@")
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t\r\n")
}
