package apiclient

import (
	"context"
	"net/http"
	"time"

	"onlyhate/internal/auth"
)

const loginPath = "/api/v1/auth/login"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      auth.User `json:"user"`
}

// Verify signs in against the server, so the client can back an auth.Gate.
// A successful sign-in also sets the client's token.
func (c *Client) Verify(ctx context.Context, identifier, secret string) (auth.Session, error) {
	var out loginResponse
	req := request{method: http.MethodPost, path: loginPath, body: loginRequest{Email: identifier, Password: secret}}
	if _, err := c.do(ctx, req, &out); err != nil {
		return auth.Session{}, err
	}
	c.SetToken(out.Token)
	return auth.Session{User: out.User, Token: out.Token, ExpiresAt: out.ExpiresAt}, nil
}

// Me returns the user the current token belongs to.
func (c *Client) Me(ctx context.Context) (auth.User, error) {
	var out auth.User
	_, err := c.do(ctx, request{method: http.MethodGet, path: "/api/v1/auth/me"}, &out)
	return out, err
}
