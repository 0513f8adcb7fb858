package client

import (
	"context"
	"net/http"
)

// Session is the token pair returned by login, register and refresh.
type Session struct {
	User struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

func (c *Client) authCall(ctx context.Context, path string, body any) (Session, error) {
	var out Session
	if err := c.do(ctx, request{method: http.MethodPost, path: path, body: body}, &out); err != nil {
		return Session{}, err
	}
	c.SetToken(out.Token)
	return out, nil
}

// Login authenticates and stores the returned access token.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	return c.authCall(ctx, "/auth/login", map[string]string{"email": email, "password": password})
}

// Register creates a customer account and stores the returned access token.
func (c *Client) Register(ctx context.Context, name, email, password string) (Session, error) {
	return c.authCall(ctx, "/auth/register", map[string]string{"name": name, "email": email, "password": password})
}

// Logout revokes the current session and drops all cached state.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/logout"}, nil); err != nil {
		return err
	}
	c.SetToken("")
	c.Reset()
	return nil
}

// Refresh exchanges the current access token and refreshToken for a new pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	return c.authCall(ctx, "/auth/refresh", map[string]string{"token": c.Token(), "refreshToken": refreshToken})
}
