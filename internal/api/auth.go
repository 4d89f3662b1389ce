package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/lifelink/donorlink/internal/session"
)

// authResponse is the backend's payload for login and registration.
type authResponse struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

// validateResponse is the backend's payload for token validation.
type validateResponse struct {
	Valid bool         `json:"valid"`
	User  session.User `json:"user"`
}

// RegisterRequest is the registration form payload.
type RegisterRequest struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	BloodGroup string `json:"bloodGroup,omitempty"`
	Phone      string `json:"phone,omitempty"`
	City       string `json:"city,omitempty"`
}

// Login authenticates with the backend and persists the returned session.
// A 401 here is a credentials failure surfaced as *APIError, never a
// session clear.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	var resp authResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.doPublic(ctx, http.MethodPost, "/auth/login", nil, body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("api: login response carried no token")
	}

	sess := session.Session{Token: resp.Token, User: resp.User}
	if err := c.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("api: persist session: %w", err)
	}
	return &sess, nil
}

// Register creates an account and persists the returned session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*session.Session, error) {
	var resp authResponse
	if err := c.doPublic(ctx, http.MethodPost, "/auth/register", nil, req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("api: register response carried no token")
	}

	sess := session.Session{Token: resp.Token, User: resp.User}
	if err := c.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("api: persist session: %w", err)
	}
	return &sess, nil
}

// Validate asks the backend to confirm the current token and returns the
// authoritative user record, refreshing the stored profile. An invalid
// token clears the session.
func (c *Client) Validate(ctx context.Context) (*session.User, error) {
	var resp validateResponse
	if err := c.do(ctx, http.MethodPost, "/auth/validate", nil, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Valid {
		c.handleUnauthorized(ctx)
		return nil, ErrUnauthorized
	}

	// Refresh the stored profile with the server's view.
	if sess, err := c.store.Read(ctx); err == nil && sess != nil {
		sess.User = resp.User
		if err := c.store.Save(ctx, *sess); err != nil {
			log.Printf("[api] profile refresh failed: %v", err)
		}
	}
	return &resp.User, nil
}

// Logout tells the backend to revoke the token, then clears the local
// session regardless of the call's outcome.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil); err != nil {
		log.Printf("[api] logout call failed, clearing local session anyway: %v", err)
	}
	return c.store.Clear(ctx)
}
