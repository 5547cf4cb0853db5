package gymclient

import (
	"context"
	"fmt"
	"net/http"
)

// Principal is the signed-in user as one of AdminSession, CoachSession or
// MemberSession.
type Principal interface {
	UserID() string
	DisplayName() string
	principal()
}

type AdminSession struct {
	ID   string
	Name string
}

type CoachSession struct {
	ID      string
	CoachID string
	Name    string
}

type MemberSession struct {
	ID   string
	Name string
}

func (s AdminSession) UserID() string  { return s.ID }
func (s CoachSession) UserID() string  { return s.ID }
func (s MemberSession) UserID() string { return s.ID }

func (s AdminSession) DisplayName() string  { return s.Name }
func (s CoachSession) DisplayName() string  { return s.Name }
func (s MemberSession) DisplayName() string { return s.Name }

func (AdminSession) principal()  {}
func (CoachSession) principal()  {}
func (MemberSession) principal() {}

func principalOf(u User) (Principal, error) {
	switch u.Role {
	case "admin":
		return AdminSession{ID: u.ID, Name: u.Name}, nil
	case "coach":
		return CoachSession{ID: u.ID, CoachID: u.CoachID, Name: u.Name}, nil
	case "member":
		return MemberSession{ID: u.ID, Name: u.Name}, nil
	}
	return nil, fmt.Errorf("unknown role %q", u.Role)
}

type loginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login signs in; the session cookie is kept in the client's jar.
func (c *Client) Login(ctx context.Context, email, password string) (Principal, error) {
	if email == "" || password == "" {
		return nil, invalid("email", "email and password are required")
	}
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &resp); err != nil {
		return nil, err
	}
	return principalOf(resp.User)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Session resolves the current principal. A 401 means nobody is signed in.
func (c *Client) Session(ctx context.Context) (Principal, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/auth/session", nil, &u); err != nil {
		return nil, err
	}
	return principalOf(u)
}

func (c *Client) RequestSignupOTP(ctx context.Context, name, email, password string) error {
	if name == "" || email == "" {
		return invalid("email", "name and email are required")
	}
	if len(password) < 8 {
		return invalid("password", "password must be at least 8 characters")
	}
	return c.do(ctx, http.MethodPost, "/auth/signup/request-otp", map[string]string{
		"name": name, "email": email, "password": password,
	}, nil)
}

// VerifySignup completes signup and signs the new member in.
func (c *Client) VerifySignup(ctx context.Context, email, code string) (Principal, error) {
	if len(code) != 6 {
		return nil, invalid("code", "enter the 6-digit code from the email")
	}
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup/verify", map[string]string{"email": email, "code": code}, &resp); err != nil {
		return nil, err
	}
	return principalOf(resp.User)
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return invalid("email", "email is required")
	}
	return c.do(ctx, http.MethodPost, "/auth/forgot-password/request-otp", map[string]string{"email": email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(code) != 6 {
		return invalid("code", "enter the 6-digit code from the email")
	}
	if len(newPassword) < 8 {
		return invalid("newPassword", "password must be at least 8 characters")
	}
	return c.do(ctx, http.MethodPost, "/auth/forgot-password/reset", map[string]string{
		"email": email, "code": code, "newPassword": newPassword,
	}, nil)
}
