package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/eysh-app/eysh/internal/wiretime"
)

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserProfile is the optional student profile.
type UserProfile struct {
	Grade            *int     `json:"grade,omitempty"`
	TargetUniversity string   `json:"target_university,omitempty"`
	TargetScore      *int     `json:"target_score,omitempty"`
	Subjects         []string `json:"subjects"`
}

// User is an account as returned by the backend.
type User struct {
	ID        string        `json:"id"`
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	Role      string        `json:"role"`
	Profile   UserProfile   `json:"profile"`
	CreatedAt wiretime.Time `json:"created_at"`
}

// Registration is the sign-up payload.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Login exchanges email and password for a bearer token. The backend takes
// an OAuth2 password form with the email as username.
func (c *Client) Login(ctx context.Context, email, password string) (*Token, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	var tok Token
	if err := c.sendForm(ctx, "/api/auth/login", form, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// Register creates a student account.
func (c *Client) Register(ctx context.Context, r Registration) (*User, error) {
	var u User
	if err := c.send(ctx, http.MethodPost, "/api/auth/register", r, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.getJSON(ctx, "/api/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
