package api

import (
	"context"
	"fmt"
	"net/http"
)

// Authentication endpoints
const (
	PathObtainToken  = "/api/auth/token/"
	PathRefreshToken = "/api/auth/token/refresh/"
	PathProfile      = "/api/auth/me/"
	PathRegister     = "/api/auth/register/"
	PathLogout       = "/api/auth/logout/"
)

// ObtainTokenRequest represents the request body for the token endpoint
type ObtainTokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse represents the response from the token and refresh endpoints.
// The refresh endpoint may omit Refresh when tokens are not rotated.
type TokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
	Role    string `json:"role,omitempty"`
}

// RefreshTokenRequest represents the request body for the refresh endpoint
type RefreshTokenRequest struct {
	Refresh string `json:"refresh"`
}

// ProfileResponse represents the response from GET /api/auth/me/
type ProfileResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// RegisterRequest represents the request body for creating an account
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LogoutRequest represents the request body for the logout endpoint
type LogoutRequest struct {
	Refresh string `json:"refresh"`
}

// ObtainTokens exchanges a username and password for an access/refresh pair
func (c *Client) ObtainTokens(ctx context.Context, username, password string) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.Post(ctx, PathObtainToken, &ObtainTokenRequest{Username: username, Password: password}, &resp); err != nil {
		return nil, err
	}
	if resp.Access == "" {
		return nil, fmt.Errorf("token response did not contain an access token")
	}
	return &resp, nil
}

// RefreshTokens exchanges a refresh token for a new access token
func (c *Client) RefreshTokens(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.Post(ctx, PathRefreshToken, &RefreshTokenRequest{Refresh: refreshToken}, &resp); err != nil {
		return nil, err
	}
	if resp.Access == "" {
		return nil, fmt.Errorf("refresh response did not contain an access token")
	}
	return &resp, nil
}

// Profile fetches the identity of the user owning accessToken
func (c *Client) Profile(ctx context.Context, accessToken string) (*ProfileResponse, error) {
	var resp ProfileResponse
	if err := c.WithToken(accessToken).Get(ctx, PathProfile, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a new account
func (c *Client) Register(ctx context.Context, req *RegisterRequest) error {
	return c.Request(ctx, http.MethodPost, PathRegister, req, nil)
}

// Logout asks the server to invalidate refreshToken
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.Post(ctx, PathLogout, &LogoutRequest{Refresh: refreshToken}, nil)
}
