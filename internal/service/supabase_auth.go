package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
)

// Session is the result of a successful staff sign-in.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
	Email        string `json:"email"`
}

// SupabaseAuth talks to the Supabase Auth REST API for staff sessions.
type SupabaseAuth struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewSupabaseAuth returns nil when baseURL or apiKey is empty.
func NewSupabaseAuth(baseURL, apiKey string) *SupabaseAuth {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" || apiKey == "" {
		return nil
	}
	return &SupabaseAuth{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SignIn exchanges e-mail and password for a session (password grant).
func (a *SupabaseAuth) SignIn(ctx context.Context, email, password string) (*Session, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/auth/v1/token?grant_type=password", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
		User         struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := a.do(req, &result); err != nil {
		return nil, fmt.Errorf("sign-in failed: %w", err)
	}

	return &Session{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresIn:    result.ExpiresIn,
		Email:        result.User.Email,
	}, nil
}

// VerifyToken returns the e-mail of the user owning accessToken.
func (a *SupabaseAuth) VerifyToken(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var user struct {
		Email string `json:"email"`
	}
	if err := a.do(req, &user); err != nil {
		return "", fmt.Errorf("token verification failed: %w", err)
	}
	return user.Email, nil
}

func (a *SupabaseAuth) do(req *http.Request, out any) error {
	req.Header.Set("apikey", a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return model.Kind(model.ErrAuth, fmt.Errorf("%s - %s", resp.Status, strings.TrimSpace(string(body))))
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s - %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
