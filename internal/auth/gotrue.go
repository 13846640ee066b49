package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const httpTimeout = 15 * time.Second

// GoTrue is a Provider backed by a hosted GoTrue (Supabase Auth) endpoint.
type GoTrue struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewGoTrue returns a GoTrue provider for the project at baseURL, e.g.
// "https://xyz.supabase.co". apiKey is the project's anon key.
func NewGoTrue(baseURL, apiKey string) *GoTrue {
	return &GoTrue{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// tokenResponse mirrors the password grant response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         User   `json:"user"`
}

// errorResponse covers both the legacy OAuth-style and the current GoTrue
// error bodies.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (g *GoTrue) SignIn(ctx context.Context, email, password string) (*Session, error) {
	payload, _ := json.Marshal(map[string]string{"email": email, "password": password})

	var tok tokenResponse
	if err := g.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", payload, &tok); err != nil {
		return nil, err
	}

	s := &Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		User:         tok.User,
	}
	switch {
	case tok.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(tok.ExpiresAt, 0)
	case tok.ExpiresIn > 0:
		s.ExpiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	return s, nil
}

func (g *GoTrue) SignOut(ctx context.Context, s *Session) error {
	if s == nil || s.AccessToken == "" {
		return nil
	}
	err := g.do(ctx, http.MethodPost, "/auth/v1/logout", s.AccessToken, nil, nil)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	return err
}

func (g *GoTrue) Verify(ctx context.Context, accessToken string) (*Session, error) {
	if accessToken == "" {
		return nil, ErrNoSession
	}
	var u User
	if err := g.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &u); err != nil {
		return nil, err
	}
	return &Session{AccessToken: accessToken, User: u}, nil
}

func (g *GoTrue) do(ctx context.Context, method, path, bearer string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", g.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("http %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode >= 300 {
		return classify(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	return nil
}

// classify maps an error response to a typed error using the status code and
// the machine-readable error code, never the message text.
func classify(status int, raw []byte) error {
	var e errorResponse
	_ = json.Unmarshal(raw, &e)

	code := e.ErrorCode
	if code == "" {
		code = e.Error
	}
	msg := firstNonEmpty(e.Msg, e.ErrorDescription, e.Message, strings.TrimSpace(string(raw)))

	switch {
	case code == "invalid_credentials" || (code == "invalid_grant" && status == http.StatusBadRequest):
		return ErrInvalidCredentials
	case status == http.StatusUnauthorized || status == http.StatusForbidden ||
		code == "bad_jwt" || code == "session_not_found" || code == "user_not_found":
		return ErrNoSession
	}
	return &ProviderError{Status: status, Code: code, Msg: msg}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
