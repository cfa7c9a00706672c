// Package client calls the account service over HTTP.
package client

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

	"study_dashboard/internal/model"
)

// ErrUnauthorized is matched by APIError values with status 401.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx reply from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// RegisterRequest is the body of POST /api/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// LoginResult is the body of a successful POST /api/login.
type LoginResult struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

// View is the body of a dashboard route.
type View struct {
	View string           `json:"view"`
	User model.PublicUser `json:"user"`
}

type envelope struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Token    string           `json:"token"`
	Redirect string           `json:"redirect"`
	View     string           `json:"view"`
	User     model.PublicUser `json:"user"`
}

// Client talks to one server base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL, e.g. http://localhost:8080.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*model.PublicUser, error) {
	var out envelope
	if err := c.do(ctx, http.MethodPost, "/api/register", "", req, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out envelope
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/login", "", body, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, errors.New("no token received")
	}
	return &LoginResult{Token: out.Token, User: out.User}, nil
}

// Me fetches the caller's profile as the server sees it.
func (c *Client) Me(ctx context.Context, token string) (*model.PublicUser, error) {
	var out envelope
	if err := c.do(ctx, http.MethodGet, "/api/me", token, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Dashboard loads a role-scoped view such as /dashboard/student.
func (c *Client) Dashboard(ctx context.Context, token, path string) (*View, error) {
	var out envelope
	if err := c.do(ctx, http.MethodGet, "/api"+path, token, nil, &out); err != nil {
		return nil, err
	}
	return &View{View: out.View, User: out.User}, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body any, out *envelope) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("server not reachable: %w", err)
	}
	defer resp.Body.Close()

	decodeErr := json.NewDecoder(resp.Body).Decode(out)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := out.Message
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	return nil
}
