package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Mujanati13/xcite/internal/auth"
	"github.com/Mujanati13/xcite/internal/models"
	"github.com/Mujanati13/xcite/internal/table"
	"github.com/Mujanati13/xcite/pkg/logger"
	"github.com/google/uuid"
)

const traceHeader = "X-Trace-ID"

// ErrInvalidFilter is returned for an agent filter that is not a number.
var ErrInvalidFilter = errors.New("agent filter must be a number")

// APIError is a non-success answer of the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// TokenSource yields the bearer token for the next request.
type TokenSource interface {
	Token() (string, error)
}

// Client talks to the property REST backend. It implements table.PropertyService.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

func New(baseURL string, tokens TokenSource, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		logger:     logger,
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

type envelope struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	Data       json.RawMessage    `json:"data"`
	Pagination *models.Pagination `json:"pagination"`
	Error      string             `json:"error"`
	Token      string             `json:"token"`
	User       *auth.Claims       `json:"user"`
}

// doRequest sends the request and decodes the envelope. 401 and 403 map to
// table.ErrUnauthorized.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, authed bool) (envelope, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return envelope{}, fmt.Errorf("marshal request body: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return envelope{}, fmt.Errorf("create request: %w", err)
	}
	traceID := logger.TraceID(ctx)
	if traceID == "" {
		traceID = uuid.New().String()
	}
	req.Header.Set(traceHeader, traceID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token, err := c.tokens.Token()
		if err != nil {
			return envelope{}, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return envelope{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		c.logger.WarnContext(ctx, "backend rejected credentials",
			slog.String("path", path),
			slog.Int("status_code", resp.StatusCode),
		)
		return envelope{}, fmt.Errorf("%w: %s", table.ErrUnauthorized, env.Message)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return envelope{}, &APIError{Status: resp.StatusCode, Message: msg}
	case decodeErr != nil:
		return envelope{}, fmt.Errorf("decode response: %w", decodeErr)
	}
	return env, nil
}

// ListProperties fetches one page. An empty agentFilter lists all agents.
func (c *Client) ListProperties(ctx context.Context, agentFilter string, page, pageSize int) (models.PropertyPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(pageSize))
	if f := strings.TrimSpace(agentFilter); f != "" {
		if _, err := strconv.ParseInt(f, 10, 64); err != nil {
			return models.PropertyPage{}, ErrInvalidFilter
		}
		q.Set("makler_id", f)
	}

	env, err := c.doRequest(ctx, http.MethodGet, "/api/properties?"+q.Encode(), nil, true)
	if err != nil {
		return models.PropertyPage{}, err
	}

	var props []models.Property
	if err := json.Unmarshal(env.Data, &props); err != nil {
		return models.PropertyPage{}, fmt.Errorf("decode properties: %w", err)
	}
	pg := models.DefaultPagination()
	if env.Pagination != nil {
		pg = *env.Pagination
	}
	if props == nil {
		props = []models.Property{}
	}
	return models.PropertyPage{Properties: props, Pagination: pg}, nil
}

func (c *Client) ListContracts(ctx context.Context, propertyID int64) ([]models.Contract, error) {
	env, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/contracts/%d", propertyID), nil, true)
	if err != nil {
		return nil, err
	}
	var contracts []models.Contract
	if err := json.Unmarshal(env.Data, &contracts); err != nil {
		return nil, fmt.Errorf("decode contracts: %w", err)
	}
	if contracts == nil {
		contracts = []models.Contract{}
	}
	return contracts, nil
}

func (c *Client) UpdateProperty(ctx context.Context, propertyID int64, upd models.PropertyUpdate) (models.Property, error) {
	env, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/api/properties/%d", propertyID), upd, true)
	if err != nil {
		return models.Property{}, err
	}
	var p models.Property
	if err := json.Unmarshal(env.Data, &p); err != nil {
		return models.Property{}, fmt.Errorf("decode property: %w", err)
	}
	return p, nil
}

// Login checks token against the backend and returns its claims.
func (c *Client) Login(ctx context.Context, token string) (*auth.Claims, error) {
	env, err := c.doRequest(ctx, http.MethodPost, "/api/auth/login", map[string]string{"token": token}, false)
	if err != nil {
		return nil, err
	}
	return env.User, nil
}

// GenerateToken exchanges the shared secret for a new token.
func (c *Client) GenerateToken(ctx context.Context, secretKey string) (string, error) {
	env, err := c.doRequest(ctx, http.MethodPost, "/api/auth/generate-token", map[string]string{"secretKey": secretKey}, false)
	if err != nil {
		return "", err
	}
	return env.Token, nil
}

// Verify checks the current session token against the backend.
func (c *Client) Verify(ctx context.Context) (*auth.Claims, error) {
	env, err := c.doRequest(ctx, http.MethodPost, "/api/auth/verify", nil, true)
	if err != nil {
		return nil, err
	}
	return env.User, nil
}

// Logout tells the backend the session ends. The backend keeps no state, so
// this never fails on an expired token.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/api/auth/logout", nil, false)
	return err
}
