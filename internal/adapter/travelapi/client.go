// Package travelapi provides an HTTP client for the command endpoints of the
// remote journey engine.
package travelapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nuaibria/travelsync/internal/adapter/otel"
	"github.com/nuaibria/travelsync/internal/domain"
	"github.com/nuaibria/travelsync/internal/domain/travel"
	"github.com/nuaibria/travelsync/internal/logger"
	"github.com/nuaibria/travelsync/internal/port/cache"
	"github.com/nuaibria/travelsync/internal/resilience"
	"github.com/nuaibria/travelsync/internal/wire"
)

// RequestIDHeader carries the request ID of every command.
const RequestIDHeader = "X-Request-ID"

const maxErrorBody = 4096

// Client talks to the command endpoints of the remote journey engine.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	breaker    *resilience.Breaker
	sessions   cache.Cache[travel.StatusView]
	sessionTTL time.Duration
}

// NewClient creates a client. A zero timeout leaves command round trips
// bounded only by the caller's context.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otel.HTTPTransport(nil),
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls. Only
// transport failures count toward opening it.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	b.SetFailurePredicate(isTransportFailure)
	c.breaker = b
}

// SetSessionCache enables caching of SessionStatus lookups for ttl.
func (c *Client) SetSessionCache(sc cache.Cache[travel.StatusView], ttl time.Duration) {
	c.sessions = sc
	c.sessionTTL = ttl
}

// Start begins a journey and returns the new session.
func (c *Client) Start(ctx context.Context, req travel.StartRequest) (*travel.Session, error) {
	var resp wire.StartResponseDTO
	if err := c.doRequest(ctx, http.MethodPost, wire.PathStart, wire.NewStartRequestDTO(req), &resp); err != nil {
		return nil, fmt.Errorf("start journey: %w", err)
	}
	s, err := wire.DecodeSession(resp.Session)
	if err != nil {
		return nil, fmt.Errorf("start journey: %w", err)
	}
	return &s, nil
}

// Choose resolves the active event of a session.
func (c *Client) Choose(ctx context.Context, req travel.ChoiceRequest) error {
	if err := c.doRequest(ctx, http.MethodPost, wire.PathChoose, wire.NewChoiceRequestDTO(req), nil); err != nil {
		return fmt.Errorf("submit choice: %w", err)
	}
	c.invalidate(ctx, req.SessionID)
	return nil
}

// Cancel cancels a session.
func (c *Client) Cancel(ctx context.Context, req travel.CancelRequest) error {
	if err := c.doRequest(ctx, http.MethodPost, wire.PathCancel, wire.NewCancelRequestDTO(req), nil); err != nil {
		return fmt.Errorf("cancel journey: %w", err)
	}
	c.invalidate(ctx, req.SessionID)
	return nil
}

// Status returns the authoritative view of the actor's journey.
func (c *Client) Status(ctx context.Context, actorID string) (*travel.StatusView, error) {
	path := wire.PathStatus + "?" + url.Values{"characterId": {actorID}}.Encode()
	return c.fetchStatus(ctx, path)
}

// SessionStatus returns the view of a single session. Results are cached
// when a session cache is configured.
func (c *Client) SessionStatus(ctx context.Context, sessionID string) (*travel.StatusView, error) {
	if c.sessions != nil {
		if v, ok, _ := c.sessions.Get(ctx, sessionID); ok {
			return &v, nil
		}
	}

	path := strings.Replace(wire.PathSessionStatus, "{sessionId}", url.PathEscape(sessionID), 1)
	v, err := c.fetchStatus(ctx, path)
	if err != nil {
		return nil, err
	}

	if c.sessions != nil {
		if err := c.sessions.Set(ctx, sessionID, *v, c.sessionTTL); err != nil {
			slog.Warn("session cache set failed", "session_id", sessionID, "error", err)
		}
	}
	return v, nil
}

func (c *Client) fetchStatus(ctx context.Context, path string) (*travel.StatusView, error) {
	var resp wire.StatusDTO
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	v, err := resp.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("fetch status: %w: %w", wire.ErrDecode, err)
	}
	return &v, nil
}

func (c *Client) invalidate(ctx context.Context, sessionID string) {
	if c.sessions != nil && sessionID != "" {
		_ = c.sessions.Delete(ctx, sessionID)
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	reqID := logger.RequestID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	log := slog.With("request_id", reqID, "method", method, "path", path)

	call := func(ctx context.Context) error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set(RequestIDHeader, reqID)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w: %w", domain.ErrTransport, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 400 {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			apiErr := &APIError{StatusCode: resp.StatusCode}
			var e wire.ErrorDTO
			if json.Unmarshal(data, &e) == nil && e.Error != "" {
				apiErr.Message = e.Error
			} else {
				apiErr.Message = strings.TrimSpace(string(data))
			}
			log.Debug("command rejected", "status", resp.StatusCode, "error", apiErr.Message)
			return apiErr
		}

		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w: %w", wire.ErrDecode, err)
		}
		return nil
	}

	if c.breaker != nil {
		return c.breaker.Execute(ctx, call)
	}
	return call(ctx)
}
