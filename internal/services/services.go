// Package services is the gateway's client for the remote Scrappify API.
// Every call carries the caller's bearer token and device identifier;
// authentication and authorization are decided upstream.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"scrappify-bff/internal/config"
	"scrappify-bff/internal/resilience"
	"scrappify-bff/internal/session"
	"scrappify-bff/internal/telemetry"
)

const DeviceIDHeader = "X-Device-ID"

var (
	// ErrUnauthorized means the backend rejected the token; callers must
	// drop the session.
	ErrUnauthorized = errors.New("upstream rejected the session")
	ErrNotFound     = errors.New("upstream resource not found")
	ErrBadPayload   = errors.New("upstream returned an unexpected payload")
)

// APIError is a non-2xx upstream answer. It matches ErrUnauthorized and
// ErrNotFound through errors.Is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream status %d", e.Status)
	}
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

type ServiceClient struct {
	cfg        *config.Config
	client     *http.Client
	attempts   int
	retryDelay time.Duration
}

func NewServiceClient(cfg *config.Config) *ServiceClient {
	return &ServiceClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.UpstreamTimeout,
		},
		attempts:   3,
		retryDelay: 500 * time.Millisecond,
	}
}

// call describes one upstream request. body is sent as JSON; rawBody, when
// set, is sent as is with contentType.
type call struct {
	service     string
	method      string
	url         string
	session     *session.Context
	body        any
	rawBody     []byte
	contentType string
}

// doJSON performs c and decodes a 2xx body into target (when non-nil).
// Only GETs are retried: searches trigger scraping upstream and writes are
// not idempotent.
func (s *ServiceClient) doJSON(ctx context.Context, c call, target any) error {
	payload, contentType := c.rawBody, c.contentType
	if c.body != nil {
		var err error
		if payload, err = json.Marshal(c.body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		contentType = "application/json"
	}

	attempts := 1
	if c.method == http.MethodGet {
		attempts = s.attempts
	}

	return resilience.Retry(ctx, attempts, s.retryDelay, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, c.method, c.url, bodyReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", contentType)
		}
		if c.session != nil {
			if c.session.Token != "" {
				req.Header.Set("Authorization", "Bearer "+c.session.Token)
			}
			if c.session.DeviceID != "" {
				req.Header.Set(DeviceIDHeader, c.session.DeviceID)
			}
		}

		start := time.Now()
		resp, err := s.client.Do(req)
		if err != nil {
			telemetry.ObserveUpstream(c.service, "error", time.Since(start))
			return resilience.Retryable(err)
		}
		defer resp.Body.Close()
		telemetry.ObserveUpstream(c.service, strconv.Itoa(resp.StatusCode), time.Since(start))

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
			if resp.StatusCode >= 500 {
				return resilience.Retryable(apiErr)
			}
			return apiErr
		}

		if target == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		return nil
	})
}

func bodyReader(payload []byte) io.Reader {
	if payload == nil {
		return nil
	}
	return bytes.NewReader(payload)
}

// errorMessage pulls the human-readable message out of an error body. The
// backend is inconsistent about the key it uses.
func errorMessage(body io.Reader) string {
	var parsed struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&parsed); err != nil {
		return ""
	}
	switch {
	case parsed.Msg != "":
		return parsed.Msg
	case parsed.Message != "":
		return parsed.Message
	default:
		return parsed.Error
	}
}
