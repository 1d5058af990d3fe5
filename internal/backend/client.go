// Package backend talks to the summarizer service over HTTP.
package backend

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
	"showdown/internal/domain"
	"strings"
	"time"
)

const (
	modelsPath     = "/models"
	summarizePath  = "/summarize"
	saveRatingPath = "/save-rating"

	maxErrorBodyBytes = 512
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

func New(baseURL string, timeout time.Duration, log *slog.Logger) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("base URL is empty")
	}

	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}, nil
}

func (c *Client) FetchCatalog(ctx context.Context) (domain.Catalogs, error) {
	var catalogs domain.Catalogs
	if err := c.do(ctx, http.MethodGet, modelsPath, nil, &catalogs); err != nil {
		return domain.Catalogs{}, err
	}

	if catalogs.Open == nil {
		catalogs.Open = domain.Catalog{}
	}
	if catalogs.Closed == nil {
		catalogs.Closed = domain.Catalog{}
	}

	return catalogs, nil
}

func (c *Client) Summarize(
	ctx context.Context,
	req domain.SummarizeRequest,
) (domain.SummarizeResponse, error) {
	var resp domain.SummarizeResponse
	if err := c.do(ctx, http.MethodPost, summarizePath, req, &resp); err != nil {
		return domain.SummarizeResponse{}, err
	}

	return resp, nil
}

// SaveRating posts the ratings. The acknowledgement body is not consumed.
func (c *Client) SaveRating(ctx context.Context, submission domain.RatingSubmission) error {
	return c.do(ctx, http.MethodPost, saveRatingPath, submission, nil)
}

// Ping checks that the catalog endpoint answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, modelsPath, nil, nil)
}

func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body any,
	out any,
) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.WarnContext(ctx, "Failed to close response body",
				"error", closeErr,
				"path", path)
		}
	}()

	c.log.DebugContext(ctx, "Backend responded",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"elapsedMs", time.Since(start).Milliseconds())

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
