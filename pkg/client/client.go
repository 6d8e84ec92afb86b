// Package client is a small Go client for the labelwise REST API, used by
// the CLI and available to external consumers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labelwise/labelwise/internal/domain/ingredient"
	"github.com/labelwise/labelwise/pkg/errors"
	"github.com/labelwise/labelwise/pkg/types/analysis"
)

// Client talks to one labelwise server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// AnalyzeRequest mirrors the server's analyze request body.
type AnalyzeRequest struct {
	ProductName string   `json:"product_name,omitempty"`
	Ingredients []string `json:"ingredients"`
	UserContext string   `json:"user_context,omitempty"`
}

// Analyze submits a product ingredient list for analysis.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (*analysis.ProductAnalysis, error) {
	var result analysis.ProductAnalysis
	if err := c.do(ctx, http.MethodPost, "/api/v1/analyze", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ingredient looks up one ingredient by raw name.
func (c *Client) Ingredient(ctx context.Context, name string) (*ingredient.Record, error) {
	var record ingredient.Record
	path := "/api/v1/ingredients/" + url.PathEscape(name)
	if err := c.do(ctx, http.MethodGet, path, nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Health fetches the engine health report.
func (c *Client) Health(ctx context.Context) (*analysis.HealthReport, error) {
	var report analysis.HealthReport
	if err := c.do(ctx, http.MethodGet, "/api/v1/health", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, errors.CodeInternal, "encoding request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "building request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "server unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "reading response")
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Code != "" {
			return errors.New(errors.ErrorCode(apiErr.Error.Code), apiErr.Error.Message)
		}
		return errors.Newf(errors.CodeInternal, "server returned %s", resp.Status)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("decoding %s response", path))
		}
	}
	return nil
}
