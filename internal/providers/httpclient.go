package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/labelwise/labelwise/pkg/errors"
)

// maxResponseBytes bounds how much of an upstream body is read. Provider
// payloads for a single ingredient are small; anything bigger is broken.
const maxResponseBytes = 1 << 20

// httpDoer is the slice of *http.Client the adapters need; tests substitute
// a stub.
type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// getJSON performs a GET against rawURL and decodes the JSON body into out.
// Failures come back as coded errors: timeout for transport problems and
// deadlines, rate_limited for 429, upstream_4xx / upstream_5xx for HTTP
// error classes, parse_error for undecodable bodies.
func getJSON(ctx context.Context, client httpDoer, rawURL string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "building provider request")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(err, errors.CodeTimeout, "provider call canceled or timed out")
		}
		return errors.Wrap(err, errors.CodeTimeout, "provider unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.Newf(errors.CodeRateLimited, "provider returned %d", resp.StatusCode)
	case resp.StatusCode >= 500:
		return errors.Newf(errors.CodeUpstream5xx, "provider returned %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return errors.Newf(errors.CodeUpstream4xx, "provider returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return errors.Wrap(err, errors.CodeTimeout, "reading provider response")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, errors.CodeParseError, "decoding provider response")
	}
	return nil
}

// buildURL joins base, path and query parameters.
func buildURL(base, path string, query url.Values) string {
	u := base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// truncate caps s for payload summaries.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
