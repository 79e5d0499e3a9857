// Package zoho wraps the Zoho Mail REST API: account and folder resolution,
// message retrieval, signatures, and draft creation. Ordinary HTTP failures
// are logged and surfaced as empty values so the caller can apply fallback
// logic; only credential problems propagate as errors.
package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mvidal/replydraft/internal/model"
)

// authScheme is the custom bearer scheme the Mail API expects.
const authScheme = "Zoho-oauthtoken"

// Client is a stateless-except-token wrapper over the Zoho Mail API.
type Client struct {
	tokens     *TokenManager
	cfg        model.ZohoConfig
	httpClient *http.Client
	log        *logrus.Entry
	maxRetries int

	sigMu    sync.Mutex
	sigCache map[string][]model.Signature
}

// NewClient creates a mail API client using the given token manager.
func NewClient(tokens *TokenManager, cfg model.ZohoConfig, log *logrus.Entry) *Client {
	return &Client{
		tokens: tokens,
		cfg:    cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log:        log,
		maxRetries: 2,
		sigCache:   make(map[string][]model.Signature),
	}
}

// APIBase returns the regional Mail API root for the stored token's
// api_domain, falling back to the configured base when no domain is on
// record.
func (c *Client) APIBase(ctx context.Context) string {
	return apiBaseForDomain(c.tokens.APIDomain(ctx), c.cfg.APIBase)
}

// regionBases maps api_domain host suffixes to regional Mail API roots.
// Order matters: the longer suffixes must be checked before ".com".
var regionBases = []struct {
	apisHost string
	suffix   string
	base     string
}{
	{"zohoapis.eu", "zoho.eu", "https://mail.zoho.eu/api"},
	{"zohoapis.in", "zoho.in", "https://mail.zoho.in/api"},
	{"zohoapis.com.au", "zoho.com.au", "https://mail.zoho.com.au/api"},
	{"zohoapis.com.cn", "zoho.com.cn", "https://mail.zoho.com.cn/api"},
}

// apiBaseForDomain dispatches on the api_domain host suffix. An unknown
// non-empty domain lands on the baseline US region; an empty domain uses
// the configured fallback.
func apiBaseForDomain(apiDomain, fallback string) string {
	if apiDomain == "" {
		return strings.TrimRight(fallback, "/")
	}
	host := apiDomain
	if u, err := url.Parse(apiDomain); err == nil && u.Host != "" {
		host = u.Host
	}
	for _, r := range regionBases {
		if strings.Contains(host, r.apisHost) || strings.HasSuffix(host, r.suffix) {
			return r.base
		}
	}
	return "https://mail.zoho.com/api"
}

// get performs an authenticated GET against the Mail API and decodes the
// JSON response into result. Non-2xx responses are returned as errors
// carrying status and body for logging.
func (c *Client) get(ctx context.Context, path string, query url.Values, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, result)
}

// post performs an authenticated JSON POST against the Mail API.
func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, result)
}

// statusError is a non-2xx Mail API response.
type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("zoho API status %d: %s", e.StatusCode, e.Body)
}

// do is the core HTTP method: token auth, JSON (de)serialization, and a
// short backoff retry on HTTP 429.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result interface{}) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	endpoint := c.APIBase(ctx) + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", authScheme+" "+token)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = &statusError{StatusCode: resp.StatusCode, Body: string(respBody)}
			wait := time.Duration(attempt+1) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &statusError{StatusCode: resp.StatusCode, Body: string(respBody)}
		}

		if result != nil {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("parsing response from %s: %w", path, err)
			}
		}
		return nil
	}

	return lastErr
}

// logCallFailure records a failed API call with enough context to diagnose
// it. Status and body are included when the failure was an HTTP response.
func (c *Client) logCallFailure(operation string, err error) {
	fields := logrus.Fields{}
	var se *statusError
	if errors.As(err, &se) {
		fields["status"] = se.StatusCode
		fields["body"] = se.Body
	}
	c.log.WithError(err).WithFields(fields).Error(operation + " failed")
}
