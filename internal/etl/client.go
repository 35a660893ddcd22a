package etl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"github.com/BartekS5/opendota-extract/pkg/models"
)

const maxResponseBytes = 32 << 20

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type ClientConfig struct {
	HTTPClient   *http.Client
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	// RatePerSec caps outbound requests across all endpoints. Zero disables the limiter.
	RatePerSec   float64
	UserAgent    string
	// MaxBodyBytes caps a response body. Zero means 32 MiB.
	MaxBodyBytes int64
}

// Client talks to the OpenDota REST API. It never retries; see Retry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	userAgent  string
	maxBody    int64
}

func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "opendota-extract/1.0"
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = maxResponseBytes
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		limiter:    limiter,
		userAgent:  userAgent,
		maxBody:    maxBody,
	}
}

// BuildURL expands the endpoint's path template and merges its fixed query
// with the per-call query.
func (c *Client) BuildURL(ep models.Endpoint, query url.Values) (string, error) {
	path := ep.Path
	for name, val := range ep.PathParams {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(val))
	}
	if strings.ContainsAny(path, "{}") {
		return "", fmt.Errorf("endpoint %s: unresolved path parameter in %s", ep.Name, path)
	}

	values := url.Values{}
	for k, v := range ep.Query {
		values.Set(k, v)
	}
	for k, vs := range query {
		for _, v := range vs {
			values.Add(k, v)
		}
	}
	if c.apiKey != "" {
		values.Set("api_key", c.apiKey)
	}

	full := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if encoded := values.Encode(); encoded != "" {
		full += "?" + encoded
	}
	return full, nil
}

// Fetch issues a single GET and decodes the JSON body.
func (c *Client) Fetch(ctx context.Context, ep models.Endpoint, query url.Values) (any, error) {
	fullURL, err := c.BuildURL(ep, query)
	if err != nil {
		return nil, newFailure(KindClient, err, "build url")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, newFailure(KindTimeout, err, "waiting for request budget")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, newFailure(KindClient, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, classifyTransportError(err)
	}

	if f := classifyStatus(resp, body); f != nil {
		return nil, f
	}
	if int64(len(body)) > c.maxBody {
		return nil, newFailure(KindDecode, nil, "response from %s exceeds limit of %d bytes", redactURL(fullURL), c.maxBody)
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, newFailure(KindDecode, nil, "empty response body from %s", redactURL(fullURL))
	}

	var payload any
	if err := jsonAPI.Unmarshal(body, &payload); err != nil {
		return nil, newFailure(KindDecode, err, "decode response from %s", redactURL(fullURL))
	}
	return payload, nil
}

func classifyTransportError(err error) *Failure {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return newFailure(KindTimeout, err, "request aborted")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newFailure(KindTimeout, err, "request timed out")
	}
	return newFailure(KindNetwork, err, "send request")
}

func classifyStatus(resp *http.Response, body []byte) *Failure {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}

	var f *Failure
	switch {
	case code == http.StatusTooManyRequests:
		f = newFailure(KindRateLimited, nil, "rate limited")
		f.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	case code >= 500:
		f = newFailure(KindServer, nil, "upstream status=%d body=%s", code, abbreviate(body))
	default:
		f = newFailure(KindClient, nil, "upstream status=%d body=%s", code, abbreviate(body))
	}
	f.Status = code
	return f
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func abbreviate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
