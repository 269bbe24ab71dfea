package scorecard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/SanteonNL/collegefinder/cmd/collegefinder/types"
	"github.com/SanteonNL/collegefinder/models/college"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.data.gov/ed/collegescorecard/v1/schools"

	// PageSize is requested on every call. Post-filtering only shrinks a
	// page, so asking for less silently under-returns.
	PageSize = 100

	ParamState = "school.state"
	ParamName  = "school.name"

	maxBodyBytes = 10 << 20
)

// delegableParams are the only filters the upstream evaluates for us.
var delegableParams = []string{ParamState, ParamName}

// ErrUnexpectedShape marks a response whose body decoded but did not hold a
// list of records. The page is treated as empty.
var ErrUnexpectedShape = errors.New("unexpected upstream response shape")

type Config struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration // zero means no client-side timeout
	RatePerHour int           // zero or less disables the limiter
}

// Client talks to the College Scorecard schools endpoint. It never retries:
// a failed call surfaces to the caller immediately.
type Client struct {
	BaseURI    string
	HTTPClient *http.Client
	apiKey     string
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// Page is one decoded upstream response.
type Page struct {
	Records  []college.Record
	Warnings []error // each wraps ErrUnexpectedShape
}

func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &types.ConfigurationError{Key: "COLLEGE_SCORECARD_KEY", Reason: "API key is not set"}
	}
	baseURI := cfg.BaseURL
	if baseURI == "" {
		baseURI = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURI); err != nil {
		return nil, &types.ConfigurationError{Key: "SCORECARD_URL", Reason: err.Error()}
	}

	log = log.With().Str("component", "scorecard_client").Logger()

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil
	retryClient.HTTPClient = &http.Client{
		Timeout: cfg.Timeout,
	}
	retryClient.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		log.Debug().
			Str("method", req.Method).
			Str("url", redact(req.URL)).
			Int("attempt", attempt).
			Msg("Sending upstream request")
	}

	limit := rate.Inf
	if cfg.RatePerHour > 0 {
		limit = rate.Limit(float64(cfg.RatePerHour) / time.Hour.Seconds())
	}

	return &Client{
		BaseURI:    baseURI,
		HTTPClient: retryClient.StandardClient(),
		apiKey:     cfg.APIKey,
		limiter:    rate.NewLimiter(limit, 10),
		log:        log,
	}, nil
}

// Schools fetches one page of schools with the full field projection.
// queryParams may only hold delegable filters (school.state, school.name).
func (c *Client) Schools(ctx context.Context, queryParams map[string]string) (*Page, error) {
	query, err := parseQueryParams(queryParams, delegableParams)
	if err != nil {
		return nil, err
	}
	query.Set("fields", strings.Join(college.Fields, ","))
	query.Set("per_page", strconv.Itoa(PageSize))

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &types.UpstreamError{Op: "rate limit", Err: err}
	}

	req, err := c.prepareRequest(ctx, http.MethodGet, query)
	if err != nil {
		return nil, err
	}
	c.signRequest(req)

	body, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}
	return c.decodePage(body)
}

// parseQueryParams copies queryParams into url.Values, rejecting any key not
// in validParams. Empty values are skipped.
func parseQueryParams(queryParams map[string]string, validParams []string) (url.Values, error) {
	query := url.Values{}
	for k, v := range queryParams {
		if !slices.Contains(validParams, k) {
			return nil, fmt.Errorf("invalid query parameter %q", k)
		}
		if v == "" {
			continue
		}
		query.Set(k, v)
	}
	return query, nil
}

func (c *Client) prepareRequest(ctx context.Context, method string, query url.Values) (*http.Request, error) {
	uri, err := url.Parse(c.BaseURI)
	if err != nil {
		return nil, &types.ConfigurationError{Key: "SCORECARD_URL", Reason: err.Error()}
	}
	uri.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, uri.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json; charset=utf-8")
	return req, nil
}

func (c *Client) signRequest(req *http.Request) {
	q := req.URL.Query()
	q.Set("api_key", c.apiKey)
	req.URL.RawQuery = q.Encode()
}

func (c *Client) sendRequest(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		for e := err; e != nil; e = errors.Unwrap(e) {
			if urlErr, ok := e.(*url.Error); ok {
				urlErr.URL = redact(req.URL)
			}
		}
		return nil, &types.UpstreamError{Op: "request", Err: errors.WithStack(err)}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &types.UpstreamError{Op: "read body", StatusCode: resp.StatusCode, Err: errors.WithStack(err)}
	}

	c.log.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(bodyBytes)).
		Dur("elapsed", time.Since(start)).
		Str("url", redact(req.URL)).
		Msg("Received upstream response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &types.UpstreamError{
			Op:         "request",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("server returned %s: %s", resp.Status, snippet(bodyBytes)),
		}
	}
	if len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil, &types.UpstreamError{Op: "decode", StatusCode: resp.StatusCode, Err: errors.New("empty response body")}
	}
	return bodyBytes, nil
}

// decodePage is the shape boundary: a body that is not a JSON object is an
// UpstreamError, a missing or malformed results list is an empty page with
// a warning.
func (c *Client) decodePage(body []byte) (*Page, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &types.UpstreamError{Op: "decode", Err: errors.Wrap(err, "response is not a JSON object")}
	}

	page := &Page{Records: []college.Record{}}

	raw, ok := envelope["results"]
	trimmed := bytes.TrimSpace(raw)
	if !ok || len(trimmed) == 0 || trimmed[0] != '[' {
		page.warn(c.log, fmt.Errorf("%w: results is not a list", ErrUnexpectedShape))
		return page, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		page.warn(c.log, fmt.Errorf("%w: %v", ErrUnexpectedShape, err))
		return page, nil
	}

	skipped := 0
	for _, item := range items {
		var rec college.Record
		if err := json.Unmarshal(item, &rec); err != nil || rec == nil {
			skipped++
			continue
		}
		page.Records = append(page.Records, rec)
	}
	if skipped > 0 {
		page.warn(c.log, fmt.Errorf("%w: skipped %d results that are not objects", ErrUnexpectedShape, skipped))
	}
	return page, nil
}

func (p *Page) warn(log zerolog.Logger, err error) {
	log.Warn().Err(err).Msg("Upstream response failed shape validation")
	p.Warnings = append(p.Warnings, err)
}

// redact hides the API key from logged URLs.
func redact(u *url.URL) string {
	c := *u
	q := c.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		c.RawQuery = q.Encode()
	}
	return c.String()
}

func snippet(b []byte) string {
	const max = 256
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
