// Package fflogs reads reports and events from the FFLogs v1 web API.
//
// Requests are rate limited per client. Event queries follow
// nextPageTimestamp until the window is exhausted, so callers always get the
// complete sequence or an error.
package fflogs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/daviddao/xivlens/pkg/model"
	"github.com/daviddao/xivlens/pkg/source"
)

// DefaultBaseURL is the public v1 API root.
const DefaultBaseURL = "https://www.fflogs.com/v1"

// ErrAPIKeyRequired indicates a client built without an API key.
var ErrAPIKeyRequired = errors.New("fflogs api key is required")

// maxPages bounds pagination against an API that never stops paging.
const maxPages = 1000

// Config configures a Client.
type Config struct {
	BaseURL string
	APIKey  string
	// RPS is the sustained request rate. Zero means 5.
	RPS float64
	// Burst is the limiter burst size. Zero means 1.
	Burst int
	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client is a rate-limited FFLogs API client. It implements
// source.ReportSource and source.EventSource.
type Client struct {
	base    string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		base:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    cfg.HTTPClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		logger:  cfg.Logger.Named("fflogs"),
	}, nil
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fflogs: HTTP %d: %s", e.StatusCode, e.Message)
}

// Is maps 404 responses to source.ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == source.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// fightsResponse is the body of /report/fights/{code}.
type fightsResponse struct {
	Title      string            `json:"title"`
	Fights     []model.Fight     `json:"fights"`
	Friendlies []model.Combatant `json:"friendlies"`
}

// eventsResponse is one page of /report/events/{code}.
type eventsResponse struct {
	Events            []json.RawMessage `json:"events"`
	NextPageTimestamp *int64            `json:"nextPageTimestamp"`
}

// Report implements source.ReportSource.
func (c *Client) Report(ctx context.Context, code string) (*model.Report, error) {
	var body fightsResponse
	if err := c.get(ctx, "report/fights/"+url.PathEscape(code), nil, &body); err != nil {
		return nil, fmt.Errorf("report %q: %w", code, err)
	}
	c.logger.Debug("report fetched",
		zap.String("code", code),
		zap.Int("fights", len(body.Fights)),
		zap.Int("friendlies", len(body.Friendlies)))
	return &model.Report{
		Code:       code,
		Title:      body.Title,
		Fights:     body.Fights,
		Friendlies: body.Friendlies,
	}, nil
}

// Events implements source.EventSource.
func (c *Client) Events(ctx context.Context, q source.EventQuery) ([]model.Event, error) {
	var out []model.Event
	start := q.Start
	for page := 0; ; page++ {
		if page == maxPages {
			return nil, fmt.Errorf("events %s: more than %d pages", q, maxPages)
		}
		params := url.Values{
			"start":     {strconv.FormatInt(start, 10)},
			"end":       {strconv.FormatInt(q.End, 10)},
			"actorid":   {strconv.Itoa(q.ActorID)},
			"translate": {"true"},
		}
		var body eventsResponse
		if err := c.get(ctx, "report/events/"+url.PathEscape(q.Code), params, &body); err != nil {
			return nil, fmt.Errorf("events %s: %w", q, err)
		}
		for i, raw := range body.Events {
			var e model.Event
			if err := json.Unmarshal(raw, &e); err != nil {
				return nil, fmt.Errorf("events %s: page %d event %d: %w", q, page, i, err)
			}
			e.Raw = raw
			out = append(out, e)
		}
		next := body.NextPageTimestamp
		if next == nil || *next > q.End {
			break
		}
		if *next <= start {
			return nil, fmt.Errorf("events %s: page %d did not advance past %d", q, page, start)
		}
		start = *next
	}
	c.logger.Debug("events fetched", zap.Stringer("query", q), zap.Int("events", len(out)))
	return out, nil
}

// get issues one rate-limited GET and decodes the JSON body into dst.
func (c *Client) get(ctx context.Context, path string, params url.Values, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/"+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: apiMessage(data)}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// apiMessage extracts the "error" field FFLogs puts in failure bodies,
// falling back to the raw text.
func apiMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
