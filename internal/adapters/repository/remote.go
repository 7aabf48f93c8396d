package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/okian/wastewise/internal/domain/model"
	"github.com/okian/wastewise/internal/domain/types"
	"github.com/okian/wastewise/pkg/metrics"
	"github.com/tidwall/gjson"
)

const (
	defaultRemoteTimeout  = 10 * time.Second
	defaultRemoteRetryMax = 3
	maxResponseBytes      = 4 << 20

	pathLeaderboard = "/api/employee/leaderboard"
	pathMetrics     = "/api/dashboard/metrics"
	pathWasteChart  = "/api/dashboard/waste-chart"
	pathWasteTypes  = "/api/dashboard/waste-types"
	pathHistory     = "/api/employee/history"
	pathSubmit      = "/api/employee/submit-waste"

	headerIdempotencyKey = "Idempotency-Key"
)

// Remote talks to the hosted backend over HTTP. Every response is a
// {status, data} envelope.
type Remote struct {
	baseURL  string
	timeout  time.Duration
	retryMax int
	client   *retryablehttp.Client

	httpClient *http.Client
}

// RemoteOption applies a configuration option to Remote.
type RemoteOption func(*Remote)

// WithBaseURL sets the backend root, e.g. https://api.example.com.
func WithBaseURL(u string) RemoteOption {
	return func(r *Remote) {
		r.baseURL = strings.TrimRight(strings.TrimSpace(u), "/")
	}
}

// WithTimeout bounds a single attempt.
func WithTimeout(d time.Duration) RemoteOption {
	return func(r *Remote) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRetryMax sets how many times a failed request is retried.
func WithRetryMax(n int) RemoteOption {
	return func(r *Remote) {
		if n >= 0 {
			r.retryMax = n
		}
	}
}

// WithHTTPClient sends requests through a copy of c, mostly for tests.
// c itself is never modified.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *Remote) {
		if c != nil {
			r.httpClient = c
		}
	}
}

// NewRemote builds a client for the hosted backend.
func NewRemote(opts ...RemoteOption) (*Remote, error) {
	r := &Remote{
		timeout:  defaultRemoteTimeout,
		retryMax: defaultRemoteRetryMax,
		client:   retryablehttp.NewClient(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.baseURL == "" {
		return nil, ErrNoBaseURL
	}
	if _, err := url.ParseRequestURI(r.baseURL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoBaseURL, err)
	}

	if r.httpClient != nil {
		hc := *r.httpClient
		r.client.HTTPClient = &hc
	}
	r.client.Logger = log.New(io.Discard, "", 0)
	r.client.RetryMax = r.retryMax
	r.client.RetryWaitMin = 50 * time.Millisecond
	r.client.RetryWaitMax = time.Second
	r.client.HTTPClient.Timeout = r.timeout
	return r, nil
}

func (r *Remote) Leaderboard(ctx context.Context) ([]model.LeaderboardRow, error) {
	var rows []model.LeaderboardRow
	err := r.do(ctx, http.MethodGet, pathLeaderboard, nil, nil, &rows)
	return rows, err
}

func (r *Remote) Metrics(ctx context.Context) (model.MetricsSnapshot, error) {
	var m model.MetricsSnapshot
	err := r.do(ctx, http.MethodGet, pathMetrics, nil, nil, &m)
	return m, err
}

func (r *Remote) WasteChart(ctx context.Context, tf model.Timeframe) ([]model.ChartBucket, error) {
	if _, err := model.ParseTimeframe(string(tf)); err != nil {
		return nil, err
	}
	var buckets []model.ChartBucket
	err := r.do(ctx, http.MethodGet, pathWasteChart+"?timeframe="+url.QueryEscape(string(tf)), nil, nil, &buckets)
	return buckets, err
}

func (r *Remote) WasteTypes(ctx context.Context) ([]model.WasteTypeShare, error) {
	var shares []model.WasteTypeShare
	err := r.do(ctx, http.MethodGet, pathWasteTypes, nil, nil, &shares)
	return shares, err
}

func (r *Remote) RecentEntries(ctx context.Context) ([]model.WasteLogEntry, error) {
	var entries []model.WasteLogEntry
	err := r.do(ctx, http.MethodGet, pathHistory, nil, nil, &entries)
	return entries, err
}

// Submit posts sub under a fresh idempotency key, so a retried attempt
// cannot be applied twice by the backend.
func (r *Remote) Submit(ctx context.Context, sub model.Submission) (model.WasteLogEntry, error) {
	return r.SubmitWithKey(ctx, uuid.NewString(), sub)
}

// SubmitWithKey posts sub with key as its Idempotency-Key. If the backend
// already applied the key the error wraps ErrDuplicate.
func (r *Remote) SubmitWithKey(ctx context.Context, key string, sub model.Submission) (model.WasteLogEntry, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return model.WasteLogEntry{}, fmt.Errorf("%w: encode submission: %v", ErrRemote, err)
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	if key != "" {
		header.Set(headerIdempotencyKey, key)
	}
	if sub.UserID != 0 {
		header.Set("User-ID", strconv.FormatInt(sub.UserID, 10))
	}
	var entry model.WasteLogEntry
	err = r.do(ctx, http.MethodPost, pathSubmit, header, body, &entry)
	return entry, err
}

// do sends one request and decodes the data member of the envelope into out.
func (r *Remote) do(ctx context.Context, method, path string, header http.Header, body []byte, out any) error {
	start := time.Now()
	endpoint := path
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	outcome := "error"
	defer func() {
		metrics.RecordRemoteRequest(endpoint, outcome, float64(time.Since(start).Milliseconds()))
	}()

	var reqBody any
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, r.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrRemote, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrRemote, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrRemote, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gjson.GetBytes(raw, "message").String()
		if msg == "" {
			msg = gjson.GetBytes(raw, "error").String()
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrRemote, method, path, resp.StatusCode, msg)
	}

	if !gjson.ValidBytes(raw) {
		return fmt.Errorf("%w: %s: invalid JSON", ErrDecode, path)
	}
	switch status := gjson.GetBytes(raw, "status").String(); status {
	case types.StatusSuccess:
	case types.StatusDuplicate:
		outcome = "duplicate"
		return fmt.Errorf("%w: %s", ErrDuplicate, path)
	default:
		return fmt.Errorf("%w: %s: status %q", ErrRemote, path, status)
	}
	data := gjson.GetBytes(raw, "data")
	if !data.Exists() {
		return fmt.Errorf("%w: %s: missing data", ErrDecode, path)
	}
	if err := json.Unmarshal([]byte(data.Raw), out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	outcome = "ok"
	return nil
}
