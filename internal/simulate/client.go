package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/okian/wastewise/internal/adapters/repository"
	"github.com/okian/wastewise/internal/domain/types"
)

const (
	submitPath       = "/api/employee/submit-waste"
	codeStorageError = "storage_error"
)

// submitRetryPolicy is the default policy minus 500s. A 500 from the
// submit route may mean the entry was applied, and a retry would come back
// as a duplicate.
func submitRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp != nil && resp.StatusCode == http.StatusInternalServerError {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// client reads views through the remote repository and submits with
// idempotency keys so duplicates can be told apart from creations.
type client struct {
	*repository.Remote
	baseURL string
	http    *retryablehttp.Client
}

func newClient(cfg *Config) (*client, error) {
	remote, err := repository.NewRemote(
		repository.WithBaseURL(cfg.BaseURL),
		repository.WithTimeout(cfg.Timeout),
		repository.WithRetryMax(cfg.RetryMax),
	)
	if err != nil {
		return nil, err
	}
	hc := retryablehttp.NewClient()
	hc.Logger = log.New(io.Discard, "", 0)
	hc.RetryMax = cfg.RetryMax
	hc.RetryWaitMin = 50 * time.Millisecond
	hc.RetryWaitMax = time.Second
	hc.HTTPClient.Timeout = cfg.Timeout
	hc.CheckRetry = submitRetryPolicy
	return &client{
		Remote:  remote,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
	}, nil
}

// health fails unless GET /healthz answers 200.
func (c *client) health(ctx context.Context) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// submit posts one submission. A retry that lands after the first attempt
// was applied comes back as a duplicate thanks to the idempotency key.
func (c *client) submit(ctx context.Context, s *Submission) (Outcome, error) {
	body, err := json.Marshal(s.Submission)
	if err != nil {
		return OutcomeFailed, err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, bytes.NewReader(body))
	if err != nil {
		return OutcomeFailed, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", s.Key)
	req.Header.Set("User-ID", strconv.FormatInt(s.UserID, 10))

	resp, err := c.http.Do(req)
	if err != nil {
		return OutcomeFailed, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return OutcomeFailed, err
	}

	status := gjson.GetBytes(raw, "status").String()
	msg := gjson.GetBytes(raw, "message").String()
	switch {
	case resp.StatusCode == http.StatusCreated && status == types.StatusSuccess:
		return OutcomeCreated, nil
	case resp.StatusCode == http.StatusOK && status == types.StatusDuplicate:
		return OutcomeDuplicate, nil
	case resp.StatusCode == http.StatusInternalServerError && gjson.GetBytes(raw, "code").String() == codeStorageError:
		// Applied in memory, only persistence failed.
		return OutcomeCreated, fmt.Errorf("submit %s: %s", s.Key, msg)
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return OutcomeFailed, fmt.Errorf("submit %s: status %d: %s", s.Key, resp.StatusCode, msg)
}
