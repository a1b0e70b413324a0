// Package submission sends a validated form to the external prediction API
// and decodes its answer. Each call performs exactly one request; there is no
// retry. Every failure is reported as an *Error that matches
// ErrSubmissionFailed.
package submission

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

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-healthform/pkg/model"
	"github.com/goliatone/go-healthform/pkg/validation"
)

const maxResponseBytes = 1 << 20

// Outcome labels passed to the Observer.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Client posts validated records to a fixed prediction endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	contract   *Contract
	logger     *zap.Logger
	observer   Observer
	requestID  func() string
}

// New builds a Client for the absolute http(s) endpoint.
func New(endpoint string, options ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("submission: parse endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("submission: endpoint %q must use http or https", endpoint)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("submission: endpoint %q has no host", endpoint)
	}

	c := &Client{
		endpoint:  parsed.String(),
		timeout:   DefaultTimeout,
		logger:    zap.NewNop(),
		requestID: func() string { return uuid.NewString() },
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	if c.contract == nil {
		contract, err := DefaultContract()
		if err != nil {
			return nil, err
		}
		c.contract = contract
	}
	return c, nil
}

// Endpoint reports the configured URL.
func (c *Client) Endpoint() string { return c.endpoint }

// CheckSchema reports whether forms built from schema can pass the client's
// request contract.
func (c *Client) CheckSchema(schema *model.Schema) error {
	return c.contract.CheckSchema(schema)
}

// Submit sends record and returns the decoded prediction.
func (c *Client) Submit(ctx context.Context, record *validation.Record) (model.SubmissionResult, error) {
	started := time.Now()
	requestID := c.requestID()
	log := c.logger.With(zap.String("request_id", requestID))

	result, err := c.submit(ctx, record, requestID, log)
	elapsed := time.Since(started)

	if err != nil {
		log.Warn("prediction request failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		c.observe(OutcomeFailure, elapsed)
		return model.SubmissionResult{}, err
	}

	log.Info("prediction received", zap.Duration("elapsed", elapsed))
	c.observe(OutcomeSuccess, elapsed)
	return result, nil
}

func (c *Client) submit(ctx context.Context, record *validation.Record, requestID string, log *zap.Logger) (model.SubmissionResult, error) {
	fail := func(stage Stage, status int, err error) (model.SubmissionResult, error) {
		return model.SubmissionResult{}, &Error{Stage: stage, StatusCode: status, RequestID: requestID, Err: err}
	}

	payload, err := BuildPayload(record)
	if err != nil {
		return fail(StageEncode, 0, err)
	}
	if err := c.contract.ValidateRequest(payload); err != nil {
		return fail(StageContract, 0, err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fail(StageEncode, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, c.contract.Method(), c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fail(StageTransport, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	log.Debug("sending prediction request", zap.String("endpoint", c.endpoint))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(StageTransport, 0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fail(StageTransport, resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(StageStatus, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fail(StageDecode, resp.StatusCode, err)
	}
	if err := c.contract.ValidateResponse(generic); err != nil {
		return fail(StageContract, resp.StatusCode, err)
	}

	var result model.SubmissionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return fail(StageDecode, resp.StatusCode, err)
	}
	return result, nil
}

func (c *Client) observe(outcome string, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveSubmission(outcome, elapsed)
	}
}
