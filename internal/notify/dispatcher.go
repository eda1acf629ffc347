// Package notify performs single-shot outbound webhook deliveries.
//
// A delivery is fire-and-forget: one POST with a fixed test payload,
// bounded by a hard timeout. The dispatcher never retries and never
// returns an error to its caller; every outcome, including transport
// failure, is a typed Result. Retry policy, if any, belongs to the job
// queue.
package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Pankaj-karwasra/product-importer/internal/catalog"
	"github.com/Pankaj-karwasra/product-importer/internal/logging"
)

// DefaultTimeout bounds one delivery attempt.
const DefaultTimeout = 10 * time.Second

// DefaultBodyLimit is the maximum response body excerpt kept, in bytes.
const DefaultBodyLimit = 500

// testPayload is the fixed body POSTed on a test delivery.
const testPayload = `{"test": true}`

// Status classifies a delivery outcome.
type Status string

const (
	StatusOK       Status = "ok"
	StatusNotFound Status = "not_found"
	StatusError    Status = "error"
)

// Result is the typed outcome of one delivery attempt.
type Result struct {
	Status     Status `json:"status"`
	StatusCode int    `json:"status_code,omitempty"`
	Body       string `json:"body,omitempty"`
	Error      string `json:"error,omitempty"`
}

// WebhookFinder looks up a registered endpoint. Satisfied by
// *catalog.Store; tests substitute a fake.
type WebhookFinder interface {
	GetWebhook(ctx context.Context, id uuid.UUID) (catalog.Webhook, error)
}

// Dispatcher executes deliveries against registered webhook endpoints.
// It is stateless and safe to call repeatedly.
type Dispatcher struct {
	webhooks  WebhookFinder
	client    *http.Client
	bodyLimit int
}

// New creates a Dispatcher. Non-positive timeout and bodyLimit fall
// back to the defaults.
func New(webhooks WebhookFinder, timeout time.Duration, bodyLimit int) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if bodyLimit <= 0 {
		bodyLimit = DefaultBodyLimit
	}
	return &Dispatcher{
		webhooks:  webhooks,
		client:    &http.Client{Timeout: timeout},
		bodyLimit: bodyLimit,
	}
}

// Deliver performs exactly one test delivery to the endpoint with the
// given identifier. An unknown identifier yields not_found without any
// outbound call.
func (d *Dispatcher) Deliver(ctx context.Context, endpointID string) Result {
	log := logging.WithFields(ctx, "endpoint_id", endpointID)

	id, err := uuid.Parse(endpointID)
	if err != nil {
		return Result{Status: StatusNotFound}
	}

	wh, err := d.webhooks.GetWebhook(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return Result{Status: StatusNotFound}
	}
	if err != nil {
		log.Error("webhook lookup failed", "error", err)
		return Result{Status: StatusError, Error: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wh.URL, strings.NewReader(testPayload))
	if err != nil {
		return Result{Status: StatusError, Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		log.Warn("webhook delivery failed", "url", wh.URL, "error", err)
		return Result{Status: StatusError, Error: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(d.bodyLimit)))
	if err != nil {
		return Result{Status: StatusError, StatusCode: resp.StatusCode, Error: err.Error()}
	}

	log.Info("webhook delivered", "url", wh.URL, "status_code", resp.StatusCode)
	return Result{Status: StatusOK, StatusCode: resp.StatusCode, Body: string(body)}
}
