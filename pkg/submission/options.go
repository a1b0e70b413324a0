package submission

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single prediction request.
const DefaultTimeout = 30 * time.Second

// Observer receives one observation per finished submission.
type Observer interface {
	ObserveSubmission(outcome string, elapsed time.Duration)
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client. Its Timeout wins over
// WithTimeout.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client. Zero
// disables the timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout >= 0 {
			c.timeout = timeout
		}
	}
}

// WithContract replaces the bundled OpenAPI contract.
func WithContract(contract *Contract) Option {
	return func(c *Client) {
		if contract != nil {
			c.contract = contract
		}
	}
}

// WithLogger attaches a zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver records submission outcomes, typically into prometheus.
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// WithRequestIDFunc overrides how X-Request-ID values are generated.
func WithRequestIDFunc(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.requestID = fn
		}
	}
}
