package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ErrUnknownOperation is returned when Do is given an operation that was not
// validated by NewClient.
var ErrUnknownOperation = errors.New("graphql: operation not registered")

// ResponseError carries the errors array of a GraphQL reply.
type ResponseError struct {
	Errors []Error
}

func (e *ResponseError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Message)
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// StatusError is returned for non-2xx HTTP replies.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("graphql: unexpected status %d: %s", e.Code, e.Body)
}

// Client posts validated operations to a catalog GraphQL endpoint.
type Client struct {
	endpoint string
	timeout  time.Duration
	headers  map[string]string
	known    map[string]bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) { c.headers[key] = value }
}

// NewClient validates the known operations and returns a client for endpoint.
func NewClient(endpoint string, opts ...ClientOption) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("graphql: endpoint is required")
	}
	if err := ValidateOperations(); err != nil {
		return nil, err
	}

	c := &Client{
		endpoint: endpoint,
		timeout:  10 * time.Second,
		headers:  make(map[string]string),
		known:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, op := range Operations() {
		c.known[op.Name] = true
	}
	return c, nil
}

// Endpoint returns the configured URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Do sends op with vars and decodes the data member into out (may be nil).
func (c *Client) Do(ctx context.Context, op Operation, vars map[string]any, out any) error {
	if !c.known[op.Name] {
		return fmt.Errorf("%w: %s", ErrUnknownOperation, op.Name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Post(c.endpoint)
	agent.JSON(request{
		Query:         op.Query,
		OperationName: op.Name,
		Variables:     vars,
	})
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	for k, v := range c.headers {
		agent.Set(k, v)
	}
	agent.Timeout(timeout)

	if err := agent.Parse(); err != nil {
		return fmt.Errorf("graphql: preparing request: %w", err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("graphql: %s: %w", op.Name, errors.Join(errs...))
	}
	if code < 200 || code > 299 {
		return &StatusError{Code: code, Body: truncate(string(body), 256)}
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("graphql: decoding %s reply: %w", op.Name, err)
	}
	if len(resp.Errors) > 0 {
		return &ResponseError{Errors: resp.Errors}
	}
	if out == nil || len(resp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("graphql: decoding %s data: %w", op.Name, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
