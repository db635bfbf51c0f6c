// Package usersapi is the HTTP client for the users REST backend.
package usersapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/rubrica/internal/errs"
	"github.com/and161185/rubrica/internal/model"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Client talks to the /users collection of the backend.
type Client struct {
	base string
	hc   *http.Client
	log  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

// WithLogger sets the logger used for request logging.
func WithLogger(log *zap.Logger) Option { return func(c *Client) { c.log = log } }

// New returns a client for the backend at baseURL (e.g. http://localhost:3001).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		hc:   http.DefaultClient,
		log:  zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// List returns every user in server order.
func (c *Client) List(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if err := c.do(ctx, "list users", http.MethodGet, "/users", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.User{}
	}
	return out, nil
}

// Get returns a single user.
func (c *Client) Get(ctx context.Context, id int64) (model.User, error) {
	var out model.User
	err := c.do(ctx, "get user", http.MethodGet, userPath(id), nil, &out)
	return out, err
}

// Create stores a new user and returns it with its assigned id.
func (c *Client) Create(ctx context.Context, d model.UserDraft) (model.User, error) {
	var out model.User
	err := c.do(ctx, "create user", http.MethodPost, "/users", d, &out)
	return out, err
}

// Update replaces the user with the given id and returns the stored record.
func (c *Client) Update(ctx context.Context, id int64, d model.UserDraft) (model.User, error) {
	var out model.User
	err := c.do(ctx, "update user", http.MethodPut, userPath(id), d, &out)
	return out, err
}

// Delete removes the user with the given id.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, "delete user", http.MethodDelete, userPath(id), nil, nil)
}

func userPath(id int64) string { return "/users/" + strconv.FormatInt(id, 10) }

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rid := uuid.Must(uuid.NewV4()).String()
	req.Header.Set(RequestIDHeader, rid)

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.log.Warn("http",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", rid),
			zap.Error(err),
		)
		return &errs.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("http",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("dur", time.Since(start)),
		zap.String("request_id", rid),
	)

	if resp.StatusCode >= 300 {
		return statusError(op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// errorBody is the error payload returned by the backend.
type errorBody struct {
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

func statusError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		msg := eb.Message
		if msg == "" {
			msg = eb.Error
		}
		if msg == "" {
			msg = strings.TrimSpace(http.StatusText(resp.StatusCode))
		}
		return fmt.Errorf("%s: %w", op, &errs.ValidationError{Message: msg, Fields: eb.Fields})
	default:
		var cause error
		if s := strings.TrimSpace(string(raw)); s != "" {
			cause = errors.New(s)
		}
		return &errs.TransportError{Op: op, Status: resp.StatusCode, Err: cause}
	}
}
