package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/selfreg/domain"
	"github.com/fastygo/selfreg/pkg/logger"
)

const contentTypeSCIM = "application/scim+json"

// Config controls how the client reaches the identity service.
type Config struct {
	// Endpoint is the SCIM base URL, e.g. http://idp:8080/osiam.
	Endpoint        string
	Timeout         time.Duration
	MaxConnsPerHost int
}

// Client talks SCIM to the identity service. It is safe for concurrent use.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *fasthttp.Client
	logger   *zap.Logger
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse identity endpoint: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("identity endpoint %q must be absolute", cfg.Endpoint)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		endpoint: endpoint,
		timeout:  cfg.Timeout,
		logger:   log,
		http: &fasthttp.Client{
			Name:                     "selfreg",
			MaxConnsPerHost:          cfg.MaxConnsPerHost,
			ReadTimeout:              cfg.Timeout,
			WriteTimeout:             cfg.Timeout,
			NoDefaultUserAgentHeader: true,
		},
	}, nil
}

// CreateUser posts user to /Users and returns the stored representation.
func (c *Client) CreateUser(ctx context.Context, user *domain.User, accessToken string) (*domain.User, error) {
	body, err := json.Marshal(user)
	if err != nil {
		return nil, &domain.ClientError{Message: "encode user", Err: err}
	}
	var created domain.User
	if err := c.do(ctx, fasthttp.MethodPost, "/Users", accessToken, body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetCurrentUser returns the user the access token belongs to.
func (c *Client) GetCurrentUser(ctx context.Context, accessToken string) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, fasthttp.MethodGet, "/Me", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser applies a partial update to the user with the given id.
func (c *Client) UpdateUser(ctx context.Context, id string, update domain.UpdateUser, accessToken string) (*domain.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &domain.RequestError{StatusCode: http.StatusBadRequest, Message: "user id is required"}
	}
	body, err := json.Marshal(update)
	if err != nil {
		return nil, &domain.ClientError{Message: "encode user update", Err: err}
	}
	var updated domain.User
	if err := c.do(ctx, fasthttp.MethodPatch, "/Users/"+url.PathEscape(id), accessToken, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Ping checks that the identity service answers HTTP at all. Any status
// code counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.endpoint + "/ServiceProviderConfig")
	req.Header.SetMethod(fasthttp.MethodGet)
	resp.SkipBody = true

	return c.http.DoDeadline(req, resp, c.deadline(ctx))
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body []byte, out any) error {
	log := logger.WithRequestID(ctx, c.logger)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.endpoint + path)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json, "+contentTypeSCIM)
	req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+accessToken)
	if reqID := logger.RequestID(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	start := time.Now()
	if err := c.http.DoDeadline(req, resp, c.deadline(ctx)); err != nil {
		log.Error("identity service unreachable",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		if errors.Is(err, fasthttp.ErrTimeout) {
			return &domain.ClientError{Message: "identity service timed out", Err: err}
		}
		return &domain.ClientError{Message: "identity service unreachable", Err: err}
	}

	status := resp.StatusCode()
	log.Debug("identity service call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Duration("duration", time.Since(start)))

	if status >= http.StatusBadRequest {
		return &domain.RequestError{StatusCode: status, Message: errorMessage(status, resp.Body())}
	}
	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &domain.ClientError{Message: "decode identity service response", Err: err}
	}
	return nil
}

// deadline picks the earlier of the context deadline and the client timeout.
func (c *Client) deadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(c.timeout)
	if ctx != nil {
		if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
			deadline = ctxDeadline
		}
	}
	return deadline
}

// remoteError covers the SCIM error schema and the OAuth-style body older
// resource servers answer with.
type remoteError struct {
	Detail      string `json:"detail"`
	Description string `json:"description"`
	Message     string `json:"message"`
	Error       string `json:"error"`
}

func errorMessage(status int, body []byte) string {
	var payload remoteError
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		for _, msg := range []string{payload.Detail, payload.Description, payload.Message, payload.Error} {
			if strings.TrimSpace(msg) != "" {
				return msg
			}
		}
	}
	return http.StatusText(status)
}
