package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"creditdash/internal/config"
)

const (
	defaultTimeout = 60 * time.Second
	maxErrorBody   = 64 << 10
)

// Reply is a successful agent answer. Text may be empty.
type Reply struct {
	Text     string `json:"text"`
	ThreadID string `json:"thread_id,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type runRequest struct {
	Messages []message `json:"messages"`
	ThreadID string    `json:"thread_id,omitempty"`
}

// Client calls the hosted analyst agent over its streaming run endpoint.
type Client struct {
	http       *resty.Client
	endpoint   string
	authHeader string
	agentFQN   string
	timeout    time.Duration
	logger     *zap.Logger
}

type Option func(*Client)

// WithTransport replaces the HTTP transport, mainly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.SetTransport(rt) }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
			c.http.SetLogger(l.Sugar())
		}
	}
}

func New(cfg config.AgentConfig, opts ...Option) (*Client, error) {
	endpoint, err := Endpoint(cfg)
	if err != nil {
		return nil, err
	}
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("agent token is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rc := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "text/event-stream").
		SetRetryCount(max(cfg.RetryCount, 0)).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(4 * max(cfg.RetryWait, 100*time.Millisecond)).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			// Only connection failures before any response byte are retried.
			return err != nil && (resp == nil || resp.RawResponse == nil) && isConnectionFailure(err) &&
				!errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled)
		})

	c := &Client{
		http:       rc,
		endpoint:   endpoint,
		authHeader: authorization(cfg.AuthScheme, token),
		agentFQN:   fullyQualifiedName(cfg),
		timeout:    timeout,
		logger:     zap.NewNop(),
	}
	c.http.SetLogger(c.logger.Sugar())
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Endpoint() string { return c.endpoint }

// Endpoint derives the agent run URL. Accounts in AWS regions are addressed
// without the region segment.
func Endpoint(cfg config.AgentConfig) (string, error) {
	database := strings.TrimSpace(cfg.Database)
	schema := strings.TrimSpace(cfg.Schema)
	name := strings.TrimSpace(cfg.Name)
	if database == "" || schema == "" || name == "" {
		return "", errors.New("agent database, schema and name are required")
	}
	path := fmt.Sprintf("/api/v2/databases/%s/schemas/%s/agents/%s:run",
		url.PathEscape(database), url.PathEscape(schema), url.PathEscape(name))

	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		if _, err := url.Parse(base); err != nil {
			return "", fmt.Errorf("agent base_url: %w", err)
		}
		return base + path, nil
	}

	account := strings.ToLower(strings.TrimSpace(cfg.Account))
	if account == "" {
		return "", errors.New("agent account is required when base_url is not set")
	}
	region := strings.TrimSpace(cfg.Region)
	host := account + ".snowflakecomputing.com"
	if region != "" && !strings.Contains(region, "AWS_") {
		host = account + "." + strings.ToLower(region) + ".snowflakecomputing.com"
	}
	return "https://" + host + path, nil
}

func authorization(scheme, token string) string {
	if strings.EqualFold(strings.TrimSpace(scheme), "bearer") {
		return "Bearer " + token
	}
	return `Snowflake Token="` + token + `"`
}

func fullyQualifiedName(cfg config.AgentConfig) string {
	return strings.ToLower(strings.TrimSpace(cfg.Database)) + "." +
		strings.ToLower(strings.TrimSpace(cfg.Schema)) + "." +
		strings.TrimSpace(cfg.Name)
}

// Run sends one user message and drains the streamed answer. onFragment, when
// set, receives every text fragment in arrival order. On failure the returned
// error is an *Error and the reply is empty.
func (c *Client) Run(ctx context.Context, text string, threadID string, onFragment func(string)) (Reply, error) {
	if c == nil || c.http == nil {
		return Reply{}, &Error{Kind: KindUnexpected, Message: "Unexpected error: agent client not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", c.authHeader).
		SetBody(runRequest{
			Messages: []message{{Role: "user", Content: text}},
			ThreadID: threadID,
		}).
		SetDoNotParseResponse(true).
		Post(c.endpoint)
	if err != nil {
		ae := transportError(ctx, err)
		c.logger.Warn("agent request failed", zap.String("kind", string(ae.Kind)), zap.Error(err))
		return Reply{}, ae
	}
	body := resp.RawBody()
	defer func() { _ = body.Close() }()

	if !resp.IsSuccess() {
		b, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
		ae := statusError(resp.StatusCode(), string(b), c.agentFQN)
		c.logger.Warn("agent returned error status",
			zap.Int("status", resp.StatusCode()),
			zap.String("kind", string(ae.Kind)))
		return Reply{}, ae
	}

	reply, err := readStream(body, threadID, onFragment)
	if err != nil {
		ae := transportError(ctx, err)
		c.logger.Warn("agent stream failed", zap.String("kind", string(ae.Kind)), zap.Error(err))
		return Reply{}, ae
	}
	c.logger.Debug("agent reply",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", len(reply.Text)),
		zap.Bool("new_thread", threadID == "" && reply.ThreadID != ""))
	return reply, nil
}
