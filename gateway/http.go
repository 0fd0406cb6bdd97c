package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/tbxark/formwizard/form"
	"github.com/tbxark/formwizard/types"
)

const (
	DefaultTimeout   = 15 * time.Second
	maxResponseBytes = 64 << 10
)

// HTTPGateway POSTs the application as JSON to URL. Any 2xx status counts
// as success; there is no retry.
type HTTPGateway struct {
	URL    string
	Client *http.Client
	Header http.Header
}

func NewHTTPGateway(url string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPGateway{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

func (g *HTTPGateway) Submit(ctx context.Context, app form.Application) types.SubmissionOutcome {
	body, err := sonic.Marshal(app)
	if err != nil {
		return types.Failed("could not encode application: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(body))
	if err != nil {
		return types.Failed("could not build submission request: %v", err)
	}
	for k, vs := range g.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	idempotencyKey := uuid.NewString()
	req.Header.Set("Idempotency-Key", idempotencyKey)

	client := g.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		slog.Warn("Submission request failed", "url", g.URL, "idempotency_key", idempotencyKey, "error", err)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return types.Failed("submission timed out, please try again")
		}
		return types.Failed("could not reach the application service: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	slog.Info("Submission response",
		"status", resp.StatusCode,
		"idempotency_key", idempotencyKey,
		"duration", time.Since(start),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return types.Succeeded()
	}
	return types.SubmissionOutcome{Success: false, Error: failureMessage(resp.StatusCode, raw)}
}

func failureMessage(status int, raw []byte) string {
	var reply Reply
	if len(raw) > 0 && sonic.Unmarshal(raw, &reply) == nil {
		if text := reply.text(); text != "" {
			return text
		}
	}
	text := strings.TrimSpace(http.StatusText(status))
	if text == "" {
		text = "unexpected response"
	}
	return fmt.Sprintf("submission rejected: %d %s", status, text)
}

var _ Gateway = (*HTTPGateway)(nil)
