package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/baechuer/admin-console/internal/application/login"
	"github.com/baechuer/admin-console/internal/domain"
	"github.com/baechuer/admin-console/internal/logger"
	"github.com/baechuer/admin-console/internal/metrics"
	ctxpkg "github.com/baechuer/admin-console/internal/pkg/context"
)

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 1 << 20

// ClientConfig holds configuration for the auth service client
type ClientConfig struct {
	BaseURL   string
	LoginPath string
	// Timeout bounds a whole login round trip, body included.
	Timeout time.Duration
}

// AuthClient forwards credentials to the external auth service.
// It implements login.Upstream.
type AuthClient struct {
	http     *http.Client
	loginURL string
	timeout  time.Duration
}

func NewAuthClient(cfg ClientConfig) *AuthClient {
	return NewAuthClientWithHTTP(cfg, &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
}

// NewAuthClientWithHTTP lets tests supply their own transport.
// Redirects are never followed: a 3xx is the upstream's answer.
func NewAuthClientWithHTTP(cfg ClientConfig, hc *http.Client) *AuthClient {
	client := *hc
	client.CheckRedirect = noRedirects
	return &AuthClient{
		http:     &client,
		loginURL: strings.TrimRight(cfg.BaseURL, "/") + cfg.LoginPath,
		timeout:  cfg.Timeout,
	}
}

// Following a 302/303 would replay the login as a body-less GET.
func noRedirects(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Authenticate POSTs creds as JSON. Any HTTP status is returned as a
// response; only transport failures are errors.
func (c *AuthClient) Authenticate(ctx context.Context, creds login.Credentials) (login.UpstreamResponse, error) {
	buf, err := json.Marshal(loginBody{Email: creds.Email, Password: creds.Password})
	if err != nil {
		return login.UpstreamResponse{}, domain.ErrInternal(err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL, bytes.NewReader(buf))
	if err != nil {
		return login.UpstreamResponse{}, domain.ErrInternal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if reqID := ctxpkg.GetRequestID(ctx); reqID != "" {
		req.Header.Set("X-Request-Id", reqID)
	}

	log := logger.WithCtx(ctx).With().
		Str("method", req.Method).
		Str("url", c.loginURL).
		Logger()

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest("error", time.Since(start))
		log.Warn().Err(err).Dur("duration", time.Since(start)).Msg("upstream_request_failed")
		return login.UpstreamResponse{}, mapError(err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp.Body)
	if err != nil {
		metrics.RecordUpstreamRequest("error", time.Since(start))
		log.Warn().Err(err).Int("status", resp.StatusCode).Msg("upstream_body_read_failed")
		return login.UpstreamResponse{}, mapError(err)
	}

	duration := time.Since(start)
	metrics.RecordUpstreamRequest(strconv.Itoa(resp.StatusCode), duration)
	log.Debug().Int("status", resp.StatusCode).Dur("duration", duration).Msg("upstream_request_completed")

	return login.UpstreamResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

// readBody decodes a JSON object. Anything else, including an empty body,
// yields an empty payload; only read failures are errors.
func readBody(r io.Reader) (login.Payload, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out login.Payload
	if err := dec.Decode(&out); err != nil || out == nil {
		return login.Payload{}, nil
	}
	return out, nil
}

// mapError converts low-level errors to domain errors
func mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrUpstreamTimeout(err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return domain.ErrUpstreamTimeout(err)
	}
	// Connection refused, DNS errors, client cancellation, etc.
	return domain.ErrUpstreamUnavailable(err)
}
