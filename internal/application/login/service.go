package login

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/baechuer/admin-console/internal/domain"
	"github.com/baechuer/admin-console/internal/logger"
	"github.com/baechuer/admin-console/internal/metrics"
	"github.com/baechuer/admin-console/internal/validation"
)

const defaultRejectionMessage = "Login failed"

// rejectionMessagePaths lists where upstream error bodies keep their message.
var rejectionMessagePaths = []fieldPath{
	{"message"},
	{"error"},
	{"error", "message"},
}

type Service struct {
	upstream Upstream
}

func NewService(upstream Upstream) *Service {
	return &Service{upstream: upstream}
}

// Login validates creds, forwards them upstream and normalizes the answer.
// It keeps no state; persisting the session is the caller's concern.
func (s *Service) Login(ctx context.Context, creds Credentials) (Result, error) {
	res, err := s.login(ctx, creds)
	metrics.RecordLogin(outcomeOf(err))
	return res, err
}

func (s *Service) login(ctx context.Context, creds Credentials) (Result, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := validation.Struct(creds); err != nil {
		return Result{}, err
	}

	up, err := s.upstream.Authenticate(ctx, creds)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return Result{}, err
		}
		return Result{}, domain.ErrInternal(err)
	}

	if up.StatusCode < 200 || up.StatusCode > 299 {
		return Result{}, domain.ErrUpstreamRejected(up.StatusCode, rejectionMessage(up.Body))
	}

	out, err := Normalize(up.Body, creds.Email)
	if err != nil {
		logger.WithCtx(ctx).Warn().
			Strs("keys", topLevelKeys(up.Body)).
			Int("status", up.StatusCode).
			Msg("upstream_login_missing_token")
		return Result{}, err
	}

	metrics.RecordTokenSource(out.TokenSource)
	logger.WithCtx(ctx).Debug().
		Str("token_source", out.TokenSource).
		Str("user_source", out.UserSource).
		Msg("upstream_login_normalized")

	return out, nil
}

func rejectionMessage(body Payload) string {
	for _, p := range rejectionMessagePaths {
		v, ok := p.lookup(body)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return defaultRejectionMessage
}

func topLevelKeys(body Payload) []string {
	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	var de *domain.Error
	if !errors.As(err, &de) {
		return "internal"
	}
	switch de.Code {
	case "invalid_request", "invalid_json":
		return "invalid_input"
	case "upstream_rejected":
		return "upstream_rejected"
	case "malformed_auth_response":
		return "malformed_response"
	case "upstream_timeout":
		return "upstream_timeout"
	case "upstream_unavailable":
		return "upstream_unavailable"
	default:
		return "internal"
	}
}
