// Package planner talks to the planning collaborator that proposes
// compensating moves for a rebalance.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/application/services"
	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/felixgeelhaar/kinplan/pkg/observability"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const previewPath = "/rebalance/preview"

// Config configures the HTTP planner client.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// OAuth2 client credentials; requests are unauthenticated when
	// ClientID or TokenURL is empty.
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string

	// BreakerFailures is the number of consecutive failures that opens
	// the circuit. BreakerTimeout is how long it stays open.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Client implements services.Planner over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]domain.Move]
	logger  *slog.Logger
	metrics observability.Metrics
}

var _ services.Planner = (*Client)(nil)

// NewClient creates a planner client for cfg.BaseURL.
func NewClient(cfg Config, logger *slog.Logger, metrics observability.Metrics) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("planner base URL is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	transport := http.DefaultTransport
	if cfg.ClientID != "" && cfg.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		transport = &oauthTransport{
			base:   http.DefaultTransport,
			source: cc.TokenSource(context.Background()),
		}
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout, Transport: transport},
		logger:  logger,
		metrics: metrics,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]domain.Move](gobreaker.Settings{
		Name:    "planner",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		// A rejected request says nothing about the planner's health.
		IsSuccessful: func(err error) bool {
			var se *statusError
			return err == nil || (errors.As(err, &se) && se.clientError())
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			c.metrics.Gauge(observability.MetricPlannerBreakerState, float64(to))
		},
	})
	return c, nil
}

type previewRequest struct {
	PlanID    string    `json:"planId,omitempty"`
	SessionID uuid.UUID `json:"sessionId"`
	NewStart  time.Time `json:"newStart"`
}

type previewResponse struct {
	Moves []struct {
		SessionID     uuid.UUID `json:"sessionId"`
		CurrentStart  time.Time `json:"currentStart"`
		ProposedStart time.Time `json:"proposedStart"`
		Reason        string    `json:"reason"`
	} `json:"moves"`
}

// PreviewRebalance asks the planner for the moves caused by moving the
// anchor session. An open circuit returns domain.ErrPlannerUnavailable.
func (c *Client) PreviewRebalance(ctx context.Context, req services.PreviewRequest) ([]domain.Move, error) {
	moves, err := c.breaker.Execute(func() ([]domain.Move, error) {
		return c.preview(ctx, req)
	})
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.metrics.Counter(observability.MetricPlannerRequests, 1, observability.T("outcome", outcome))

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", domain.ErrPlannerUnavailable, err)
	}
	return moves, err
}

func (c *Client) preview(ctx context.Context, req services.PreviewRequest) ([]domain.Move, error) {
	payload := previewRequest{
		SessionID: req.AnchorSessionID,
		NewStart:  req.NewAnchorStart.UTC(),
	}
	if req.PlanID != uuid.Nil {
		payload.PlanID = req.PlanID.String()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+previewPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if id := observability.CorrelationIDFromContext(ctx); id != "" {
		httpReq.Header.Set("X-Correlation-ID", id)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, responseError(resp)
	}

	var decoded previewResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode planner response: %w", err)
	}

	moves := make([]domain.Move, 0, len(decoded.Moves))
	for _, m := range decoded.Moves {
		moves = append(moves, domain.Move{
			SessionID:     m.SessionID,
			CurrentStart:  m.CurrentStart,
			ProposedStart: m.ProposedStart,
			Reason:        m.Reason,
		})
	}
	return moves, nil
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("planner request failed: status=%d body=%s", e.status, e.body)
}

func (e *statusError) clientError() bool {
	return e.status >= 400 && e.status < 500 && e.status != http.StatusTooManyRequests
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
}

type oauthTransport struct {
	base   http.RoundTripper
	source oauth2.TokenSource
}

func (t *oauthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.source.Token()
	if err != nil {
		return nil, fmt.Errorf("planner token: %w", err)
	}
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	return t.base.RoundTrip(req)
}
