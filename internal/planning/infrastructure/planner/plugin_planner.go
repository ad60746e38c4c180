package planner

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/felixgeelhaar/kinplan/internal/planning/application/services"
	"github.com/felixgeelhaar/kinplan/internal/planning/domain"
	"github.com/felixgeelhaar/kinplan/internal/shared/infrastructure/security"
	"github.com/felixgeelhaar/kinplan/pkg/plannersdk"
	"github.com/google/uuid"
	"github.com/hashicorp/go-plugin"
)

// DefaultHorizon bounds how far past the anchor a plugin sees sessions.
const DefaultHorizon = 28 * 24 * time.Hour

// PluginPlanner implements services.Planner with an out-of-process plugin.
// It loads the anchor's upcoming sessions so the plugin needs no storage.
type PluginPlanner struct {
	remote   plannersdk.Planner
	sessions domain.SessionRepository
	horizon  time.Duration
	client   *plugin.Client
	logger   *slog.Logger
}

var _ services.Planner = (*PluginPlanner)(nil)

// NewPluginPlanner wraps an already dispensed planner.
func NewPluginPlanner(remote plannersdk.Planner, sessions domain.SessionRepository, logger *slog.Logger) *PluginPlanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &PluginPlanner{
		remote:   remote,
		sessions: sessions,
		horizon:  DefaultHorizon,
		logger:   logger,
	}
}

// LaunchPlugin starts the planner binary at path and dispenses its planner.
func LaunchPlugin(path string, sessions domain.SessionRepository, logger *slog.Logger) (*PluginPlanner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	binary, err := validateBinary(path)
	if err != nil {
		return nil, err
	}

	logger.Info("loading planner plugin", "binary", binary)

	// #nosec G204 -- binary is validated above
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  plannersdk.HandshakeConfig,
		Plugins:          plannersdk.PluginMap(nil),
		Cmd:              exec.Command(binary),
		Logger:           newHclogAdapter(logger),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to connect to planner plugin: %w", err)
	}
	raw, err := rpcClient.Dispense(plannersdk.PluginName)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to dispense planner plugin: %w", err)
	}
	remote, ok := raw.(plannersdk.Planner)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("planner plugin returned %T", raw)
	}

	p := NewPluginPlanner(remote, sessions, logger)
	p.client = client
	return p, nil
}

// WithHorizon changes how far ahead upcoming sessions are loaded.
func (p *PluginPlanner) WithHorizon(d time.Duration) *PluginPlanner {
	if d > 0 {
		p.horizon = d
	}
	return p
}

// Close stops the plugin process.
func (p *PluginPlanner) Close() {
	if p.client != nil {
		p.client.Kill()
	}
}

// PreviewRebalance implements services.Planner. The RPC itself cannot be
// cancelled; ctx is checked before it starts.
func (p *PluginPlanner) PreviewRebalance(ctx context.Context, req services.PreviewRequest) ([]domain.Move, error) {
	anchor, err := p.sessions.FindByID(ctx, req.AnchorSessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load anchor session: %w", err)
	}
	upcoming, err := p.sessions.FindByLearnerRange(ctx, anchor.LearnerID(), anchor.Start(), anchor.Start().Add(p.horizon))
	if err != nil {
		return nil, fmt.Errorf("failed to load upcoming sessions: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	args := plannersdk.PreviewArgs{
		Anchor:   toPluginSession(anchor),
		NewStart: req.NewAnchorStart,
	}
	if req.PlanID != uuid.Nil {
		args.PlanID = req.PlanID.String()
	}
	for _, s := range upcoming {
		if s.ID() == anchor.ID() {
			continue
		}
		args.Upcoming = append(args.Upcoming, toPluginSession(s))
	}

	reply, err := p.remote.PreviewRebalance(args)
	if err != nil {
		return nil, fmt.Errorf("planner plugin: %w", err)
	}
	if reply == nil {
		return nil, nil
	}

	moves := make([]domain.Move, 0, len(reply.Moves))
	for _, m := range reply.Moves {
		id, err := uuid.Parse(m.SessionID)
		if err != nil {
			return nil, fmt.Errorf("planner plugin returned session id %q: %w", m.SessionID, err)
		}
		moves = append(moves, domain.Move{
			SessionID:     id,
			CurrentStart:  m.CurrentStart,
			ProposedStart: m.ProposedStart,
			Reason:        m.Reason,
		})
	}
	return moves, nil
}

func toPluginSession(s *domain.Session) plannersdk.Session {
	return plannersdk.Session{
		ID:      s.ID().String(),
		Subject: s.Subject(),
		Title:   s.Title(),
		Start:   s.Start(),
		End:     s.End(),
		Status:  string(s.Status()),
	}
}

// validateBinary requires an absolute path to a regular file.
func validateBinary(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("planner plugin path cannot be empty")
	}
	binary, err := security.ValidateExecutable(path)
	if err != nil {
		return "", fmt.Errorf("invalid planner plugin: %w", err)
	}
	return binary, nil
}
