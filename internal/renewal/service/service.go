package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"absher/internal/expiry"
	identity "absher/internal/identity/models"
	"absher/internal/platform/metrics"
	"absher/internal/renewal/models"
	dErrors "absher/pkg/domain-errors"
	"absher/pkg/sentinel"
)

// SessionStore exposes the session state the workflow reads and mutates.
type SessionStore interface {
	Find(ctx context.Context, id uuid.UUID) (*identity.SessionUser, error)
	UpdateServiceExpiry(ctx context.Context, id uuid.UUID, kind identity.ServiceKind, expiresAt time.Time) error
}

// ProposalStore holds live proposals between propose and confirm.
type ProposalStore interface {
	Save(ctx context.Context, p models.Proposal) error
	Consume(ctx context.Context, actionID uuid.UUID) (models.Proposal, error)
}

// Service implements the propose -> confirm -> apply renewal workflow.
// Eligibility and fee are recomputed at confirm time; client-declared
// amounts are never trusted.
type Service struct {
	sessions    SessionStore
	proposals   ProposalStore
	logger      *slog.Logger
	metrics     *metrics.Metrics
	threshold   time.Duration
	proposalTTL time.Duration
	now         func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithThreshold(threshold time.Duration) Option {
	return func(s *Service) {
		s.threshold = threshold
	}
}

func WithProposalTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.proposalTTL = ttl
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New constructs the workflow service.
func New(sessions SessionStore, proposals ProposalStore, opts ...Option) (*Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if proposals == nil {
		return nil, fmt.Errorf("proposal store is required")
	}
	s := &Service{
		sessions:    sessions,
		proposals:   proposals,
		logger:      slog.Default(),
		threshold:   expiry.DefaultThreshold,
		proposalTTL: 5 * time.Minute,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Propose computes the official fee for the target service kind and
// returns a proposal for display and explicit confirmation. No session
// state is mutated. Unknown kinds get the default fee; they simply cannot
// pass the eligibility re-check later.
func (s *Service) Propose(ctx context.Context, sessionID uuid.UUID, kind identity.ServiceKind) (models.ProposedAction, error) {
	if _, err := s.findSession(ctx, sessionID); err != nil {
		return models.ProposedAction{}, err
	}

	now := s.now().UTC()
	fee := models.FeeFor(kind)
	p := models.Proposal{
		ActionID:    uuid.New(),
		SessionID:   sessionID,
		ServiceType: kind,
		Fee:         fee,
		Currency:    models.Currency,
		Description: models.DescribeProposal(kind, fee),
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.proposalTTL),
	}
	if err := s.proposals.Save(ctx, p); err != nil {
		return models.ProposedAction{}, fmt.Errorf("save proposal: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RenewalsProposed.WithLabelValues(kind.String()).Inc()
	}
	s.logger.InfoContext(ctx, "renewal proposed",
		"session_id", sessionID.String(),
		"service_type", kind.String(),
		"action_id", p.ActionID.String(),
		"fee", fee,
	)
	return p.Action(), nil
}

// ConfirmRequest carries the caller's answer to a proposal.
type ConfirmRequest struct {
	SessionID   uuid.UUID
	ActionID    uuid.UUID
	ServiceType identity.ServiceKind
	Accepted    bool
}

// Confirm finishes the handshake. Rejection always succeeds as a terminal
// no-op and retires the proposal, so the same action id cannot be accepted
// later. Acceptance re-validates the proposal and the service's current
// eligibility before applying; an ineligible service yields a graceful
// no-op outcome, not an error.
func (s *Service) Confirm(ctx context.Context, req ConfirmRequest) (models.Outcome, error) {
	session, err := s.findSession(ctx, req.SessionID)
	if err != nil {
		return models.Outcome{}, err
	}

	if !req.Accepted {
		if req.ActionID != uuid.Nil {
			if _, err := s.proposals.Consume(ctx, req.ActionID); err != nil &&
				!errors.Is(err, sentinel.ErrNotFound) && !errors.Is(err, sentinel.ErrExpired) {
				return models.Outcome{}, fmt.Errorf("consume proposal: %w", err)
			}
		}
		s.logger.InfoContext(ctx, "renewal rejected by user",
			"session_id", req.SessionID.String(),
			"action_id", req.ActionID.String(),
		)
		return models.Outcome{
			Status: models.ConfirmRejected,
			Detail: fmt.Sprintf("Action %s rejected by user. Nothing was changed.", req.ActionID),
		}, nil
	}

	if req.ActionID != uuid.Nil {
		p, err := s.proposals.Consume(ctx, req.ActionID)
		switch {
		case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrExpired):
			return s.noop(ctx, req, "The proposal is expired or already used. Please start the renewal again."), nil
		case err != nil:
			return models.Outcome{}, fmt.Errorf("consume proposal: %w", err)
		}
		if p.SessionID != req.SessionID || p.ServiceType != req.ServiceType {
			return s.noop(ctx, req, "The confirmed action does not match the proposal. Nothing was renewed."), nil
		}
	}

	svc := session.User.ServiceByKind(req.ServiceType)
	if svc == nil || svc.ExpiresAt == nil {
		return s.noop(ctx, req, fmt.Sprintf("No tracked %s service was found to renew.", req.ServiceType.Label())), nil
	}

	now := s.now().UTC()
	eval := expiry.Evaluate(*svc.ExpiresAt, now, s.threshold)
	if !eval.Eligible() {
		return s.noop(ctx, req, fmt.Sprintf("%s is still valid (%s). Nothing was renewed.",
			svc.Label, eval.Describe())), nil
	}

	// Fee is recomputed here; any amount echoed by the client is ignored.
	fee := models.FeeFor(req.ServiceType)

	base := now
	if eval.ExpiresAt.After(now) {
		base = eval.ExpiresAt
	}
	newExpiry := base.Add(models.RenewalExtension)

	if err := s.sessions.UpdateServiceExpiry(ctx, req.SessionID, req.ServiceType, newExpiry); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrConflict) {
			return s.noop(ctx, req, "The service state changed during confirmation. Nothing was renewed."), nil
		}
		return models.Outcome{}, fmt.Errorf("apply renewal: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RenewalsApplied.WithLabelValues(req.ServiceType.String()).Inc()
	}
	s.logger.InfoContext(ctx, "renewal applied",
		"session_id", req.SessionID.String(),
		"service_type", req.ServiceType.String(),
		"new_expiry", newExpiry.Format(time.RFC3339),
		"fee", fee,
	)
	return models.Outcome{
		Status:  models.ConfirmAccepted,
		Applied: true,
		Detail: fmt.Sprintf("%s renewed for %.0f %s. New expiry date: %s.",
			svc.Label, fee, models.Currency, newExpiry.Format("2006-01-02")),
		NewExpiry: &newExpiry,
	}, nil
}

func (s *Service) noop(ctx context.Context, req ConfirmRequest, detail string) models.Outcome {
	if s.metrics != nil {
		s.metrics.RenewalNoops.Inc()
	}
	s.logger.InfoContext(ctx, "renewal confirm no-op",
		"session_id", req.SessionID.String(),
		"service_type", req.ServiceType.String(),
		"detail", detail,
	)
	return models.Outcome{Status: models.ConfirmAccepted, Detail: detail}
}

func (s *Service) findSession(ctx context.Context, id uuid.UUID) (*identity.SessionUser, error) {
	session, err := s.sessions.Find(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "unknown session")
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return session, nil
}
