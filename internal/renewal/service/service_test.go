package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	identity "absher/internal/identity/models"
	"absher/internal/identity/store/session"
	"absher/internal/renewal/models"
	"absher/internal/renewal/store/proposal"
	dErrors "absher/pkg/domain-errors"
)

type WorkflowSuite struct {
	suite.Suite
	sessions  *session.InMemoryStore
	proposals *proposal.InMemoryStore
	service   *Service
	sessionID uuid.UUID
	now       time.Time
}

func (s *WorkflowSuite) SetupTest() {
	s.now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }

	s.sessions = session.NewInMemoryStore()
	s.proposals = proposal.NewInMemoryStore().WithClock(clock)

	// One expiring, one expired, one comfortably valid.
	licenseExpiry := s.now.Add(48 * time.Hour)
	passportExpiry := s.now.Add(-10 * 24 * time.Hour)
	registrationExpiry := s.now.Add(200 * 24 * time.Hour)
	template := identity.User{
		NationalID:   "1012345678",
		Username:     "ahmed",
		PasswordHash: "hash",
		Name:         "Ahmed",
		Services: []identity.ServiceRecord{
			{Kind: identity.KindDriverLicense, Label: "Driver License", ExpiresAt: &licenseExpiry},
			{Kind: identity.KindPassport, Label: "Passport", ExpiresAt: &passportExpiry},
			{Kind: identity.KindVehicleRegistration, Label: "Vehicle Registration", ExpiresAt: &registrationExpiry},
			{Kind: identity.KindNationalID, Label: "National ID"},
		},
	}

	var err error
	s.sessionID, err = s.sessions.Create(context.Background(), template, s.now)
	s.Require().NoError(err)

	s.service, err = New(s.sessions, s.proposals, WithClock(clock))
	s.Require().NoError(err)
}

func TestWorkflowSuite(t *testing.T) {
	suite.Run(t, new(WorkflowSuite))
}

func (s *WorkflowSuite) confirm(actionID uuid.UUID, kind identity.ServiceKind, accepted bool) models.Outcome {
	outcome, err := s.service.Confirm(context.Background(), ConfirmRequest{
		SessionID:   s.sessionID,
		ActionID:    actionID,
		ServiceType: kind,
		Accepted:    accepted,
	})
	s.Require().NoError(err)
	return outcome
}

func (s *WorkflowSuite) expiryOf(kind identity.ServiceKind) time.Time {
	su, err := s.sessions.Find(context.Background(), s.sessionID)
	s.Require().NoError(err)
	svc := su.User.ServiceByKind(kind)
	s.Require().NotNil(svc)
	s.Require().NotNil(svc.ExpiresAt)
	return *svc.ExpiresAt
}

func (s *WorkflowSuite) TestProposeDoesNotMutate() {
	before := s.expiryOf(identity.KindDriverLicense)

	action, err := s.service.Propose(context.Background(), s.sessionID, identity.KindDriverLicense)
	s.Require().NoError(err)
	s.Equal("renew_driver_license", action.Type)
	s.Equal(80.0, action.Fee)
	s.Equal("SAR", action.Currency)
	s.NotEqual(uuid.Nil, action.ID)

	s.True(s.expiryOf(identity.KindDriverLicense).Equal(before))
}

func (s *WorkflowSuite) TestProposeUnknownSession() {
	_, err := s.service.Propose(context.Background(), uuid.New(), identity.KindPassport)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *WorkflowSuite) TestFeeIsDeterministicPerKind() {
	fees := map[identity.ServiceKind]float64{
		identity.KindNationalID:          150,
		identity.KindDriverLicense:       80,
		identity.KindPassport:            164,
		identity.KindVehicleRegistration: 100,
	}
	for kind, want := range fees {
		first, err := s.service.Propose(context.Background(), s.sessionID, kind)
		s.Require().NoError(err)
		second, err := s.service.Propose(context.Background(), s.sessionID, kind)
		s.Require().NoError(err)
		s.Equal(want, first.Fee, kind)
		s.Equal(first.Fee, second.Fee, kind)
	}
}

func (s *WorkflowSuite) TestConfirmAcceptedExpiringService() {
	oldExpiry := s.expiryOf(identity.KindDriverLicense)
	action, err := s.service.Propose(context.Background(), s.sessionID, identity.KindDriverLicense)
	s.Require().NoError(err)

	outcome := s.confirm(action.ID, identity.KindDriverLicense, true)
	s.Equal(models.ConfirmAccepted, outcome.Status)
	s.True(outcome.Applied)
	s.Require().NotNil(outcome.NewExpiry)

	// Still in the future at confirm time, so the year extends the old
	// expiry, not now. No paid time is lost.
	s.True(outcome.NewExpiry.Equal(oldExpiry.Add(models.RenewalExtension)))
	s.True(s.expiryOf(identity.KindDriverLicense).Equal(*outcome.NewExpiry))
}

func (s *WorkflowSuite) TestConfirmAcceptedExpiredService() {
	action, err := s.service.Propose(context.Background(), s.sessionID, identity.KindPassport)
	s.Require().NoError(err)

	outcome := s.confirm(action.ID, identity.KindPassport, true)
	s.True(outcome.Applied)
	s.Require().NotNil(outcome.NewExpiry)

	// Already lapsed, so the extension starts from now.
	s.True(outcome.NewExpiry.Equal(s.now.Add(models.RenewalExtension)))
}

func (s *WorkflowSuite) TestConfirmRejectedIsTerminal() {
	before := s.expiryOf(identity.KindPassport)
	action, err := s.service.Propose(context.Background(), s.sessionID, identity.KindPassport)
	s.Require().NoError(err)

	outcome := s.confirm(action.ID, identity.KindPassport, false)
	s.Equal(models.ConfirmRejected, outcome.Status)
	s.False(outcome.Applied)
	s.True(s.expiryOf(identity.KindPassport).Equal(before))

	// Rejection retires the proposal; accepting the same action id later
	// must not renew anything.
	outcome = s.confirm(action.ID, identity.KindPassport, true)
	s.False(outcome.Applied)
	s.Contains(outcome.Detail, "expired or already used")
	s.True(s.expiryOf(identity.KindPassport).Equal(before))
}

func (s *WorkflowSuite) TestConfirmNoopWhenStillValid() {
	before := s.expiryOf(identity.KindVehicleRegistration)
	action, err := s.service.Propose(context.Background(), s.sessionID, identity.KindVehicleRegistration)
	s.Require().NoError(err)

	outcome := s.confirm(action.ID, identity.KindVehicleRegistration, true)
	s.Equal(models.ConfirmAccepted, outcome.Status)
	s.False(outcome.Applied)
	s.Nil(outcome.NewExpiry)
	s.Contains(outcome.Detail, "still valid")
	s.True(s.expiryOf(identity.KindVehicleRegistration).Equal(before))
}

func (s *WorkflowSuite) TestConfirmNoopWhenServiceUntracked() {
	outcome := s.confirm(uuid.Nil, identity.KindNationalID, true)
	s.False(outcome.Applied)
	s.Contains(outcome.Detail, "No tracked")
}

func (s *WorkflowSuite) TestConfirmActionIDReplay() {
	action, err := s.service.Propose(context.Background(), s.sessionID, identity.KindPassport)
	s.Require().NoError(err)

	first := s.confirm(action.ID, identity.KindPassport, true)
	s.True(first.Applied)

	// Reusing a consumed action id must not renew again.
	second := s.confirm(action.ID, identity.KindPassport, true)
	s.False(second.Applied)
	s.Contains(second.Detail, "expired or already used")
}

func (s *WorkflowSuite) TestConfirmExpiredProposal() {
	action, err := s.service.Propose(context.Background(), s.sessionID, identity.KindPassport)
	s.Require().NoError(err)

	s.now = s.now.Add(10 * time.Minute)
	outcome := s.confirm(action.ID, identity.KindPassport, true)
	s.False(outcome.Applied)
	s.Contains(outcome.Detail, "expired or already used")
}

func (s *WorkflowSuite) TestConfirmMismatchedProposal() {
	action, err := s.service.Propose(context.Background(), s.sessionID, identity.KindDriverLicense)
	s.Require().NoError(err)

	// Confirming a different service kind than proposed is a no-op.
	outcome := s.confirm(action.ID, identity.KindPassport, true)
	s.False(outcome.Applied)
	s.Contains(outcome.Detail, "does not match")
}

func (s *WorkflowSuite) TestConfirmUnknownSession() {
	_, err := s.service.Confirm(context.Background(), ConfirmRequest{
		SessionID:   uuid.New(),
		ServiceType: identity.KindPassport,
		Accepted:    true,
	})
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *WorkflowSuite) TestExpiryNeverMovesBackwards() {
	action, err := s.service.Propose(context.Background(), s.sessionID, identity.KindPassport)
	s.Require().NoError(err)
	first := s.confirm(action.ID, identity.KindPassport, true)
	s.Require().True(first.Applied)
	firstExpiry := s.expiryOf(identity.KindPassport)

	// The renewed service is now valid for a year; repeated confirms,
	// with or without an action id, never reduce the expiry.
	for i := 0; i < 3; i++ {
		outcome := s.confirm(uuid.Nil, identity.KindPassport, true)
		s.False(outcome.Applied)
		s.True(s.expiryOf(identity.KindPassport).Equal(firstExpiry))
	}
}
