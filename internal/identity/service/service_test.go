package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"absher/internal/chat/composer"
	"absher/internal/identity/store/session"
	"absher/internal/identity/store/template"
	"absher/internal/jwttoken"
	nmodels "absher/internal/notification/models"
	dErrors "absher/pkg/domain-errors"
)

// notifierRecorder collects appended notifications and signals when both
// welcome messages have arrived.
type notifierRecorder struct {
	mu       sync.Mutex
	appended []nmodels.Notification
	done     chan struct{}
	expect   int
}

func newNotifierRecorder(expect int) *notifierRecorder {
	return &notifierRecorder{done: make(chan struct{}), expect: expect}
}

func (n *notifierRecorder) Append(_ context.Context, sessionID uuid.UUID, channel nmodels.Channel, message string, meta map[string]any) (nmodels.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	notif := nmodels.Notification{
		ID:        uuid.New(),
		SessionID: sessionID,
		Channel:   channel,
		Message:   message,
		Meta:      meta,
	}
	n.appended = append(n.appended, notif)
	if len(n.appended) == n.expect {
		close(n.done)
	}
	return notif, nil
}

func (n *notifierRecorder) wait(t *testing.T) []nmodels.Notification {
	t.Helper()
	select {
	case <-n.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for login summary notifications")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]nmodels.Notification(nil), n.appended...)
}

type LoginSuite struct {
	suite.Suite
	templates *template.Store
	sessions  *session.InMemoryStore
	notifier  *notifierRecorder
	service   *Service
	now       time.Time
}

func (s *LoginSuite) SetupTest() {
	s.now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	hash, err := bcrypt.GenerateFromPassword([]byte("Password1!"), bcrypt.MinCost)
	s.Require().NoError(err)

	raw := `[
	  {
	    "national_id": "1012345678",
	    "username": "ahmed",
	    "password_hash": "` + string(hash) + `",
	    "name": "Ahmed Al-Qahtani",
	    "phone_number": "+966500000001",
	    "services": [
	      {"service_type": "driver_license", "service_name": "Driver License", "expiry_date": "2026-08-20T00:00:00Z"}
	    ]
	  }
	]`
	s.templates, err = template.Parse([]byte(raw))
	s.Require().NoError(err)

	s.sessions = session.NewInMemoryStore()
	s.notifier = newNotifierRecorder(2)

	s.service, err = New(
		s.templates,
		s.sessions,
		jwttoken.NewService("test-signing-key", "absher-test"),
		s.notifier,
		composer.NewTemplateComposer(),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
}

func TestLoginSuite(t *testing.T) {
	suite.Run(t, new(LoginSuite))
}

func (s *LoginSuite) TestLoginSuccess() {
	result, err := s.service.Login(context.Background(), "Ahmed", "Password1!")
	s.Require().NoError(err)
	s.NotEqual(uuid.Nil, result.SessionID)
	s.NotEmpty(result.AccessToken)
	s.Equal("Ahmed Al-Qahtani", result.User.Name)

	// The session exists and is a live clone of the template.
	su, err := s.sessions.Find(context.Background(), result.SessionID)
	s.Require().NoError(err)
	s.Equal("1012345678", su.User.NationalID)

	// The token round-trips back to the session id.
	jwtSvc := jwttoken.NewService("test-signing-key", "absher-test")
	sessionID, err := jwtSvc.ExtractSessionID(result.AccessToken)
	s.Require().NoError(err)
	s.Equal(result.SessionID, sessionID)
}

func (s *LoginSuite) TestLoginSendsWelcomeSummary() {
	result, err := s.service.Login(context.Background(), "ahmed", "Password1!")
	s.Require().NoError(err)

	appended := s.notifier.wait(s.T())
	s.Require().Len(appended, 2)

	channels := map[nmodels.Channel]string{}
	for _, n := range appended {
		s.Equal(result.SessionID, n.SessionID)
		s.Equal("login_summary", n.Meta[nmodels.MetaSource])
		channels[n.Channel] = n.Message
	}
	s.Contains(channels[nmodels.ChannelInApp], "Driver License")
	s.Contains(channels[nmodels.ChannelSMS], "مساعد أبشر")
}

func (s *LoginSuite) TestLoginWrongPassword() {
	_, err := s.service.Login(context.Background(), "ahmed", "wrong")
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}

func (s *LoginSuite) TestLoginUnknownUser() {
	_, err := s.service.Login(context.Background(), "nobody", "Password1!")
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}

func (s *LoginSuite) TestEachLoginGetsItsOwnSession() {
	first, err := s.service.Login(context.Background(), "ahmed", "Password1!")
	s.Require().NoError(err)
	second, err := s.service.Login(context.Background(), "ahmed", "Password1!")
	s.Require().NoError(err)
	s.NotEqual(first.SessionID, second.SessionID)
}
