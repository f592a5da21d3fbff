// Package composer turns structured service context into user-facing
// text: proactive SMS reminders, login summaries, and chat replies.
//
// Two implementations exist: LLMComposer delegates to an OpenAI-compatible
// model, TemplateComposer renders deterministic text and is used when no
// API key is configured (and in tests).
package composer

import (
	"context"
	"fmt"
	"strings"

	"absher/internal/reminder"
)

// SummaryContext describes a user's overall service state at login.
type SummaryContext struct {
	UserName string
	Statuses []string
}

// LoginSummary is the pair of messages generated after login.
type LoginSummary struct {
	InApp string
	SMS   string
}

// ReplyContext carries everything the assistant sees when answering a
// chat message. Statuses are the source of truth for service state;
// notifications are historical only.
type ReplyContext struct {
	UserName      string
	Message       string
	Statuses      []string
	Notifications []string
}

// Composer is the full text-generation surface. reminder.Composer is a
// subset, so either implementation plugs into the scanner directly.
type Composer interface {
	ReminderSMS(ctx context.Context, rc reminder.ReminderContext) (string, error)
	LoginSummary(ctx context.Context, sc SummaryContext) (LoginSummary, error)
	Reply(ctx context.Context, rc ReplyContext) (string, error)
}

// TemplateComposer renders deterministic text with no external calls. It
// never fails, which keeps the demo usable without an API key.
type TemplateComposer struct{}

func NewTemplateComposer() *TemplateComposer {
	return &TemplateComposer{}
}

func (t *TemplateComposer) ReminderSMS(_ context.Context, rc reminder.ReminderContext) (string, error) {
	if rc.DaysLeft < 0 {
		return fmt.Sprintf("مساعد أبشر: عزيزي %s، انتهت صلاحية %s. يرجى تسجيل الدخول للتجديد.",
			rc.UserName, rc.ServiceLabel), nil
	}
	return fmt.Sprintf("مساعد أبشر: عزيزي %s، تنتهي صلاحية %s خلال %d يوم. يرجى تسجيل الدخول للتجديد.",
		rc.UserName, rc.ServiceLabel, rc.DaysLeft), nil
}

func (t *TemplateComposer) LoginSummary(_ context.Context, sc SummaryContext) (LoginSummary, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Welcome back, %s. Your services status:\n", sc.UserName)
	for _, line := range sc.Statuses {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	return LoginSummary{
		InApp: strings.TrimRight(b.String(), "\n"),
		SMS:   fmt.Sprintf("مساعد أبشر: أهلاً %s، لديك تحديثات على خدماتك. يرجى تسجيل الدخول للاطلاع.", sc.UserName),
	}, nil
}

func (t *TemplateComposer) Reply(_ context.Context, rc ReplyContext) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s. Here is the current status of your services:\n", rc.UserName)
	for _, line := range rc.Statuses {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	b.WriteString("You can ask me to renew any expired or expiring service.")
	return b.String(), nil
}
