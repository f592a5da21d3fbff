package composer

import (
	"context"
	"fmt"
	"strings"

	"absher/internal/reminder"
)

// ChatClient is the LLM call surface the composer needs.
type ChatClient interface {
	ChatCompletion(ctx context.Context, system, user string) (string, error)
}

const reminderSystemPrompt = `You are an assistant that writes VERY short SMS messages in Arabic only
for Absher platform users. All output must be in Arabic.

Requirements for the SMS:
- Max ~160 characters.
- Start with "مساعد أبشر:".
- Use polite and clear Arabic.
- Mention the service and expiry status.
- Invite the user to log in or reply to renew.
- Do NOT include any links.
- Return ONLY the SMS text, no explanations.`

const summarySystemPrompt = `You are the Absher assistant. Write two messages for a user who just
logged in, based on their service status:
1. A short friendly in-app summary in English (2-3 sentences).
2. A very short SMS in Arabic starting with "مساعد أبشر:".
Separate the two messages with a line containing only "---".
Return ONLY the two messages.`

const replySystemPrompt = `You are the Absher government services assistant. Answer the user's
question using the provided service status as the source of truth. The
recent notifications are historical context only. Be concise and polite.
If the user wants to renew a service, explain that a confirmation popup
will appear; never claim a renewal already happened. Reply in the language
the user wrote in.`

// LLMComposer generates text through an OpenAI-compatible model.
type LLMComposer struct {
	client ChatClient
}

func NewLLMComposer(client ChatClient) *LLMComposer {
	return &LLMComposer{client: client}
}

func (c *LLMComposer) ReminderSMS(ctx context.Context, rc reminder.ReminderContext) (string, error) {
	user := fmt.Sprintf("Context:\n- User name: %s\n- Service: %s\n- Current status: %s\n- Days left until expiry: %d",
		rc.UserName, rc.ServiceLabel, rc.ServiceStatus, rc.DaysLeft)
	text, err := c.client.ChatCompletion(ctx, reminderSystemPrompt, user)
	if err != nil {
		return "", fmt.Errorf("generate reminder sms: %w", err)
	}
	return text, nil
}

func (c *LLMComposer) LoginSummary(ctx context.Context, sc SummaryContext) (LoginSummary, error) {
	user := fmt.Sprintf("User name: %s\nServices status:\n%s", sc.UserName, strings.Join(sc.Statuses, "\n"))
	text, err := c.client.ChatCompletion(ctx, summarySystemPrompt, user)
	if err != nil {
		return LoginSummary{}, fmt.Errorf("generate login summary: %w", err)
	}

	parts := strings.SplitN(text, "---", 2)
	summary := LoginSummary{InApp: strings.TrimSpace(parts[0])}
	if len(parts) == 2 {
		summary.SMS = strings.TrimSpace(parts[1])
	}
	return summary, nil
}

func (c *LLMComposer) Reply(ctx context.Context, rc ReplyContext) (string, error) {
	notifications := "No proactive notifications were sent yet."
	if len(rc.Notifications) > 0 {
		notifications = strings.Join(rc.Notifications, "\n")
	}
	user := fmt.Sprintf(
		"User name: %s\n\nCurrent services status (SOURCE OF TRUTH):\n%s\n\nRecent proactive notifications (historical only):\n%s\n\nUser message:\n%s",
		rc.UserName, strings.Join(rc.Statuses, "\n"), notifications, rc.Message)
	text, err := c.client.ChatCompletion(ctx, replySystemPrompt, user)
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	return text, nil
}
