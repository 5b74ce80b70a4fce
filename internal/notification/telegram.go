package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

const telegramAPI = "https://api.telegram.org"

// TelegramNotifier sends alerts through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

// NewTelegramNotifier creates a Telegram notifier for one chat.
func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  telegramAPI,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (t *TelegramNotifier) Send(ctx context.Context, alert Alert) error {
	msg := map[string]interface{}{
		"chat_id":    t.chatID,
		"text":       formatTelegram(alert),
		"parse_mode": "MarkdownV2",
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)
	if err := postJSON(ctx, t.client, url, msg); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	log.Printf("[telegram] sent alert: %s", alert.Title)
	return nil
}

func formatTelegram(alert Alert) string {
	icon := "📈"
	switch alert.Level {
	case AlertWarning:
		icon = "⚠️"
	case AlertCritical:
		icon = "🚨"
	}
	var sb strings.Builder
	sb.WriteString(icon + " *" + escapeMarkdown(alert.Title) + "*\n\n")
	sb.WriteString(escapeMarkdown(alert.Message))
	if alert.Symbol != "" {
		sb.WriteString("\n`" + escapeMarkdown(alert.Symbol) + "`")
	}
	return sb.String()
}

// escapeMarkdown escapes Telegram MarkdownV2 special characters.
func escapeMarkdown(s string) string {
	const specials = "_*[]()~`>#+-=|{}.!\\"
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(specials, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
