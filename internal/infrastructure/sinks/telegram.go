package sinks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"NewsDesk/internal/domain"
)

// telegramSink posts a short announcement to a Telegram chat via bot API.
type telegramSink struct {
	id       string
	endpoint string
	chatID   string
	client   *resty.Client
	logger   *slog.Logger
}

func newTelegramSink(_ context.Context, cfg Config, logger *slog.Logger) (Sink, error) {
	if cfg.Telegram == nil || cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "" {
		return nil, fmt.Errorf("telegram sink %q misconfigured", cfg.ID)
	}
	return &telegramSink{
		id:       cfg.ID,
		endpoint: fmt.Sprintf("%s/bot%s/sendMessage", cfg.Telegram.APIURL, cfg.Telegram.BotToken),
		chatID:   cfg.Telegram.ChatID,
		client:   resty.New().SetTimeout(5 * time.Second),
		logger:   logger,
	}, nil
}

func (s *telegramSink) ID() string   { return s.id }
func (s *telegramSink) Type() string { return TypeTelegram }

func (s *telegramSink) Deliver(ctx context.Context, evt domain.PublishedEvent) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id":    s.chatID,
			"text":       formatAnnouncement(evt),
			"parse_mode": "Markdown",
		}).
		Post(s.endpoint)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status())
	}
	return nil
}

func formatAnnouncement(evt domain.PublishedEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", escapeMarkdown(evt.Title))
	fmt.Fprintf(&b, "Topic: %s", escapeMarkdown(evt.Topic))
	if name := evt.Article.Publisher.Name; name != "" {
		fmt.Fprintf(&b, "\nBy: %s", escapeMarkdown(name))
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
