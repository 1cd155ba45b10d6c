package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"BlogCurator/internal/config"
	"BlogCurator/internal/ports"
)

// maxMessageLen is Telegram's limit for a single text message.
const maxMessageLen = 4096

// Notifier sends digests to a Telegram chat via bot API.
type Notifier struct {
	api      *tgbotapi.BotAPI
	chatID   int64
	channel  string
	maxChars int
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier authenticates the bot against endpoint (tgbotapi.APIEndpoint when
// empty). ChatID is either a numeric chat id or an @channel username.
func NewNotifier(cfg config.TelegramConfig, endpoint string, client *http.Client) (*Notifier, error) {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil, fmt.Errorf("telegram notifier misconfigured")
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	n := &Notifier{api: api, maxChars: maxMessageLen}
	if id, err := strconv.ParseInt(cfg.ChatID, 10, 64); err == nil {
		n.chatID = id
	} else {
		n.channel = cfg.ChatID
	}
	return n, nil
}

// PublishDigest posts a Markdown message, split on line boundaries when it exceeds
// the message size limit.
func (n *Notifier) PublishDigest(ctx context.Context, digest string) error {
	if strings.TrimSpace(digest) == "" {
		return nil
	}

	for i, part := range splitMessage(digest, n.maxChars) {
		if err := ctx.Err(); err != nil {
			return err
		}

		var msg tgbotapi.MessageConfig
		if n.channel != "" {
			msg = tgbotapi.NewMessageToChannel(n.channel, part)
		} else {
			msg = tgbotapi.NewMessage(n.chatID, part)
		}
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.DisableWebPagePreview = true

		if _, err := n.api.Send(msg); err != nil {
			return fmt.Errorf("send digest part %d: %w", i+1, err)
		}
	}
	return nil
}

func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var (
		parts   []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			flush()
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		if current.Len()+len(line) > limit {
			flush()
		}
		current.WriteString(line)
	}
	flush()
	return parts
}
