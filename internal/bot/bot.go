// Package bot runs the Telegram bot that launches the Mini App and delivers
// match notifications.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/oggyb/rndvu/internal/config"
	"github.com/oggyb/rndvu/internal/db"
)

const (
	launchButton = "Запуск"
	greeting     = "🔥 Привет, рады видеть тебя в нашем приложении Rndvu !!!"
)

// Bot wraps the Telegram API client.
type Bot struct {
	api       *telego.Bot
	webAppURL string
	log       *slog.Logger
}

// New creates a bot from TELEGRAM_BOT_TOKEN. API traffic is logged through log.
func New(cfg *config.Config, log *slog.Logger, opts ...telego.BotOption) (*Bot, error) {
	if cfg.Telegram.BotToken == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	opts = append([]telego.BotOption{telego.WithLogger(slogAdapter{log: log})}, opts...)
	api, err := telego.NewBot(cfg.Telegram.BotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Bot{api: api, webAppURL: cfg.Telegram.WebAppURL, log: log}, nil
}

// Run drops any webhook, registers the commands and long-polls until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.api.DeleteWebhook(ctx, &telego.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	if err := b.api.SetMyCommands(ctx, &telego.SetMyCommandsParams{
		Commands: []telego.BotCommand{{Command: "start", Description: "Играть"}},
	}); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}

	updates, err := b.api.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("start polling: %w", err)
	}
	b.log.Info("bot polling started")

	for update := range updates {
		if update.Message == nil {
			continue
		}
		if payload, ok := StartPayload(update.Message.Text); ok {
			b.handleStart(ctx, update.Message, payload)
		}
	}
	b.log.Info("bot polling stopped")
	return nil
}

// handleStart removes the command message and answers with the launch button.
func (b *Bot) handleStart(ctx context.Context, msg *telego.Message, payload string) {
	chatID := msg.Chat.ID
	log := b.log.With("chat_id", chatID)

	if err := b.api.DeleteMessage(ctx, &telego.DeleteMessageParams{
		ChatID:    tu.ID(chatID),
		MessageID: msg.MessageID,
	}); err != nil {
		log.Warn("delete /start failed", "err", err)
	}

	url := WebAppURL(b.webAppURL, payload)
	log.Info("start received", "payload", payload, "url", url)

	if _, err := b.api.SendMessage(ctx, tu.Message(tu.ID(chatID), greeting).
		WithReplyMarkup(launchKeyboard(url))); err != nil {
		log.Error("send start reply failed", "err", err)
	}
}

// NotifyMatch tells both players about a new mutual sympathy.
func (b *Bot) NotifyMatch(ctx context.Context, p1, p2 *db.Player) error {
	var errs []error
	for _, pair := range [][2]*db.Player{{p1, p2}, {p2, p1}} {
		to, other := pair[0], pair[1]
		_, err := b.api.SendMessage(ctx, tu.Message(tu.ID(to.TgID), MatchText(other)).
			WithReplyMarkup(launchKeyboard(b.webAppURL)))
		if err != nil {
			errs = append(errs, fmt.Errorf("notify %d: %w", to.TgID, err))
		}
	}
	return errors.Join(errs...)
}

func launchKeyboard(url string) *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(tu.InlineKeyboardRow(
		tu.InlineKeyboardButton(launchButton).WithWebApp(&telego.WebAppInfo{URL: url}),
	))
}

// StartPayload reports whether text is a /start command and returns its argument.
// "/start@botname arg" is accepted too.
func StartPayload(text string) (string, bool) {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(text), " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	if cmd != "/start" {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// WebAppURL appends a /start payload to the Mini App URL, rewriting the
// "id_<x>" deep-link form into the "id=<x>" query parameter.
//
// Example:
//
//	WebAppURL("https://app/", "id_42") == "https://app/?id=42"
func WebAppURL(base, payload string) string {
	if payload == "" {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + strings.ReplaceAll(payload, "id_", "id=")
}

// MatchText is the notification about a match with other.
func MatchText(other *db.Player) string {
	name := strings.TrimSpace(other.FirstName)
	if name == "" && other.Username != "" {
		name = "@" + other.Username
	}
	if name == "" {
		return "💘 У вас новая взаимная симпатия!"
	}
	return fmt.Sprintf("💘 У вас взаимная симпатия с %s!", name)
}

type slogAdapter struct {
	log *slog.Logger
}

func (a slogAdapter) Debugf(format string, args ...any) {
	a.log.Debug(fmt.Sprintf(format, args...), "component", "telego")
}

func (a slogAdapter) Errorf(format string, args ...any) {
	a.log.Error(fmt.Sprintf(format, args...), "component", "telego")
}
