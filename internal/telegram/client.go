// Package telegram sends operator notifications about the dataset via the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/polysoccer/internal/logger"
)

// botAPI is the subset of *tgbotapi.BotAPI the client uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Status is the snapshot reported by the /stats command.
type Status struct {
	State       string
	Events      int
	Tournaments int
	TotalVolume float64
	LoadedAt    time.Time
	Sessions    int
	Err         string
}

// StatusFunc reports the current status on demand.
type StatusFunc func() Status

// Client handles Telegram notifications.
type Client struct {
	bot            botAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
	status         StatusFunc
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	return newClient(bot, chatIDInt, maxRetries, retryDelayBase), nil
}

func newClient(bot botAPI, chatID int64, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		bot:            bot,
		chatID:         chatID,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// SetStatusFunc installs the provider behind /stats.
func (c *Client) SetStatusFunc(f StatusFunc) {
	c.status = f
}

// ListenForCommands polls for Telegram updates and handles bot commands
// until ctx is cancelled.
func (c *Client) ListenForCommands(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			c.bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message != nil && update.Message.IsCommand() {
				c.handleCommand(update.Message)
			}
		}
	}
}

func (c *Client) handleCommand(msg *tgbotapi.Message) {
	var reply tgbotapi.MessageConfig
	switch msg.Command() {
	case "ping":
		reply = tgbotapi.NewMessage(msg.Chat.ID, "Pong")
	case "stats":
		if c.status == nil {
			return
		}
		reply = tgbotapi.NewMessage(msg.Chat.ID, formatStatus(c.status()))
		reply.ParseMode = "MarkdownV2"
	default:
		return
	}
	if _, err := c.bot.Send(reply); err != nil {
		logger.Warn("Failed to reply to /%s: %v", msg.Command(), err)
	}
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendLoadFailure reports a failed catalog load.
// Call this only on the first failure of a consecutive sequence.
func (c *Client) SendLoadFailure(loadErr error) error {
	text := fmt.Sprintf("⚠️ *Dataset load failed*\n`%s`", escapeMarkdownV2(loadErr.Error()))
	return c.sendMarkdownV2(text)
}

// SendRecovery reports a successful load after consecutive failures.
func (c *Client) SendRecovery(failureCount, events int) error {
	text := fmt.Sprintf("✅ *Dataset loaded* with %s events after %d failed attempt\\(s\\)",
		escapeMarkdownV2(humanize.Comma(int64(events))), failureCount)
	return c.sendMarkdownV2(text)
}

// formatStatus renders a Status as a MarkdownV2 message.
func formatStatus(s Status) string {
	var b strings.Builder
	b.WriteString("📊 *Catalog status*\n\n")
	fmt.Fprintf(&b, "State: %s\n", escapeMarkdownV2(s.State))
	fmt.Fprintf(&b, "Events: %s\n", escapeMarkdownV2(humanize.Comma(int64(s.Events))))
	fmt.Fprintf(&b, "Tournaments: %d\n", s.Tournaments)
	fmt.Fprintf(&b, "Total volume: %s\n", escapeMarkdownV2("$"+humanize.CommafWithDigits(s.TotalVolume, 0)))
	fmt.Fprintf(&b, "Sessions: %d\n", s.Sessions)
	if !s.LoadedAt.IsZero() {
		fmt.Fprintf(&b, "Loaded: %s\n", escapeMarkdownV2(humanize.Time(s.LoadedAt)))
	}
	if s.Err != "" {
		fmt.Fprintf(&b, "Error: `%s`\n", escapeMarkdownV2(s.Err))
	}
	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
