// Package bot runs practice sessions over Telegram for a single authorized chat.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/drill/internal/practice"
	"github.com/example/drill/pkg/models"
)

const inboxSize = 16

// Bot represents the Telegram bot application
type Bot struct {
	api       TelegramAPI
	chatID    int64
	svc       *practice.Service
	logger    *slog.Logger
	threshold float64

	// answers for the running session
	inbox chan input

	mu      sync.Mutex
	session *activeSession
	wg      sync.WaitGroup
}

type activeSession struct {
	set    string
	cancel context.CancelFunc
}

// input is a chat message or a button press, whichever the user sent
type input struct {
	text     string
	callback string
}

// New creates a bot answering only in chatID. Items below threshold count as weak in /stats.
func New(api TelegramAPI, chatID int64, svc *practice.Service, threshold float64, logger *slog.Logger) *Bot {
	return &Bot{
		api:       api,
		chatID:    chatID,
		svc:       svc,
		logger:    logger,
		threshold: threshold,
		inbox:     make(chan input, inboxSize),
	}
}

// Run handles updates until ctx is done or the update channel closes.
// A running session is cancelled and waited for before Run returns.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("telegram bot started", "account", b.api.GetSelf().UserName, "chat", b.chatID)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	defer func() {
		b.api.StopReceivingUpdates()
		b.stopSession()
		b.wg.Wait()
		b.logger.Info("telegram bot stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		if update.Message.Chat == nil || update.Message.Chat.ID != b.chatID {
			b.logger.Warn("ignoring message from unauthorized chat", "chat", chatOf(update.Message))
			return
		}
		if update.Message.IsCommand() {
			b.handleCommand(ctx, update.Message)
			return
		}
		b.deliver(input{text: strings.TrimSpace(update.Message.Text)})

	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.Message == nil || cb.Message.Chat == nil || cb.Message.Chat.ID != b.chatID {
			b.logger.Warn("ignoring callback from unauthorized chat")
			return
		}
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			b.logger.Warn("failed to answer callback", "error", err)
		}
		b.handleCallbackQuery(ctx, cb)
	}
}

func chatOf(m *tgbotapi.Message) int64 {
	if m.Chat == nil {
		return 0
	}
	return m.Chat.ID
}

// deliver hands user input to the running session, if any
func (b *Bot) deliver(in input) {
	if !b.sessionRunning() {
		b.send("I don't understand. Use /help to see the commands.", nil)
		return
	}
	select {
	case b.inbox <- in:
	default:
		b.logger.Warn("session inbox full, dropping input")
	}
}

func (b *Bot) sessionRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session != nil
}

// startSession runs a practice session in the background. Only one session runs at a time.
func (b *Bot) startSession(ctx context.Context, set string, ids []models.ItemID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session != nil {
		return false
	}

	// Drop answers left over from an earlier session.
	for len(b.inbox) > 0 {
		<-b.inbox
	}

	sctx, cancel := context.WithCancel(ctx)
	b.session = &activeSession{set: set, cancel: cancel}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer b.finishSession(cancel)
		b.runSession(sctx, set, ids)
	}()
	return true
}

func (b *Bot) finishSession(cancel context.CancelFunc) {
	cancel()
	b.mu.Lock()
	b.session = nil
	b.mu.Unlock()
}

func (b *Bot) stopSession() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil {
		return false
	}
	b.session.cancel()
	return true
}

// send posts a message to the authorized chat. Failures are logged.
func (b *Bot) send(text string, keyboard [][]MenuButton) {
	msg := tgbotapi.NewMessage(b.chatID, text)
	if keyboard != nil {
		msg.ReplyMarkup = createKeyboard(keyboard)
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message", "error", err)
	}
}

// NotifyWeakItems implements the scheduler.Notifier interface
func (b *Bot) NotifyWeakItems(_ context.Context, weak []practice.ItemSummary) error {
	if len(weak) == 0 {
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You have %d weak %s to review.", len(weak), plural(len(weak), "item", "items"))
	limit := min(len(weak), 5)
	sb.WriteString("\nWeakest:")
	for _, w := range weak[:limit] {
		fmt.Fprintf(&sb, "\n• %s/%s (%.2f)", w.Family, w.Name, w.Estimate)
	}

	msg := tgbotapi.NewMessage(b.chatID, sb.String())
	msg.ReplyMarkup = createKeyboard(mainMenuButtons())
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	b.logger.Info("reminder sent", "weak_items", len(weak))
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
