// Package bot is the Telegram front end of the showdown: model pickers,
// summary cards, rating panels and the final comparison.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"showdown/internal/article"
	"showdown/internal/ratelimiter"
	"showdown/internal/session"
	"slices"
	"strings"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Summaries for two models can take a while; the backend client has its own
// timeout, this one bounds everything else around it.
const updateProcessingTimeout = 5 * time.Minute

type Bot struct {
	api            *tgbot.Bot
	rateLimiter    *ratelimiter.RateLimiter
	sessions       *session.Store
	extractor      *article.Extractor
	allowedUsers   []int64
	returnKeyboard [][]models.InlineKeyboardButton
	menuKeyboard   [][]models.InlineKeyboardButton
	log            *slog.Logger

	wg sync.WaitGroup
}

func New(
	token string,
	sessions *session.Store,
	extractor *article.Extractor,
	allowedUsers []int64,
	log *slog.Logger,
) (*Bot, error) {
	token = strings.TrimSpace(token)

	b := &Bot{
		rateLimiter:    ratelimiter.New(log),
		sessions:       sessions,
		extractor:      extractor,
		allowedUsers:   allowedUsers,
		returnKeyboard: getReturnKeyboard(),
		menuKeyboard:   getMenuKeyboard(),
		log:            log,
	}

	api, err := tgbot.New(token,
		tgbot.WithDefaultHandler(b.dispatchUpdate),
		tgbot.WithErrorsHandler(func(err error) {
			log.Error("Telegram API error",
				"error", err)
		}),
	)
	if err != nil {
		b.rateLimiter.Stop()
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	b.api = api

	return b, nil
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	b.api.Start(ctx)

	b.log.InfoContext(ctx, "Bot context is done",
		"error", ctx.Err())
}

// Stop waits for in-flight updates and releases the rate limiter. Call it
// after Start has returned.
func (b *Bot) Stop() {
	b.wg.Wait()

	if b.rateLimiter != nil {
		b.rateLimiter.Stop()
	}
}

// PruneRateLimits drops send pacing for chats that no longer need to wait.
func (b *Bot) PruneRateLimits() int {
	return b.rateLimiter.Prune()
}

// dispatchUpdate hands every update to its own goroutine so that one chat
// waiting on a slow summary does not stall the others.
func (b *Bot) dispatchUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.handleUpdate(ctx, update)
	}()
}

func (b *Bot) handleUpdate(ctx context.Context, update *models.Update) {
	updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	switch {
	case update.Message != nil:
		message := update.Message
		if message.From == nil {
			return
		}

		chatID := message.Chat.ID
		userID := message.From.ID

		if !b.userAllowed(userID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", userID,
				"chatID", chatID,
				"username", message.From.Username,
				"chatType", string(message.Chat.Type))

			return
		}

		if err := b.handleMessage(updateCtx, message); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle message",
				"error", err,
				"chatID", chatID,
				"userID", userID,
				"chatType", string(message.Chat.Type),
				"messageID", message.ID)
		}

	case update.CallbackQuery != nil:
		callback := update.CallbackQuery
		chatID := callbackChatID(callback)

		if !b.userAllowed(callback.From.ID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", callback.From.ID,
				"chatID", chatID,
				"username", callback.From.Username,
				"data", callback.Data)

			return
		}

		if chatID == 0 {
			b.log.WarnContext(updateCtx, "Callback query without chat",
				"userID", callback.From.ID,
				"data", callback.Data)

			return
		}

		if err := b.handleCallbackQuery(updateCtx, callback); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle callback query",
				"error", err,
				"chatID", chatID,
				"userID", callback.From.ID,
				"data", callback.Data,
				"messageID", callbackMessageID(callback))
		}
	}
}

func (b *Bot) userAllowed(userID int64) bool {
	return len(b.allowedUsers) == 0 || slices.Contains(b.allowedUsers, userID)
}

func callbackChatID(cb *models.CallbackQuery) int64 {
	if cb == nil {
		return 0
	}

	switch {
	case cb.Message.Message != nil:
		return cb.Message.Message.Chat.ID
	case cb.Message.InaccessibleMessage != nil:
		return cb.Message.InaccessibleMessage.Chat.ID
	}

	return 0
}

func callbackMessageID(cb *models.CallbackQuery) int {
	if cb == nil {
		return 0
	}

	switch {
	case cb.Message.Message != nil:
		return cb.Message.Message.ID
	case cb.Message.InaccessibleMessage != nil:
		return cb.Message.InaccessibleMessage.MessageID
	}

	return 0
}
