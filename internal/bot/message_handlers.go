package bot

import (
	"context"
	"errors"
	"fmt"
	"showdown/internal/article"
	"strings"
	"unicode/utf8"

	"github.com/go-telegram/bot/models"
)

func (b *Bot) handleMessage(ctx context.Context, message *models.Message) error {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	switch {
	case strings.HasPrefix(text, "/start"), strings.HasPrefix(text, "/help"):
		return b.handleStartCommand(ctx, chatID)
	case strings.HasPrefix(text, "/menu"):
		return b.handleMenuCommand(ctx, chatID)
	case strings.HasPrefix(text, "/sample"):
		return b.handleSampleCommand(ctx, chatID)
	case strings.HasPrefix(text, "/compare"):
		return b.handleCompareCommand(ctx, chatID)
	case text == "":
		return b.sendMessageWithKeyboard(ctx, chatID,
			"✖️ Only text messages can be summarized\\.", b.returnKeyboard)
	default:
		// Keep the user's own spacing; only emptiness is judged on trimmed text.
		return b.handleDraftText(ctx, chatID, message.Text)
	}
}

// handleDraftText stores the message as the text to summarize. A message that
// is only an https link is replaced by the article behind it.
func (b *Bot) handleDraftText(ctx context.Context, chatID int64, text string) error {
	var (
		draft   string
		fetched bool
		err     error
	)

	err = b.withSpinner(ctx, chatID, func() error {
		draft, fetched, err = b.extractor.FromMessage(ctx, text)
		return err
	})
	if err != nil {
		errs := []error{fmt.Errorf("extract text: %w", err)}

		reply := "❌ Failed to read the linked page\\. Send the text itself instead\\."
		if errors.Is(err, article.ErrNoText) {
			reply = "✖️ The linked page has no readable text\\. Send the text itself instead\\."
		}

		if sendErr := b.sendMessageWithKeyboard(ctx, chatID, reply, b.returnKeyboard); sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	sess := b.sessions.Get(ctx, chatID)
	sess.SetDraft(draft)

	reply := fmt.Sprintf("✅ Text is set \\(%d characters\\)\\.", utf8.RuneCountInString(draft))
	if fetched {
		reply = fmt.Sprintf("✅ Article text is loaded \\(%d characters\\)\\.", utf8.RuneCountInString(draft))
	}

	if err = b.sendMessageWithKeyboard(ctx, chatID, reply, nil); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return b.handleMenuCommand(ctx, chatID)
}
