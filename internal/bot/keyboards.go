package bot

import (
	"context"
	"fmt"
	"showdown/internal/domain"
	"showdown/internal/showdown"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	modelKeyboardRowSize = 2
	selectedMark         = "✅ "
)

func button(text, data string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: data}
}

func getReturnKeyboard() [][]models.InlineKeyboardButton {
	return [][]models.InlineKeyboardButton{
		{button("⬅️ Return to menu", callbackMenu)},
	}
}

func getMenuKeyboard() [][]models.InlineKeyboardButton {
	return [][]models.InlineKeyboardButton{
		{
			button("🔓 Open source model", pickCallback(domain.BranchOpen)),
			button("🔒 Closed source model", pickCallback(domain.BranchClosed)),
		},
		{
			button("📄 Sample text", callbackSample),
			button("⚔️ Compare", callbackCompare),
		},
	}
}

func getModelKeyboard(state showdown.State, branch domain.Branch) [][]models.InlineKeyboardButton {
	catalog := state.Catalogs.Of(branch)
	selected := state.Selection.Of(branch)

	noneLabel := "None"
	if selected == "" {
		noneLabel = selectedMark + noneLabel
	}

	keyboard := [][]models.InlineKeyboardButton{
		{button(noneLabel, modelCallback(branch, -1))},
	}

	var row []models.InlineKeyboardButton
	for i, id := range sortedModelIDs(catalog) {
		label := catalog[id]
		if id == selected {
			label = selectedMark + label
		}

		row = append(row, button(label, modelCallback(branch, i)))
		if len(row) == modelKeyboardRowSize {
			keyboard = append(keyboard, row)
			row = nil
		}
	}
	if len(row) > 0 {
		keyboard = append(keyboard, row)
	}

	return append(keyboard, getReturnKeyboard()...)
}

// getRatingKeyboard has one row per ratable branch and axis. The submit
// button only appears once the ratings are complete.
func getRatingKeyboard(state showdown.State) [][]models.InlineKeyboardButton {
	if state.RatingSubmitted {
		return getReturnKeyboard()
	}

	var keyboard [][]models.InlineKeyboardButton

	var preferenceRow []models.InlineKeyboardButton

	for _, branch := range domain.Branches {
		if !state.Ratable(branch) {
			continue
		}

		set := state.Ratings.Of(branch)
		for _, axis := range domain.Axes {
			row := []models.InlineKeyboardButton{
				button(fmt.Sprintf("%s %s", branchIcon(branch), axis.Label()), callbackNoop),
			}

			for v := domain.MinRating; v <= domain.MaxRating; v++ {
				label := strconv.Itoa(v)
				if set.Get(axis) == v {
					label = "⭐" + label
				}
				row = append(row, button(label, rateCallback(branch, axis, v)))
			}

			keyboard = append(keyboard, row)
		}

		label := fmt.Sprintf("👍 %s", state.DisplayName(branch))
		if state.Preference == branch {
			label = selectedMark + label
		}
		preferenceRow = append(preferenceRow, button(label, preferenceCallback(branch)))
	}

	if len(preferenceRow) > 0 {
		keyboard = append(keyboard, preferenceRow)
	}

	if state.IsComplete() {
		keyboard = append(keyboard, []models.InlineKeyboardButton{
			button("📨 Submit ratings", callbackSubmitRatings),
		})
	}

	return append(keyboard, getReturnKeyboard()...)
}

func (b *Bot) sendMessageWithKeyboard(
	ctx context.Context,
	chatID int64,
	text string,
	keyboard [][]models.InlineKeyboardButton,
) error {
	normalizedText := b.normalizeText(ctx, chatID, text)

	disabled := true

	params := &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   normalizedText,
		// See https://core.telegram.org/bots/api#markdownv2-style.
		ParseMode:          models.ParseModeMarkdown,
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: &disabled},
	}
	if len(keyboard) > 0 {
		params.ReplyMarkup = &models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
	}

	return b.rateLimiter.Do(ctx, chatID, func(ctx context.Context) error {
		_, err := b.api.SendMessage(ctx, params)
		return err
	})
}

// editMessageWithKeyboard rewrites a panel in place. Pressing the same
// button twice yields an identical message, which Telegram rejects; that
// case is not an error.
func (b *Bot) editMessageWithKeyboard(
	ctx context.Context,
	chatID int64,
	messageID int,
	text string,
	keyboard [][]models.InlineKeyboardButton,
) error {
	normalizedText := b.normalizeText(ctx, chatID, text)

	err := b.rateLimiter.Do(ctx, chatID, func(ctx context.Context) error {
		_, err := b.api.EditMessageText(ctx, &tgbot.EditMessageTextParams{
			ChatID:      chatID,
			MessageID:   messageID,
			Text:        normalizedText,
			ParseMode:   models.ParseModeMarkdown,
			ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: keyboard},
		})
		return err
	})
	if err != nil && isNotModified(err) {
		return nil
	}

	return err
}

func (b *Bot) normalizeText(ctx context.Context, chatID int64, text string) string {
	normalizedText := strings.ToValidUTF8(text, "?")
	if normalizedText != text {
		b.log.WarnContext(ctx, "Message text had invalid UTF-8 and was normalized",
			"chatID", chatID,
			"originalLen", len(text),
			"normalizedLen", len(normalizedText))
	}

	return normalizedText
}

func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
