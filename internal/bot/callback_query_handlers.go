package bot

import (
	"context"
	"errors"
	"fmt"
	"showdown/internal/article"
	"showdown/internal/domain"
	"showdown/internal/markdown"
	"showdown/internal/showdown"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *models.CallbackQuery) error {
	action, err := parseCallback(callback.Data)
	if err != nil {
		return b.errorCallbackAnswer(ctx, callback, fmt.Errorf("parse callback: %w", err))
	}

	chatID := callbackChatID(callback)

	switch action.kind {
	case actionNoop:
		return b.answerCallback(ctx, callback, "")
	case actionMenu:
		return b.withEmptyCallbackAnswer(ctx, callback, func() error {
			return b.editPanel(ctx, callback)
		})
	case actionSample:
		b.sessions.Get(ctx, chatID).SetDraft(article.SampleText)

		return b.withCallbackAnswer(ctx, callback, "📄 Sample text is loaded.", func() error {
			return b.editPanel(ctx, callback)
		})
	case actionCompare:
		return b.withEmptyCallbackAnswer(ctx, callback, func() error {
			return b.handleCompareCommand(ctx, chatID)
		})
	case actionPick:
		return b.withEmptyCallbackAnswer(ctx, callback, func() error {
			return b.editModelPicker(ctx, callback, action.branch)
		})
	case actionModel:
		return b.handleModelQuery(ctx, callback, action)
	case actionRate, actionPreference:
		return b.handleRatingQuery(ctx, callback, action)
	case actionSubmitRatings:
		return b.handleSubmitRatingsQuery(ctx, callback)
	}

	return b.errorCallbackAnswer(ctx, callback, fmt.Errorf("%w: %q", errUnknownCallback, callback.Data))
}

func (b *Bot) handleModelQuery(
	ctx context.Context,
	callback *models.CallbackQuery,
	action callbackAction,
) error {
	sess := b.sessions.Get(ctx, callbackChatID(callback))

	modelID, err := modelAt(sess.Workflow.State().Catalogs.Of(action.branch), action.modelIndex)
	if err != nil {
		return b.errorCallbackAnswer(ctx, callback, fmt.Errorf("resolve model: %w", err))
	}

	if err = sess.Workflow.Select(action.branch, modelID); err != nil {
		return b.rejectOrFail(ctx, callback, err)
	}

	answer := "✅ Model is selected."
	if modelID == "" {
		answer = "✅ Model is cleared."
	}

	return b.withCallbackAnswer(ctx, callback, answer, func() error {
		return b.editPanel(ctx, callback)
	})
}

func (b *Bot) handleRatingQuery(
	ctx context.Context,
	callback *models.CallbackQuery,
	action callbackAction,
) error {
	sess := b.sessions.Get(ctx, callbackChatID(callback))

	var err error
	if action.kind == actionRate {
		err = sess.Workflow.SetRating(action.branch, action.axis, action.value)
	} else {
		err = sess.Workflow.SetPreference(action.branch)
	}
	if err != nil {
		return b.rejectOrFail(ctx, callback, err)
	}

	return b.withEmptyCallbackAnswer(ctx, callback, func() error {
		return b.editRatingPanel(ctx, callback, sess.Workflow.State())
	})
}

func (b *Bot) handleSubmitRatingsQuery(ctx context.Context, callback *models.CallbackQuery) error {
	chatID := callbackChatID(callback)
	sess := b.sessions.Get(ctx, chatID)

	err := b.withSpinner(ctx, chatID, func() error {
		return sess.Workflow.SubmitRatings(ctx)
	})

	var validationErr *showdown.ValidationError
	if errors.As(err, &validationErr) {
		return b.answerCallback(ctx, callback, reasonText(validationErr.Reason))
	}

	state := sess.Workflow.State()

	if err != nil {
		// The panel shows the retained error and keeps the submit button.
		return b.withCallbackAnswer(ctx, callback, "❌ Failed.", func() error {
			return b.editRatingPanel(ctx, callback, state)
		})
	}

	return b.withCallbackAnswer(ctx, callback, "✅ Ratings are submitted.", func() error {
		var errs []error

		if editErr := b.editRatingPanel(ctx, callback, state); editErr != nil {
			errs = append(errs, fmt.Errorf("edit rating panel: %w", editErr))
		}

		if sendErr := b.sendMessageWithKeyboard(ctx, chatID, resultsText(state), b.menuKeyboard); sendErr != nil {
			errs = append(errs, fmt.Errorf("send results: %w", sendErr))
		}

		return errors.Join(errs...)
	})
}

func (b *Bot) editPanel(ctx context.Context, callback *models.CallbackQuery) error {
	chatID := callbackChatID(callback)
	sess := b.sessions.Get(ctx, chatID)

	return b.editMessageWithKeyboard(ctx, chatID, callbackMessageID(callback),
		panelText(sess.Workflow.State(), sess.Draft()), b.menuKeyboard)
}

func (b *Bot) editModelPicker(
	ctx context.Context,
	callback *models.CallbackQuery,
	branch domain.Branch,
) error {
	chatID := callbackChatID(callback)
	state := b.sessions.Get(ctx, chatID).Workflow.State()

	text := fmt.Sprintf("%s Choose the *%s* model:",
		branchIcon(branch), markdown.EscapeV2(branchLabel(branch)))
	if len(state.Catalogs.Of(branch)) == 0 {
		text += "\n\n✖️ No models are available\\."
		if state.LastError != "" {
			text += "\n❌ " + markdown.EscapeV2(state.LastError)
		}
		text += "\nSend /start to try again\\."
	}

	return b.editMessageWithKeyboard(ctx, chatID, callbackMessageID(callback),
		text, getModelKeyboard(state, branch))
}

func (b *Bot) editRatingPanel(
	ctx context.Context,
	callback *models.CallbackQuery,
	state showdown.State,
) error {
	return b.editMessageWithKeyboard(ctx, callbackChatID(callback), callbackMessageID(callback),
		ratingText(state), getRatingKeyboard(state))
}

// rejectOrFail answers a validation error with its reason; anything else is a
// failure.
func (b *Bot) rejectOrFail(ctx context.Context, callback *models.CallbackQuery, err error) error {
	var validationErr *showdown.ValidationError
	if errors.As(err, &validationErr) {
		return b.answerCallback(ctx, callback, reasonText(validationErr.Reason))
	}

	return b.errorCallbackAnswer(ctx, callback, err)
}

func (b *Bot) answerCallback(ctx context.Context, callback *models.CallbackQuery, text string) error {
	_, err := b.api.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: callback.ID,
		Text:            text,
	})
	if err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}

	return nil
}

func (b *Bot) withEmptyCallbackAnswer(
	ctx context.Context,
	callback *models.CallbackQuery,
	fn func() error,
) error {
	return b.withCallbackAnswer(ctx, callback, "", fn)
}

func (b *Bot) withCallbackAnswer(
	ctx context.Context,
	callback *models.CallbackQuery,
	text string,
	fn func() error,
) error {
	var errs []error

	if err := b.answerCallback(ctx, callback, text); err != nil {
		errs = append(errs, err)
	}

	if err := fn(); err != nil {
		errs = append(errs, fmt.Errorf("call fn: %w", err))
	}

	return errors.Join(errs...)
}

func (b *Bot) errorCallbackAnswer(
	ctx context.Context,
	callback *models.CallbackQuery,
	err error,
) error {
	if sendErr := b.answerCallback(ctx, callback, "❌ Failed."); sendErr != nil {
		return errors.Join(err, sendErr)
	}
	return err
}
