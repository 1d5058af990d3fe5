package bot

import (
	"context"
	"errors"
	"fmt"
	"showdown/internal/article"
	"showdown/internal/domain"
	"showdown/internal/markdown"
	"showdown/internal/session"
	"showdown/internal/showdown"
)

// handleStartCommand begins a fresh session, which also retries a catalog
// fetch that failed earlier.
func (b *Bot) handleStartCommand(ctx context.Context, chatID int64) error {
	b.sessions.Restart(ctx, chatID)

	if err := b.sendMessageWithKeyboard(ctx, chatID, welcomeText, nil); err != nil {
		return fmt.Errorf("send welcome: %w", err)
	}

	return b.handleMenuCommand(ctx, chatID)
}

func (b *Bot) handleMenuCommand(ctx context.Context, chatID int64) error {
	sess := b.sessions.Get(ctx, chatID)

	text := panelText(sess.Workflow.State(), sess.Draft())

	if err := b.sendMessageWithKeyboard(ctx, chatID, text, b.menuKeyboard); err != nil {
		return fmt.Errorf("send message with keyboard: %w", err)
	}

	return nil
}

func (b *Bot) handleSampleCommand(ctx context.Context, chatID int64) error {
	b.sessions.Get(ctx, chatID).SetDraft(article.SampleText)

	return b.handleMenuCommand(ctx, chatID)
}

// handleCompareCommand submits the draft with the current selection, then
// posts one card per shown summary followed by the rating panel.
func (b *Bot) handleCompareCommand(ctx context.Context, chatID int64) error {
	sess := b.sessions.Get(ctx, chatID)
	selection := sess.Workflow.State().Selection

	err := b.withSpinner(ctx, chatID, func() error {
		return sess.Workflow.Submit(ctx, sess.Draft(), selection.Open, selection.Closed)
	})

	var validationErr *showdown.ValidationError
	if errors.As(err, &validationErr) && validationErr.Reason == showdown.ReasonBusy {
		return b.sendMessageWithKeyboard(ctx, chatID,
			markdown.EscapeV2(reasonText(validationErr.Reason)), b.returnKeyboard)
	}
	if err != nil {
		// The panel carries the user-facing message; the workflow has logged
		// the cause.
		return b.handleMenuCommand(ctx, chatID)
	}

	return b.sendResults(ctx, chatID, sess)
}

func (b *Bot) sendResults(ctx context.Context, chatID int64, sess *session.Session) error {
	state := sess.Workflow.State()
	if !state.ResultsVisible() {
		return b.handleMenuCommand(ctx, chatID)
	}

	var errs []error

	for _, branch := range domain.Branches {
		if !state.CardVisible(branch) {
			continue
		}

		if err := b.sendCard(ctx, chatID, state, branch); err != nil {
			errs = append(errs, fmt.Errorf("send %s card: %w", branch, err))
		}
	}

	if state.RatingStageOpen() {
		if err := b.sendMessageWithKeyboard(ctx, chatID,
			ratingText(state), getRatingKeyboard(state)); err != nil {
			errs = append(errs, fmt.Errorf("send rating panel: %w", err))
		}
	} else if err := b.handleMenuCommand(ctx, chatID); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// sendCard falls back to the escaped raw summary when Telegram refuses the
// converted markup.
func (b *Bot) sendCard(
	ctx context.Context,
	chatID int64,
	state showdown.State,
	branch domain.Branch,
) error {
	err := b.sendMessageWithKeyboard(ctx, chatID, cardText(state, branch), nil)
	if err == nil || state.BranchError(branch) != nil {
		return err
	}

	b.log.WarnContext(ctx, "Failed to send formatted summary, sending plain text",
		"error", err,
		"chatID", chatID,
		"branch", string(branch))

	result, _ := state.Result(branch)
	plain := fmt.Sprintf("%s *%s*\n\n%s",
		branchIcon(branch),
		markdown.EscapeV2(state.DisplayName(branch)),
		markdown.EscapeV2(truncateRunes(result.Summary, maxSummaryRunes)))

	if fallbackErr := b.sendMessageWithKeyboard(ctx, chatID, plain, nil); fallbackErr != nil {
		return errors.Join(err, fmt.Errorf("send plain summary: %w", fallbackErr))
	}

	return nil
}
