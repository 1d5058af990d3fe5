package bot

import (
	"fmt"
	"showdown/internal/domain"
	"showdown/internal/markdown"
	"showdown/internal/showdown"
	"strings"
	"unicode/utf8"
)

const (
	maxSummaryRunes = 3000
	truncatedSuffix = "…"

	chartBarFull  = "█"
	chartBarEmpty = "░"
	starFull      = "★"
	starEmpty     = "☆"
)

const welcomeText = `🤖 *Welcome to Summarizer Showdown\!*

Compare how an open\-source and a closed\-source model summarize the same text:

1\. Pick the models below
2\. Send me the text \(or a link to an article\), or load the sample with /sample
3\. Compare the summaries and rate them on clarity, accuracy and conciseness
4\. See how your ratings stack up`

// reasonText turns a rejected action into a short callback answer.
func reasonText(reason string) string {
	switch reason {
	case showdown.ReasonUnknownModel:
		return "✖️ Model is not available."
	case showdown.ReasonNotRatable:
		return "✖️ This summary cannot be rated."
	case showdown.ReasonAlreadySubmitted:
		return "✖️ Ratings are already submitted."
	case showdown.ReasonIncomplete:
		return "✖️ Rate every axis and pick a preferred model first."
	case showdown.ReasonRatingsInProgress:
		return "⏳ Ratings are being submitted."
	case showdown.ReasonBusy:
		return "⏳ Summaries are still being generated."
	case showdown.ReasonMissingText:
		return "✖️ " + showdown.MsgMissingText + "."
	case showdown.ReasonNoModel:
		return "✖️ " + showdown.MsgNoModel + "."
	default:
		return "✖️ " + reason + "."
	}
}

func branchLabel(branch domain.Branch) string {
	if branch == domain.BranchOpen {
		return "Open Source"
	}
	return "Closed Source"
}

func branchIcon(branch domain.Branch) string {
	if branch == domain.BranchOpen {
		return "🔓"
	}
	return "🔒"
}

func panelText(state showdown.State, draft string) string {
	var b strings.Builder

	b.WriteString("⚔️ *Summarizer Showdown*\n\n")

	for _, branch := range domain.Branches {
		name := "None"
		if state.Selection.Of(branch) != "" {
			name = state.DisplayName(branch)
		}

		fmt.Fprintf(&b, "%s %s model: *%s*\n",
			branchIcon(branch),
			markdown.EscapeV2(branchLabel(branch)),
			markdown.EscapeV2(name))
	}

	if n := utf8.RuneCountInString(strings.TrimSpace(draft)); n > 0 {
		fmt.Fprintf(&b, "📝 Text: %d characters\n", n)
	} else {
		b.WriteString("📝 Text: not set, send it as a message\n")
	}

	if state.Busy {
		b.WriteString("\n⏳ Summaries are being generated\\.\\.\\.\n")
	}

	if state.LastError != "" {
		fmt.Fprintf(&b, "\n❌ %s\n", markdown.EscapeV2(state.LastError))
	}

	return strings.TrimRight(b.String(), "\n")
}

func cardText(state showdown.State, branch domain.Branch) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s *%s*\n_%s_\n\n",
		branchIcon(branch),
		markdown.EscapeV2(state.DisplayName(branch)),
		markdown.EscapeV2(branchLabel(branch)))

	if berr := state.BranchError(branch); berr != nil {
		fmt.Fprintf(&b, "❌ %s", markdown.EscapeV2(truncateRunes(berr.Message, maxSummaryRunes)))
		return b.String()
	}

	result, _ := state.Result(branch)
	summary := markdown.ToTelegramV2(truncateRunes(result.Summary, maxSummaryRunes))
	if summary == "" {
		summary = "_Empty summary_"
	}
	b.WriteString(summary)

	return b.String()
}

func ratingText(state showdown.State) string {
	var b strings.Builder

	b.WriteString("⭐ *Rate the summaries*\n")

	ratable := 0
	for _, branch := range domain.Branches {
		if !state.Ratable(branch) {
			continue
		}
		ratable++

		fmt.Fprintf(&b, "\n%s *%s*\n", branchIcon(branch), markdown.EscapeV2(state.DisplayName(branch)))

		set := state.Ratings.Of(branch)
		for _, axis := range domain.Axes {
			fmt.Fprintf(&b, "%s: %s\n", axis.Label(), stars(set.Get(axis)))
		}
	}

	if ratable == 0 {
		b.WriteString("\n✖️ Neither summary can be rated\\.")
		return b.String()
	}

	preferred := "not selected"
	if name := state.PreferredDisplayName(); name != "" {
		preferred = name
	}
	fmt.Fprintf(&b, "\n👍 Preferred overall: *%s*", markdown.EscapeV2(preferred))

	switch {
	case state.RatingSubmitted:
		b.WriteString("\n\n✅ Ratings are submitted\\.")
	case state.IsComplete():
		b.WriteString("\n\nAll set, submit your ratings below\\.")
	case ratable < len(domain.Branches):
		b.WriteString("\n\n_Both summaries must succeed before ratings can be submitted\\._")
	default:
		b.WriteString("\n\n_Rate every axis and pick a preferred model to submit\\._")
	}

	if state.LastError != "" {
		fmt.Fprintf(&b, "\n\n❌ %s", markdown.EscapeV2(state.LastError))
	}

	return b.String()
}

func resultsText(state showdown.State) string {
	var b strings.Builder

	b.WriteString("✅ *Thank you for your ratings\\!*\n\n")
	b.WriteString("📊 *Rating Comparison*\n")
	b.WriteString("```\n")
	b.WriteString(markdown.EscapeV2Code(chartBlock(state.ChartRows())))
	b.WriteString("\n```\n\n")
	fmt.Fprintf(&b, "👍 *Your Preferred Model:* %s", markdown.EscapeV2(state.PreferredDisplayName()))

	return b.String()
}

// chartBlock draws one pair of bars per axis for a monospace block.
func chartBlock(rows []domain.ChartRow) string {
	openLabel := branchLabel(domain.BranchOpen)
	closedLabel := branchLabel(domain.BranchClosed)
	width := max(len(openLabel), len(closedLabel))

	lines := make([]string, 0, len(rows)*3)
	for i, row := range rows {
		if i > 0 {
			lines = append(lines, "")
		}

		lines = append(lines,
			row.Label,
			fmt.Sprintf("  %-*s %s %d", width, openLabel, bar(row.Open), row.Open),
			fmt.Sprintf("  %-*s %s %d", width, closedLabel, bar(row.Closed), row.Closed),
		)
	}

	return strings.Join(lines, "\n")
}

func bar(value int) string {
	value = clampRating(value)
	return strings.Repeat(chartBarFull, value) + strings.Repeat(chartBarEmpty, domain.MaxRating-value)
}

func stars(value int) string {
	value = clampRating(value)
	if value == 0 {
		return strings.Repeat(starEmpty, domain.MaxRating) + " \\(not rated\\)"
	}
	return strings.Repeat(starFull, value) + strings.Repeat(starEmpty, domain.MaxRating-value)
}

func clampRating(value int) int {
	return min(max(value, 0), domain.MaxRating)
}

func truncateRunes(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit])) + truncatedSuffix
}
