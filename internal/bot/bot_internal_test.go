package bot

import (
	"errors"
	"showdown/internal/domain"
	"showdown/internal/showdown"
	"strings"
	"testing"

	"github.com/go-telegram/bot/models"
)

func ratedState() showdown.State {
	full := domain.RatingSet{Clarity: 5, Accuracy: 4, Conciseness: 3}

	return showdown.State{
		Catalogs: domain.Catalogs{
			Open:   domain.Catalog{"llama": "Llama 3", "mistral": "Mistral"},
			Closed: domain.Catalog{"gpt": "GPT-4"},
		},
		Selection: domain.Selection{Open: "llama", Closed: "gpt"},
		Results: map[domain.Branch]domain.SummaryResult{
			domain.BranchOpen:   {Summary: "open summary"},
			domain.BranchClosed: {Summary: "closed summary"},
		},
		Ratings:    domain.Ratings{Open: full, Closed: full},
		Preference: domain.BranchClosed,
	}
}

func TestParseCallbackRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data string
		want callbackAction
	}{
		{"menu", callbackMenu, callbackAction{kind: actionMenu}},
		{"sample", callbackSample, callbackAction{kind: actionSample}},
		{"compare", callbackCompare, callbackAction{kind: actionCompare}},
		{"submit", callbackSubmitRatings, callbackAction{kind: actionSubmitRatings}},
		{"noop", callbackNoop, callbackAction{kind: actionNoop}},
		{
			"pick closed",
			pickCallback(domain.BranchClosed),
			callbackAction{kind: actionPick, branch: domain.BranchClosed},
		},
		{
			"model index",
			modelCallback(domain.BranchOpen, 3),
			callbackAction{kind: actionModel, branch: domain.BranchOpen, modelIndex: 3},
		},
		{
			"model none",
			modelCallback(domain.BranchClosed, -1),
			callbackAction{kind: actionModel, branch: domain.BranchClosed, modelIndex: -1},
		},
		{
			"rate",
			rateCallback(domain.BranchOpen, domain.AxisConciseness, 4),
			callbackAction{kind: actionRate, branch: domain.BranchOpen, axis: domain.AxisConciseness, value: 4},
		},
		{
			"preference",
			preferenceCallback(domain.BranchOpen),
			callbackAction{kind: actionPreference, branch: domain.BranchOpen},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCallback(tt.data)
			if err != nil {
				t.Fatalf("parseCallback(%q): %v", tt.data, err)
			}
			if got != tt.want {
				t.Fatalf("parseCallback(%q) = %+v, want %+v", tt.data, got, tt.want)
			}
			if len(tt.data) > 64 {
				t.Fatalf("callback data %q exceeds 64 bytes", tt.data)
			}
		})
	}
}

func TestParseCallbackRejectsUnknownData(t *testing.T) {
	for _, data := range []string{
		"",
		"unknown",
		"pick_both",
		"model_open",
		"model_open_x",
		"model_open_-2",
		"rate_open_clarity",
		"rate_open_style_3",
		"rate_mid_clarity_3",
		"rate_open_clarity_x",
		"pref_",
	} {
		if _, err := parseCallback(data); !errors.Is(err, errUnknownCallback) {
			t.Fatalf("parseCallback(%q) error = %v, want errUnknownCallback", data, err)
		}
	}
}

func TestSortedModelIDsOrdersByNameThenID(t *testing.T) {
	catalog := domain.Catalog{"b": "Zeta", "a": "Alpha", "c": "Alpha"}

	got := sortedModelIDs(catalog)
	want := []string{"a", "c", "b"}

	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("sortedModelIDs = %v, want %v", got, want)
	}
}

func TestModelAt(t *testing.T) {
	catalog := domain.Catalog{"llama": "Llama 3", "mistral": "Mistral"}

	if id, err := modelAt(catalog, -1); err != nil || id != "" {
		t.Fatalf("modelAt(-1) = %q, %v; want empty", id, err)
	}
	if id, err := modelAt(catalog, 1); err != nil || id != "mistral" {
		t.Fatalf("modelAt(1) = %q, %v; want mistral", id, err)
	}
	if _, err := modelAt(catalog, 2); err == nil {
		t.Fatalf("modelAt(2) expected out of range error")
	}
}

func TestChartBlock(t *testing.T) {
	got := chartBlock([]domain.ChartRow{
		{Label: "Clarity", Open: 5, Closed: 2},
	})

	want := "Clarity\n" +
		"  Open Source   █████ 5\n" +
		"  Closed Source ██░░░ 2"

	if got != want {
		t.Fatalf("chartBlock =\n%s\nwant\n%s", got, want)
	}
}

func TestStars(t *testing.T) {
	if got := stars(3); got != "★★★☆☆" {
		t.Fatalf("stars(3) = %q", got)
	}
	if got := stars(0); !strings.HasPrefix(got, "☆☆☆☆☆") || !strings.Contains(got, "not rated") {
		t.Fatalf("stars(0) = %q", got)
	}
	if got := stars(9); got != "★★★★★" {
		t.Fatalf("stars(9) = %q", got)
	}
}

func hasCallback(keyboard [][]models.InlineKeyboardButton, data string) bool {
	for _, row := range keyboard {
		for _, btn := range row {
			if btn.CallbackData == data {
				return true
			}
		}
	}
	return false
}

func TestRatingKeyboardShowsSubmitOnlyWhenComplete(t *testing.T) {
	state := ratedState()
	if !hasCallback(getRatingKeyboard(state), callbackSubmitRatings) {
		t.Fatalf("expected submit button for complete ratings")
	}

	state.Preference = ""
	if hasCallback(getRatingKeyboard(state), callbackSubmitRatings) {
		t.Fatalf("submit button shown without preference")
	}

	state = ratedState()
	state.Ratings.Open.Accuracy = 0
	if hasCallback(getRatingKeyboard(state), callbackSubmitRatings) {
		t.Fatalf("submit button shown with an unrated axis")
	}
}

func TestRatingKeyboardSkipsFailedBranch(t *testing.T) {
	state := ratedState()
	state.Results[domain.BranchClosed] = domain.SummaryResult{Error: "boom"}

	keyboard := getRatingKeyboard(state)

	if hasCallback(keyboard, rateCallback(domain.BranchClosed, domain.AxisClarity, 1)) {
		t.Fatalf("failed branch must not be ratable")
	}
	if !hasCallback(keyboard, rateCallback(domain.BranchOpen, domain.AxisClarity, 1)) {
		t.Fatalf("open branch must stay ratable")
	}
	if hasCallback(keyboard, callbackSubmitRatings) {
		t.Fatalf("submit must be unavailable with a failed branch")
	}
}

func TestModelKeyboardMarksSelection(t *testing.T) {
	state := ratedState()

	keyboard := getModelKeyboard(state, domain.BranchOpen)

	found := false
	for _, row := range keyboard {
		for _, btn := range row {
			if btn.CallbackData == modelCallback(domain.BranchOpen, 0) {
				found = true
				if !strings.HasPrefix(btn.Text, selectedMark) {
					t.Fatalf("selected model is not marked: %q", btn.Text)
				}
			}
		}
	}
	if !found {
		t.Fatalf("selected model button is missing")
	}
	if !hasCallback(keyboard, callbackMenu) {
		t.Fatalf("model keyboard has no return button")
	}
}

func TestPanelTextEscapesError(t *testing.T) {
	state := showdown.State{LastError: showdown.MsgCatalogFailed}

	got := panelText(state, "")

	if !strings.Contains(got, `Failed to fetch available models\. Please make sure`) {
		t.Fatalf("panel text does not contain escaped error:\n%s", got)
	}
	if !strings.Contains(got, "*None*") {
		t.Fatalf("panel text does not show empty selection:\n%s", got)
	}
}

func TestPanelTextShowsDraftLength(t *testing.T) {
	got := panelText(ratedState(), "  héllo  ")

	if !strings.Contains(got, "5 characters") {
		t.Fatalf("unexpected draft line:\n%s", got)
	}
	if !strings.Contains(got, "*Llama 3*") {
		t.Fatalf("selected model name is missing:\n%s", got)
	}
}

func TestCardTextShowsBranchError(t *testing.T) {
	state := ratedState()
	state.Results[domain.BranchOpen] = domain.SummaryResult{Error: "model overloaded."}

	got := cardText(state, domain.BranchOpen)

	if !strings.Contains(got, `❌ model overloaded\.`) {
		t.Fatalf("card does not show branch error:\n%s", got)
	}
}

func TestResultsText(t *testing.T) {
	got := resultsText(ratedState())

	for _, want := range []string{
		`Thank you for your ratings\!`,
		"Rating Comparison",
		"Conciseness",
		"GPT\\-4",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("results text misses %q:\n%s", want, got)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("ééééé", 3); got != "ééé"+truncatedSuffix {
		t.Fatalf("truncateRunes = %q", got)
	}
	if got := truncateRunes(" short ", 10); got != "short" {
		t.Fatalf("truncateRunes = %q", got)
	}
}

func TestUserAllowed(t *testing.T) {
	open := &Bot{}
	if !open.userAllowed(42) {
		t.Fatalf("empty allow list must allow everyone")
	}

	restricted := &Bot{allowedUsers: []int64{1, 2}}
	if !restricted.userAllowed(2) || restricted.userAllowed(3) {
		t.Fatalf("allow list is not applied")
	}
}

func TestCallbackChatAndMessageID(t *testing.T) {
	cb := &models.CallbackQuery{
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{ID: 7, Chat: models.Chat{ID: 99}},
		},
	}
	if callbackChatID(cb) != 99 || callbackMessageID(cb) != 7 {
		t.Fatalf("unexpected ids: %d %d", callbackChatID(cb), callbackMessageID(cb))
	}

	inaccessible := &models.CallbackQuery{
		Message: models.MaybeInaccessibleMessage{
			InaccessibleMessage: &models.InaccessibleMessage{MessageID: 3, Chat: models.Chat{ID: 5}},
		},
	}
	if callbackChatID(inaccessible) != 5 || callbackMessageID(inaccessible) != 3 {
		t.Fatalf("unexpected ids for inaccessible message")
	}

	if callbackChatID(&models.CallbackQuery{}) != 0 {
		t.Fatalf("expected zero chat id without message")
	}
}

func TestIsNotModified(t *testing.T) {
	err := errors.New("bad request, Bad Request: message is not modified: specified new message content")
	if !isNotModified(err) {
		t.Fatalf("expected not modified error to be detected")
	}
	if isNotModified(errors.New("bad request")) {
		t.Fatalf("unexpected not modified detection")
	}
}
