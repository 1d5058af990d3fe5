package bot

import (
	"errors"
	"fmt"
	"showdown/internal/domain"
	"sort"
	"strconv"
	"strings"
)

// Callback data stays short: Telegram caps it at 64 bytes, so models are
// addressed by their position in the sorted catalog.
const (
	callbackMenu          = "menu"
	callbackSample        = "sample"
	callbackCompare       = "compare"
	callbackSubmitRatings = "submit_ratings"
	callbackNoop          = "noop"

	callbackPickPrefix       = "pick_"
	callbackModelPrefix      = "model_"
	callbackRatePrefix       = "rate_"
	callbackPreferencePrefix = "pref_"

	noneModel = "none"

	openCode   = "open"
	closedCode = "closed"
)

type actionKind int

const (
	actionMenu actionKind = iota
	actionSample
	actionCompare
	actionSubmitRatings
	actionNoop
	actionPick
	actionModel
	actionRate
	actionPreference
)

type callbackAction struct {
	kind   actionKind
	branch domain.Branch
	axis   domain.Axis
	value  int
	// modelIndex is -1 for "None".
	modelIndex int
}

var errUnknownCallback = errors.New("unknown callback data")

func branchCode(branch domain.Branch) string {
	if branch == domain.BranchOpen {
		return openCode
	}
	return closedCode
}

func parseBranchCode(code string) (domain.Branch, bool) {
	switch code {
	case openCode:
		return domain.BranchOpen, true
	case closedCode:
		return domain.BranchClosed, true
	default:
		return "", false
	}
}

func pickCallback(branch domain.Branch) string {
	return callbackPickPrefix + branchCode(branch)
}

func modelCallback(branch domain.Branch, index int) string {
	if index < 0 {
		return callbackModelPrefix + branchCode(branch) + "_" + noneModel
	}
	return callbackModelPrefix + branchCode(branch) + "_" + strconv.Itoa(index)
}

func rateCallback(branch domain.Branch, axis domain.Axis, value int) string {
	return fmt.Sprintf("%s%s_%s_%d", callbackRatePrefix, branchCode(branch), axis, value)
}

func preferenceCallback(branch domain.Branch) string {
	return callbackPreferencePrefix + branchCode(branch)
}

func parseCallback(data string) (callbackAction, error) {
	data = strings.TrimSpace(data)

	switch data {
	case callbackMenu:
		return callbackAction{kind: actionMenu}, nil
	case callbackSample:
		return callbackAction{kind: actionSample}, nil
	case callbackCompare:
		return callbackAction{kind: actionCompare}, nil
	case callbackSubmitRatings:
		return callbackAction{kind: actionSubmitRatings}, nil
	case callbackNoop:
		return callbackAction{kind: actionNoop}, nil
	}

	if rest, ok := strings.CutPrefix(data, callbackPickPrefix); ok {
		branch, ok := parseBranchCode(rest)
		if !ok {
			return callbackAction{}, fmt.Errorf("%w: %q", errUnknownCallback, data)
		}
		return callbackAction{kind: actionPick, branch: branch}, nil
	}

	if rest, ok := strings.CutPrefix(data, callbackModelPrefix); ok {
		code, indexStr, found := strings.Cut(rest, "_")
		branch, ok := parseBranchCode(code)
		if !found || !ok {
			return callbackAction{}, fmt.Errorf("%w: %q", errUnknownCallback, data)
		}

		if indexStr == noneModel {
			return callbackAction{kind: actionModel, branch: branch, modelIndex: -1}, nil
		}

		index, err := strconv.Atoi(indexStr)
		if err != nil || index < 0 {
			return callbackAction{}, fmt.Errorf("%w: %q", errUnknownCallback, data)
		}
		return callbackAction{kind: actionModel, branch: branch, modelIndex: index}, nil
	}

	if rest, ok := strings.CutPrefix(data, callbackRatePrefix); ok {
		parts := strings.Split(rest, "_")
		if len(parts) != 3 {
			return callbackAction{}, fmt.Errorf("%w: %q", errUnknownCallback, data)
		}

		branch, ok := parseBranchCode(parts[0])
		axis := domain.Axis(parts[1])
		value, err := strconv.Atoi(parts[2])
		if !ok || !axis.Valid() || err != nil {
			return callbackAction{}, fmt.Errorf("%w: %q", errUnknownCallback, data)
		}
		return callbackAction{kind: actionRate, branch: branch, axis: axis, value: value}, nil
	}

	if rest, ok := strings.CutPrefix(data, callbackPreferencePrefix); ok {
		branch, ok := parseBranchCode(rest)
		if !ok {
			return callbackAction{}, fmt.Errorf("%w: %q", errUnknownCallback, data)
		}
		return callbackAction{kind: actionPreference, branch: branch}, nil
	}

	return callbackAction{}, fmt.Errorf("%w: %q", errUnknownCallback, data)
}

// sortedModelIDs orders a catalog by display name so button positions are
// stable for the lifetime of a session.
func sortedModelIDs(catalog domain.Catalog) []string {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		if catalog[ids[i]] != catalog[ids[j]] {
			return catalog[ids[i]] < catalog[ids[j]]
		}
		return ids[i] < ids[j]
	})

	return ids
}

func modelAt(catalog domain.Catalog, index int) (string, error) {
	if index < 0 {
		return "", nil
	}

	ids := sortedModelIDs(catalog)
	if index >= len(ids) {
		return "", fmt.Errorf("model index %d out of range (%d models)", index, len(ids))
	}

	return ids[index], nil
}
