package showdown

import (
	"showdown/internal/domain"
)

const (
	defaultOpenName   = "Open Source Model"
	defaultClosedName = "Closed Source Model"
)

// State is a point-in-time copy of a workflow. All presentation is derived
// from it on demand and never cached.
type State struct {
	Catalogs        domain.Catalogs
	Selection       domain.Selection
	Results         map[domain.Branch]domain.SummaryResult
	Ratings         domain.Ratings
	Preference      domain.Branch
	Busy            bool
	LastError       string
	RatingSubmitted bool
}

func (s State) Result(branch domain.Branch) (domain.SummaryResult, bool) {
	r, ok := s.Results[branch]
	return r, ok
}

// ResultsVisible reports whether at least one summary card can be shown.
func (s State) ResultsVisible() bool {
	for _, branch := range domain.Branches {
		if s.CardVisible(branch) {
			return true
		}
	}
	return false
}

// CardVisible reports whether the branch is selected and has a result.
func (s State) CardVisible(branch domain.Branch) bool {
	if s.Selection.Of(branch) == "" {
		return false
	}
	_, ok := s.Results[branch]
	return ok
}

func (s State) BranchError(branch domain.Branch) *BranchError {
	r, ok := s.Results[branch]
	if !ok || !r.Failed() {
		return nil
	}
	return &BranchError{Branch: branch, Message: r.Error}
}

// Ratable reports whether the branch takes part in the rating stage.
func (s State) Ratable(branch domain.Branch) bool {
	return s.CardVisible(branch) && s.BranchError(branch) == nil
}

// RatingStageOpen mirrors the rating panel visibility: both results must be
// present and ratings not yet submitted.
func (s State) RatingStageOpen() bool {
	_, openOK := s.Results[domain.BranchOpen]
	_, closedOK := s.Results[domain.BranchClosed]
	return openOK && closedOK && !s.RatingSubmitted
}

// IsComplete gates rating submission.
func (s State) IsComplete() bool {
	for _, branch := range domain.Branches {
		if !s.Ratable(branch) || !s.Ratings.Of(branch).Complete() {
			return false
		}
	}
	return s.Preference.Valid() && s.Ratable(s.Preference)
}

func (s State) ChartRows() []domain.ChartRow {
	rows := make([]domain.ChartRow, 0, len(domain.Axes))
	for _, axis := range domain.Axes {
		rows = append(rows, domain.ChartRow{
			Label:  axis.Label(),
			Open:   s.Ratings.Open.Get(axis),
			Closed: s.Ratings.Closed.Get(axis),
		})
	}
	return rows
}

func (s State) DisplayName(branch domain.Branch) string {
	if name := s.Catalogs.Of(branch)[s.Selection.Of(branch)]; name != "" {
		return name
	}
	if branch == domain.BranchOpen {
		return defaultOpenName
	}
	return defaultClosedName
}

// PreferredDisplayName returns the preferred model's name or "" when unset.
func (s State) PreferredDisplayName() string {
	if !s.Preference.Valid() {
		return ""
	}
	return s.DisplayName(s.Preference)
}
