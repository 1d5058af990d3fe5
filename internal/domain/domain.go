package domain

type Branch string

const (
	BranchOpen   Branch = "open_source"
	BranchClosed Branch = "closed_source"
)

//nolint:gochecknoglobals // Fixed display order.
var Branches = []Branch{BranchOpen, BranchClosed}

func (b Branch) Valid() bool {
	return b == BranchOpen || b == BranchClosed
}

type Axis string

const (
	AxisClarity     Axis = "clarity"
	AxisAccuracy    Axis = "accuracy"
	AxisConciseness Axis = "conciseness"
)

//nolint:gochecknoglobals // Fixed chart order.
var Axes = []Axis{AxisClarity, AxisAccuracy, AxisConciseness}

func (a Axis) Valid() bool {
	return a == AxisClarity || a == AxisAccuracy || a == AxisConciseness
}

func (a Axis) Label() string {
	switch a {
	case AxisClarity:
		return "Clarity"
	case AxisAccuracy:
		return "Accuracy"
	case AxisConciseness:
		return "Conciseness"
	default:
		return string(a)
	}
}

const (
	MinRating = 1
	MaxRating = 5
)

// Catalog maps model identifier to display name.
type Catalog map[string]string

type Catalogs struct {
	Open   Catalog `json:"open_source"`
	Closed Catalog `json:"closed_source"`
}

func (c Catalogs) Of(branch Branch) Catalog {
	if branch == BranchOpen {
		return c.Open
	}
	return c.Closed
}

type Selection struct {
	Open   string
	Closed string
}

func (s Selection) Of(branch Branch) string {
	if branch == BranchOpen {
		return s.Open
	}
	return s.Closed
}

func (s Selection) With(branch Branch, modelID string) Selection {
	if branch == BranchOpen {
		s.Open = modelID
	} else {
		s.Closed = modelID
	}
	return s
}

func (s Selection) Empty() bool {
	return s.Open == "" && s.Closed == ""
}

// SummaryResult is either a summary (markup text) or a per-branch failure.
type SummaryResult struct {
	Summary string `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (r SummaryResult) Failed() bool {
	return r.Error != ""
}

type RatingSet struct {
	Clarity     int `json:"clarity"`
	Accuracy    int `json:"accuracy"`
	Conciseness int `json:"conciseness"`
}

func (r RatingSet) Get(axis Axis) int {
	switch axis {
	case AxisClarity:
		return r.Clarity
	case AxisAccuracy:
		return r.Accuracy
	case AxisConciseness:
		return r.Conciseness
	default:
		return 0
	}
}

func (r RatingSet) With(axis Axis, value int) RatingSet {
	switch axis {
	case AxisClarity:
		r.Clarity = value
	case AxisAccuracy:
		r.Accuracy = value
	case AxisConciseness:
		r.Conciseness = value
	}
	return r
}

// Complete reports whether every axis carries a user rating.
func (r RatingSet) Complete() bool {
	return r.Clarity >= MinRating && r.Accuracy >= MinRating && r.Conciseness >= MinRating
}

type Ratings struct {
	Open   RatingSet `json:"open_source"`
	Closed RatingSet `json:"closed_source"`
}

func (r Ratings) Of(branch Branch) RatingSet {
	if branch == BranchOpen {
		return r.Open
	}
	return r.Closed
}

func (r Ratings) With(branch Branch, set RatingSet) Ratings {
	if branch == BranchOpen {
		r.Open = set
	} else {
		r.Closed = set
	}
	return r
}

type SummarizeRequest struct {
	Text        string `json:"text"`
	OpenModel   string `json:"open_model"`
	ClosedModel string `json:"closed_model"`
}

// SummarizeResponse carries one result per requested branch. A branch that
// was not requested is nil.
type SummarizeResponse struct {
	Open   *SummaryResult `json:"open_source,omitempty"`
	Closed *SummaryResult `json:"closed_source,omitempty"`
}

type RatingSubmission struct {
	OpenModel   string  `json:"open_model"`
	ClosedModel string  `json:"closed_model"`
	Ratings     Ratings `json:"ratings"`
	Preferred   Branch  `json:"preferred"`
}

type ChartRow struct {
	Label  string
	Open   int
	Closed int
}
