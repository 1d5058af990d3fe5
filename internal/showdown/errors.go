package showdown

import (
	"fmt"
	"showdown/internal/domain"
)

// User-visible messages. Only the most recent one is retained.
const (
	MsgCatalogFailed   = "Failed to fetch available models. Please make sure the backend server is running."
	MsgMissingText     = "Please enter some text to summarize"
	MsgNoModel         = "Please select at least one model"
	MsgSummarizeFailed = "Error generating summaries. Please try again."
	MsgRatingFailed    = "Error submitting ratings. Please try again."
)

// Validation reasons.
const (
	ReasonMissingText       = "missing text"
	ReasonNoModel           = "no model selected"
	ReasonBusy              = "summarization in progress"
	ReasonUnknownBranch     = "unknown branch"
	ReasonUnknownModel      = "unknown model"
	ReasonUnknownAxis       = "unknown axis"
	ReasonRatingRange       = "rating out of range"
	ReasonNotRatable        = "branch is not ratable"
	ReasonAlreadySubmitted  = "ratings already submitted"
	ReasonIncomplete        = "ratings incomplete"
	ReasonRatingsInProgress = "rating submission in progress"
)

// ValidationError means a precondition was not met. No network call was made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// TransportError wraps a failed call to the summarizer service.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// BranchError is a single model's summarization failure. It does not fail
// the workflow, but excludes the branch from rating.
type BranchError struct {
	Branch  domain.Branch
	Message string
}

func (e *BranchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Branch, e.Message)
}

func invalid(reason string) error {
	return &ValidationError{Reason: reason}
}
