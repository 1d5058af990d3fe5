// Package showdown holds the comparison workflow: catalog loading, model
// selection, summarization, rating and the derived results.
package showdown

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"showdown/internal/domain"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type CatalogFetcher interface {
	FetchCatalog(ctx context.Context) (domain.Catalogs, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, req domain.SummarizeRequest) (domain.SummarizeResponse, error)
}

type RatingSaver interface {
	SaveRating(ctx context.Context, submission domain.RatingSubmission) error
}

// Service is the remote summarizer. The workflow behaves identically for
// any transport that satisfies it.
type Service interface {
	CatalogFetcher
	Summarizer
	RatingSaver
}

// RatingGuard selects how repeated rating submissions are handled.
type RatingGuard int

const (
	// RatingGuardPermissive resends the full state on every call.
	RatingGuardPermissive RatingGuard = iota
	// RatingGuardGuarded rejects a save while another is in flight or after
	// one has succeeded.
	RatingGuardGuarded
)

func ParseRatingGuard(s string) (RatingGuard, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "permissive":
		return RatingGuardPermissive, nil
	case "guarded":
		return RatingGuardGuarded, nil
	default:
		return RatingGuardPermissive, fmt.Errorf("unknown rating guard %q", s)
	}
}

type Option func(*Workflow)

func WithRatingGuard(g RatingGuard) Option {
	return func(w *Workflow) {
		w.guard = g
	}
}

type Workflow struct {
	svc   Service
	guard RatingGuard
	log   *slog.Logger

	mu              sync.Mutex
	catalogDone     chan struct{}
	catalogErr      error
	catalogs        domain.Catalogs
	selection       domain.Selection
	results         map[domain.Branch]domain.SummaryResult
	ratings         domain.Ratings
	preference      domain.Branch
	busy            bool
	lastError       string
	ratingSubmitted bool
	savingRatings   bool
	// generation increments on every accepted submission.
	generation uint64
}

func New(svc Service, log *slog.Logger, opts ...Option) *Workflow {
	w := &Workflow{
		svc:      svc,
		log:      log,
		catalogs: domain.Catalogs{Open: domain.Catalog{}, Closed: domain.Catalog{}},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// LoadCatalog fetches both catalogs. It runs once per workflow: callers that
// arrive while the fetch is in flight wait for it and share its result, and
// calls after it finished return nil without touching the network.
func (w *Workflow) LoadCatalog(ctx context.Context) error {
	w.mu.Lock()
	if done := w.catalogDone; done != nil {
		w.mu.Unlock()

		select {
		case <-done:
			return nil
		default:
		}

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}

		w.mu.Lock()
		defer w.mu.Unlock()

		return w.catalogErr
	}

	done := make(chan struct{})
	w.catalogDone = done
	w.mu.Unlock()

	defer close(done)

	catalogs, err := w.svc.FetchCatalog(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		w.lastError = MsgCatalogFailed
		w.catalogErr = &TransportError{Op: "fetch catalog", Err: err}
		w.log.ErrorContext(ctx, "Failed to fetch models",
			"error", err)

		return w.catalogErr
	}

	w.catalogs = domain.Catalogs{
		Open:   cloneCatalog(catalogs.Open),
		Closed: cloneCatalog(catalogs.Closed),
	}

	w.log.DebugContext(ctx, "Models are loaded",
		"openCount", len(w.catalogs.Open),
		"closedCount", len(w.catalogs.Closed))

	return nil
}

// Select sets the model for a branch. The empty id clears the branch.
func (w *Workflow) Select(branch domain.Branch, modelID string) error {
	if !branch.Valid() {
		return invalid(ReasonUnknownBranch)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if modelID != "" {
		if _, ok := w.catalogs.Of(branch)[modelID]; !ok {
			return invalid(ReasonUnknownModel)
		}
	}

	w.selection = w.selection.With(branch, modelID)

	return nil
}

// Submit sends text to the selected models. A new submission invalidates
// everything judged about the previous one: results, ratings, preference and
// the submitted flag are reset before the call goes out.
func (w *Workflow) Submit(ctx context.Context, text, openModel, closedModel string) error {
	w.mu.Lock()

	if strings.TrimSpace(text) == "" {
		w.lastError = MsgMissingText
		w.mu.Unlock()
		return invalid(ReasonMissingText)
	}

	if (domain.Selection{Open: openModel, Closed: closedModel}).Empty() {
		w.lastError = MsgNoModel
		w.mu.Unlock()
		return invalid(ReasonNoModel)
	}

	if w.busy {
		w.mu.Unlock()
		return invalid(ReasonBusy)
	}

	w.selection = domain.Selection{Open: openModel, Closed: closedModel}
	w.resetLocked()
	w.busy = true
	w.generation++
	generation := w.generation
	w.mu.Unlock()

	requestID := uuid.NewString()
	log := w.log.With("requestID", requestID, "generation", generation)

	defer func() {
		w.mu.Lock()
		w.busy = false
		w.mu.Unlock()
	}()

	log.InfoContext(ctx, "Summarization is requested",
		"openModel", openModel,
		"closedModel", closedModel,
		"textLen", len(text))

	resp, err := w.svc.Summarize(ctx, domain.SummarizeRequest{
		Text:        text,
		OpenModel:   openModel,
		ClosedModel: closedModel,
	})

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		w.lastError = MsgSummarizeFailed
		log.ErrorContext(ctx, "Failed to generate summaries",
			"error", err)

		return &TransportError{Op: "summarize", Err: err}
	}

	results := make(map[domain.Branch]domain.SummaryResult, len(domain.Branches))
	if resp.Open != nil {
		results[domain.BranchOpen] = *resp.Open
	}
	if resp.Closed != nil {
		results[domain.BranchClosed] = *resp.Closed
	}
	w.results = results

	log.InfoContext(ctx, "Summaries are received",
		"branches", len(results))

	return nil
}

func (w *Workflow) SetRating(branch domain.Branch, axis domain.Axis, value int) error {
	if !branch.Valid() {
		return invalid(ReasonUnknownBranch)
	}
	if !axis.Valid() {
		return invalid(ReasonUnknownAxis)
	}
	if value < domain.MinRating || value > domain.MaxRating {
		return invalid(ReasonRatingRange)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ratingSubmitted {
		return invalid(ReasonAlreadySubmitted)
	}
	if !w.stateLocked().Ratable(branch) {
		return invalid(ReasonNotRatable)
	}

	w.ratings = w.ratings.With(branch, w.ratings.Of(branch).With(axis, value))

	return nil
}

func (w *Workflow) SetPreference(branch domain.Branch) error {
	if !branch.Valid() {
		return invalid(ReasonUnknownBranch)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ratingSubmitted {
		return invalid(ReasonAlreadySubmitted)
	}
	if !w.stateLocked().Ratable(branch) {
		return invalid(ReasonNotRatable)
	}

	w.preference = branch

	return nil
}

func (w *Workflow) IsComplete() bool {
	return w.State().IsComplete()
}

// SubmitRatings stores the current ratings remotely. With the permissive
// guard a retry simply resends the full current state.
func (w *Workflow) SubmitRatings(ctx context.Context) error {
	w.mu.Lock()

	state := w.stateLocked()
	if !state.IsComplete() {
		w.mu.Unlock()
		return invalid(ReasonIncomplete)
	}

	if w.guard == RatingGuardGuarded {
		if w.savingRatings {
			w.mu.Unlock()
			return invalid(ReasonRatingsInProgress)
		}
		if w.ratingSubmitted {
			w.mu.Unlock()
			return invalid(ReasonAlreadySubmitted)
		}
	}

	w.savingRatings = true
	generation := w.generation
	submission := domain.RatingSubmission{
		OpenModel:   state.Selection.Open,
		ClosedModel: state.Selection.Closed,
		Ratings:     state.Ratings,
		Preferred:   state.Preference,
	}
	w.mu.Unlock()

	log := w.log.With("generation", generation)

	err := w.svc.SaveRating(ctx, submission)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.savingRatings = false
	w.warnIfSupersededLocked(ctx, log, generation, "save rating")

	if err != nil {
		w.lastError = MsgRatingFailed
		log.ErrorContext(ctx, "Failed to submit ratings",
			"error", err)

		return &TransportError{Op: "save rating", Err: err}
	}

	w.ratingSubmitted = true

	log.InfoContext(ctx, "Ratings are submitted",
		"preferred", string(submission.Preferred))

	return nil
}

func (w *Workflow) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.busy
}

// State returns a snapshot safe to read without holding the workflow lock.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.stateLocked()
}

func (w *Workflow) stateLocked() State {
	return State{
		Catalogs: domain.Catalogs{
			Open:   cloneCatalog(w.catalogs.Open),
			Closed: cloneCatalog(w.catalogs.Closed),
		},
		Selection:       w.selection,
		Results:         maps.Clone(w.results),
		Ratings:         w.ratings,
		Preference:      w.preference,
		Busy:            w.busy,
		LastError:       w.lastError,
		RatingSubmitted: w.ratingSubmitted,
	}
}

func (w *Workflow) resetLocked() {
	w.lastError = ""
	w.results = nil
	w.ratings = domain.Ratings{}
	w.preference = ""
	w.ratingSubmitted = false
}

// warnIfSupersededLocked logs a rating save that is applied after a new
// submission started. Only SubmitRatings can get here with a stale
// generation, since Submit is rejected while a summary is in flight.
func (w *Workflow) warnIfSupersededLocked(
	ctx context.Context,
	log *slog.Logger,
	generation uint64,
	op string,
) {
	if generation == w.generation {
		return
	}

	log.WarnContext(ctx, "Superseded response is applied",
		"op", op,
		"currentGeneration", w.generation)
}

func cloneCatalog(c domain.Catalog) domain.Catalog {
	if c == nil {
		return domain.Catalog{}
	}
	return maps.Clone(c)
}
