package service

import (
	"errors"

	"github.com/noah-isme/crms-go-api/internal/models"
)

// ErrInvalidTransition indicates the requested status change is not a legal
// edge of the submission lifecycle.
var ErrInvalidTransition = errors.New("status transition not permitted")

// LifecycleEvent identifies the trigger behind an automatic status transition.
type LifecycleEvent string

// Workflow events that can move a submission through its lifecycle.
const (
	EventAuthorEdited     LifecycleEvent = "author_edited"
	EventReviewerAssigned LifecycleEvent = "reviewer_assigned"
	EventReviewStarted    LifecycleEvent = "review_started"
	EventReviewThreshold  LifecycleEvent = "review_threshold"
)

type transitionKey struct {
	from  string
	event LifecycleEvent
}

// transitionTable enumerates every automatic edge of the submission state
// machine. Events without an entry for the current status are no-ops, which is
// what makes the threshold and first-review triggers idempotent.
var transitionTable = map[transitionKey]string{
	{models.StatusSubmitted, EventReviewerAssigned}: models.StatusAssignedForReview,

	{models.StatusSubmitted, EventReviewStarted}:          models.StatusUnderReview,
	{models.StatusAssignedForReview, EventReviewStarted}:  models.StatusUnderReview,
	{models.StatusRevisionsSubmitted, EventReviewStarted}: models.StatusUnderReview,

	{models.StatusSubmitted, EventReviewThreshold}:          models.StatusUnderEvaluation,
	{models.StatusAssignedForReview, EventReviewThreshold}:  models.StatusUnderEvaluation,
	{models.StatusUnderReview, EventReviewThreshold}:        models.StatusUnderEvaluation,
	{models.StatusRevisionsSubmitted, EventReviewThreshold}: models.StatusUnderEvaluation,

	{models.StatusRequiresMinorRevisions, EventAuthorEdited}: models.StatusRevisionsSubmitted,
	{models.StatusRequiresMajorRevisions, EventAuthorEdited}: models.StatusRevisionsSubmitted,
}

// decisionStatuses are the targets a track manager may set directly.
var decisionStatuses = map[string]struct{}{
	models.StatusAccepted:               {},
	models.StatusRejected:               {},
	models.StatusRequiresMinorRevisions: {},
	models.StatusRequiresMajorRevisions: {},
}

// NextStatus returns the successor status for the given event, if the current
// status has an edge for it.
func NextStatus(current string, event LifecycleEvent) (string, bool) {
	next, ok := transitionTable[transitionKey{from: current, event: event}]
	return next, ok
}

// ValidateDecision checks that a manager decision may be applied to a
// submission in its current status.
func ValidateDecision(current, target string) error {
	if !models.IsValidStatus(target) {
		return ErrInvalidTransition
	}
	if _, ok := decisionStatuses[target]; !ok {
		return ErrInvalidTransition
	}
	if current == models.StatusAccepted || current == models.StatusRejected {
		return ErrInvalidTransition
	}
	return nil
}
