package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/crms-go-api/internal/dto"
	"github.com/noah-isme/crms-go-api/internal/models"
)

func TestSubmissionCreateRecordsInitialHistory(t *testing.T) {
	f := newWorkflowFixture(t)
	author := Actor{ID: testAuthorID, Role: RoleAuthor}

	resp, err := f.submissionService.Create(context.Background(), dto.SubmissionCreateRequest{
		Title:    "Raft Revisited",
		Abstract: "An empirical comparison of leader election strategies.",
		TrackID:  testTrackID,
	}, nil, author)
	require.NoError(t, err)
	require.Equal(t, models.StatusSubmitted, resp.Status)
	require.Equal(t, testAuthorID, resp.AuthorID)

	history, err := f.submissionService.History(context.Background(), resp.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "", history[0].FromStatus)
	require.Equal(t, models.StatusSubmitted, history[0].ToStatus)
	require.Equal(t, testAuthorID, history[0].ActorID)
}

func TestSubmissionCreateUnknownTrack(t *testing.T) {
	f := newWorkflowFixture(t)

	_, err := f.submissionService.Create(context.Background(), dto.SubmissionCreateRequest{
		Title:    "Raft Revisited",
		Abstract: "An empirical comparison of leader election strategies.",
		TrackID:  99,
	}, nil, Actor{ID: testAuthorID, Role: RoleAuthor})
	require.ErrorIs(t, err, ErrTrackNotFound)
}

func TestSubmissionEditWhileRevisionsRequested(t *testing.T) {
	f := newWorkflowFixture(t)
	submission := f.seedSubmission(t, models.StatusRequiresMinorRevisions)
	author := Actor{ID: testAuthorID, Role: RoleAuthor}

	newAbstract := "We add a fault-injection study as the reviewers requested."
	resp, err := f.submissionService.Edit(context.Background(), submission.ID, dto.SubmissionUpdateRequest{
		Abstract: &newAbstract,
	}, author)
	require.NoError(t, err)
	require.Equal(t, models.StatusRevisionsSubmitted, resp.Status)
	require.Equal(t, newAbstract, resp.Abstract)

	history, err := f.submissionService.History(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.StatusRequiresMinorRevisions, history[0].FromStatus)
	require.Equal(t, models.StatusRevisionsSubmitted, history[0].ToStatus)
}

func TestSubmissionEditByNonAuthorRejected(t *testing.T) {
	f := newWorkflowFixture(t)
	submission := f.seedSubmission(t, models.StatusRequiresMinorRevisions)

	title := "Hijacked Title"
	_, err := f.submissionService.Edit(context.Background(), submission.ID, dto.SubmissionUpdateRequest{
		Title: &title,
	}, Actor{ID: 999, Role: RoleAuthor})
	require.ErrorIs(t, err, ErrUnauthorized)

	// The submission must be untouched.
	current, err := f.submissionService.Get(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusRequiresMinorRevisions, current.Status)
	require.Equal(t, submission.Title, current.Title)
	require.Equal(t, 0, f.history.countForSubmission(submission.ID))
}

func TestSubmissionEditNotEditableUnderEvaluation(t *testing.T) {
	f := newWorkflowFixture(t)
	submission := f.seedSubmission(t, models.StatusUnderEvaluation)

	title := "Late Edit"
	_, err := f.submissionService.Edit(context.Background(), submission.ID, dto.SubmissionUpdateRequest{
		Title: &title,
	}, Actor{ID: testAuthorID, Role: RoleAuthor})
	require.ErrorIs(t, err, ErrSubmissionNotEditable)
}

func TestSubmissionSetStatusDecision(t *testing.T) {
	f := newWorkflowFixture(t)
	submission := f.seedSubmission(t, models.StatusUnderEvaluation)
	manager := Actor{ID: testManagerID, Role: RoleTrackManager}

	resp, err := f.submissionService.SetStatus(context.Background(), submission.ID, dto.SubmissionStatusRequest{
		Status: models.StatusAccepted,
		Notes:  "strong scores across the board",
	}, manager)
	require.NoError(t, err)
	require.Equal(t, models.StatusAccepted, resp.Status)
	require.NotNil(t, resp.DecisionAt)
	require.NotNil(t, resp.TrackManagerID)
	require.Equal(t, testManagerID, *resp.TrackManagerID)

	require.Equal(t, 1, f.notifier.countByType(EventTypeStatusChanged))
}

func TestSubmissionSetStatusRejectionRequiresReason(t *testing.T) {
	f := newWorkflowFixture(t)
	submission := f.seedSubmission(t, models.StatusUnderEvaluation)
	manager := Actor{ID: testManagerID, Role: RoleTrackManager}

	_, err := f.submissionService.SetStatus(context.Background(), submission.ID, dto.SubmissionStatusRequest{
		Status: models.StatusRejected,
	}, manager)
	require.ErrorIs(t, err, ErrRejectionReasonRequired)

	resp, err := f.submissionService.SetStatus(context.Background(), submission.ID, dto.SubmissionStatusRequest{
		Status:          models.StatusRejected,
		RejectionReason: "out of scope for the track",
	}, manager)
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, resp.Status)
	require.Equal(t, "out of scope for the track", resp.RejectionReason)
}

func TestSubmissionSetStatusTerminalIsFinal(t *testing.T) {
	f := newWorkflowFixture(t)
	submission := f.seedSubmission(t, models.StatusAccepted)
	manager := Actor{ID: testManagerID, Role: RoleTrackManager}

	_, err := f.submissionService.SetStatus(context.Background(), submission.ID, dto.SubmissionStatusRequest{
		Status:          models.StatusRejected,
		RejectionReason: "changed our minds",
	}, manager)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSubmissionSetStatusRequiresTrackManager(t *testing.T) {
	f := newWorkflowFixture(t)
	submission := f.seedSubmission(t, models.StatusUnderEvaluation)

	_, err := f.submissionService.SetStatus(context.Background(), submission.ID, dto.SubmissionStatusRequest{
		Status: models.StatusAccepted,
	}, Actor{ID: 777, Role: RoleReviewer})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestSubmissionListFilters(t *testing.T) {
	f := newWorkflowFixture(t)
	f.seedSubmission(t, models.StatusSubmitted)
	f.seedSubmission(t, models.StatusUnderReview)

	status := models.StatusUnderReview
	results, err := f.submissionService.List(context.Background(), dto.SubmissionFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, models.StatusUnderReview, results[0].Status)
}
