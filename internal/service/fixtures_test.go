package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/crms-go-api/internal/config"
	"github.com/noah-isme/crms-go-api/internal/models"
	"github.com/noah-isme/crms-go-api/internal/repository"
)

type memorySubmissionRepo struct {
	submissions map[uint]models.Submission
	nextID      uint

	// onGetForUpdate, when set, runs as the row lock is acquired so tests can
	// interleave a competing write at that point.
	onGetForUpdate func()
}

func newMemorySubmissionRepo() *memorySubmissionRepo {
	return &memorySubmissionRepo{submissions: make(map[uint]models.Submission), nextID: 1}
}

func (m *memorySubmissionRepo) List(ctx context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	results := make([]models.Submission, 0, len(m.submissions))
	for _, submission := range m.submissions {
		if submission.Deleted {
			continue
		}
		if filter.TrackID != nil && submission.TrackID != *filter.TrackID {
			continue
		}
		if filter.AuthorID != nil && submission.AuthorID != *filter.AuthorID {
			continue
		}
		if filter.Status != nil && submission.Status != *filter.Status {
			continue
		}
		results = append(results, submission)
	}
	return results, nil
}

func (m *memorySubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	submission, ok := m.submissions[id]
	if !ok || submission.Deleted {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (m *memorySubmissionRepo) GetForUpdate(ctx context.Context, id uint) (models.Submission, error) {
	if m.onGetForUpdate != nil {
		m.onGetForUpdate()
	}
	return m.GetByID(ctx, id)
}

func (m *memorySubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	submission.ID = m.nextID
	submission.CreatedAt = time.Now()
	submission.UpdatedAt = time.Now()
	m.submissions[m.nextID] = *submission
	m.nextID++
	return nil
}

func (m *memorySubmissionRepo) Update(ctx context.Context, submission *models.Submission) error {
	if _, ok := m.submissions[submission.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	submission.UpdatedAt = time.Now()
	m.submissions[submission.ID] = *submission
	return nil
}

type memoryReviewRepo struct {
	reviews     map[uint]models.Review
	submissions *memorySubmissionRepo
	nextID      uint
}

func newMemoryReviewRepo(submissions *memorySubmissionRepo) *memoryReviewRepo {
	return &memoryReviewRepo{reviews: make(map[uint]models.Review), submissions: submissions, nextID: 1}
}

func (m *memoryReviewRepo) GetByID(ctx context.Context, id uint) (models.Review, error) {
	review, ok := m.reviews[id]
	if !ok || review.Deleted {
		return models.Review{}, gorm.ErrRecordNotFound
	}
	if submission, ok := m.submissions.submissions[review.SubmissionID]; ok {
		review.Submission = submission
	}
	return review, nil
}

func (m *memoryReviewRepo) GetBySubmissionAndReviewer(ctx context.Context, submissionID, reviewerID uint) (models.Review, error) {
	for _, review := range m.reviews {
		if review.Deleted {
			continue
		}
		if review.SubmissionID == submissionID && review.ReviewerID == reviewerID {
			return review, nil
		}
	}
	return models.Review{}, gorm.ErrRecordNotFound
}

func (m *memoryReviewRepo) ListBySubmission(ctx context.Context, submissionID uint) ([]models.Review, error) {
	results := make([]models.Review, 0)
	for _, review := range m.reviews {
		if review.Deleted || review.SubmissionID != submissionID {
			continue
		}
		results = append(results, review)
	}
	return results, nil
}

func (m *memoryReviewRepo) ListByReviewer(ctx context.Context, reviewerID uint) ([]models.Review, error) {
	results := make([]models.Review, 0)
	for _, review := range m.reviews {
		if review.Deleted || review.ReviewerID != reviewerID {
			continue
		}
		results = append(results, review)
	}
	return results, nil
}

func (m *memoryReviewRepo) CountCompleted(ctx context.Context, submissionID uint) (int64, error) {
	var count int64
	for _, review := range m.reviews {
		if review.Deleted || review.SubmissionID != submissionID {
			continue
		}
		if review.Completed {
			count++
		}
	}
	return count, nil
}

func (m *memoryReviewRepo) Create(ctx context.Context, review *models.Review) error {
	review.ID = m.nextID
	review.CreatedAt = time.Now()
	review.UpdatedAt = time.Now()
	m.reviews[m.nextID] = *review
	m.nextID++
	return nil
}

func (m *memoryReviewRepo) Update(ctx context.Context, review *models.Review) error {
	if _, ok := m.reviews[review.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	review.UpdatedAt = time.Now()
	m.reviews[review.ID] = *review
	return nil
}

type memoryTrackRepo struct {
	tracks map[uint]models.Track
}

func newMemoryTrackRepo(tracks ...models.Track) *memoryTrackRepo {
	repo := &memoryTrackRepo{tracks: make(map[uint]models.Track)}
	for _, track := range tracks {
		repo.tracks[track.ID] = track
	}
	return repo
}

func (m *memoryTrackRepo) List(ctx context.Context) ([]models.Track, error) {
	results := make([]models.Track, 0, len(m.tracks))
	for _, track := range m.tracks {
		if track.Active {
			results = append(results, track)
		}
	}
	return results, nil
}

func (m *memoryTrackRepo) GetByID(ctx context.Context, id uint) (models.Track, error) {
	track, ok := m.tracks[id]
	if !ok {
		return models.Track{}, gorm.ErrRecordNotFound
	}
	return track, nil
}

type memoryTrackAssignmentRepo struct {
	assignments []models.TrackAssignment
}

func (m *memoryTrackAssignmentRepo) HasRole(ctx context.Context, userID, trackID uint, role string) (bool, error) {
	for _, assignment := range m.assignments {
		if !assignment.IsUsable() {
			continue
		}
		if assignment.UserID == userID && assignment.TrackID == trackID && assignment.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryTrackAssignmentRepo) ListByTrack(ctx context.Context, trackID uint, role string) ([]models.TrackAssignment, error) {
	results := make([]models.TrackAssignment, 0)
	for _, assignment := range m.assignments {
		if !assignment.IsUsable() || assignment.TrackID != trackID || assignment.Role != role {
			continue
		}
		results = append(results, assignment)
	}
	return results, nil
}

func (m *memoryTrackAssignmentRepo) Create(ctx context.Context, assignment *models.TrackAssignment) error {
	assignment.ID = uint(len(m.assignments) + 1)
	m.assignments = append(m.assignments, *assignment)
	return nil
}

type memoryHistoryRepo struct {
	entries []models.StatusHistory
}

func (m *memoryHistoryRepo) Create(ctx context.Context, entry *models.StatusHistory) error {
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryHistoryRepo) ListBySubmission(ctx context.Context, submissionID uint) ([]models.StatusHistory, error) {
	results := make([]models.StatusHistory, 0)
	for _, entry := range m.entries {
		if entry.SubmissionID == submissionID {
			results = append(results, entry)
		}
	}
	return results, nil
}

func (m *memoryHistoryRepo) countForSubmission(submissionID uint) int {
	count := 0
	for _, entry := range m.entries {
		if entry.SubmissionID == submissionID {
			count++
		}
	}
	return count
}

type stubTransactor struct{}

func (stubTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []WorkflowEvent
}

func (r *recordingNotifier) record(event WorkflowEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) ReviewerAssigned(ctx context.Context, event WorkflowEvent) {
	event.Type = EventTypeReviewerAssigned
	r.record(event)
}

func (r *recordingNotifier) ReviewCompleted(ctx context.Context, event WorkflowEvent) {
	event.Type = EventTypeReviewCompleted
	r.record(event)
}

func (r *recordingNotifier) StatusChanged(ctx context.Context, event WorkflowEvent) {
	event.Type = EventTypeStatusChanged
	r.record(event)
}

func (r *recordingNotifier) ReviewerRemoved(ctx context.Context, event WorkflowEvent) {
	event.Type = EventTypeReviewerRemoved
	r.record(event)
}

func (r *recordingNotifier) countByType(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, event := range r.events {
		if event.Type == eventType {
			count++
		}
	}
	return count
}

type recordingStats struct {
	invalidated []uint
}

func (r *recordingStats) Invalidate(ctx context.Context, reviewerID uint) {
	r.invalidated = append(r.invalidated, reviewerID)
}

// workflowFixture bundles one fully wired service stack over in-memory repos.
type workflowFixture struct {
	submissions *memorySubmissionRepo
	reviews     *memoryReviewRepo
	tracks      *memoryTrackRepo
	members     *memoryTrackAssignmentRepo
	history     *memoryHistoryRepo
	notifier    *recordingNotifier
	stats       *recordingStats

	submissionService SubmissionService
	assignmentService AssignmentService
	reviewService     ReviewService
}

const (
	testTrackID   = uint(1)
	testAuthorID  = uint(10)
	testManagerID = uint(20)
)

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()

	submissions := newMemorySubmissionRepo()
	f := &workflowFixture{
		submissions: submissions,
		reviews:     newMemoryReviewRepo(submissions),
		tracks:      newMemoryTrackRepo(models.Track{ID: testTrackID, Code: "SE", Name: "Software Engineering", Active: true}),
		members:     &memoryTrackAssignmentRepo{},
		history:     &memoryHistoryRepo{},
		notifier:    &recordingNotifier{},
		stats:       &recordingStats{},
	}

	f.members.assignments = append(f.members.assignments, models.TrackAssignment{
		ID: 1, UserID: testManagerID, TrackID: testTrackID, Role: models.TrackRoleManager, Active: true,
	})

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)
	guard := NewAuthzGuard(f.members, f.reviews, logger)
	tx := stubTransactor{}

	f.submissionService = NewSubmissionService(f.submissions, f.tracks, f.history, tx, guard, f.notifier, nil, validate, logger)
	f.assignmentService = NewAssignmentService(f.submissions, f.reviews, f.members, f.history, tx, guard, f.notifier, validate, config.DefaultReviewDeadline, logger)
	f.reviewService = NewReviewService(f.submissions, f.reviews, f.history, tx, guard, f.notifier, f.stats, validate, config.DefaultReviewThreshold, config.DefaultReviewDeadline, logger)

	return f
}

// addReviewer registers a user in the track's reviewer pool.
func (f *workflowFixture) addReviewer(userID uint) {
	f.members.assignments = append(f.members.assignments, models.TrackAssignment{
		ID: uint(len(f.members.assignments) + 1), UserID: userID, TrackID: testTrackID, Role: models.TrackRoleReviewer, Active: true,
	})
}

// seedSubmission creates a submission directly in the repo.
func (f *workflowFixture) seedSubmission(t *testing.T, status string) models.Submission {
	t.Helper()

	submission := models.Submission{
		Title:       "A Study of Distributed Consensus",
		Abstract:    "We evaluate consensus protocols under partial synchrony.",
		TrackID:     testTrackID,
		Status:      status,
		AuthorID:    testAuthorID,
		SubmittedAt: time.Now(),
	}
	if err := f.submissions.Create(context.Background(), &submission); err != nil {
		t.Fatalf("seed submission: %v", err)
	}
	return submission
}
