package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/crms-go-api/internal/models"
	"github.com/noah-isme/crms-go-api/internal/repository"
)

// ErrUnauthorized indicates the actor may not perform the requested action.
var ErrUnauthorized = errors.New("actor is not permitted to perform this action")

// Actor identifies the authenticated principal behind a workflow operation.
type Actor struct {
	ID   uint
	Role string
}

// Principal roles supplied by the identity layer.
const (
	RoleAuthor       = "author"
	RoleReviewer     = "reviewer"
	RoleTrackManager = "track_manager"
	RoleAdmin        = "admin"
)

// IsAdmin reports whether the actor holds the system-admin role, which
// supersedes every other predicate.
func (a Actor) IsAdmin() bool {
	return strings.EqualFold(a.Role, RoleAdmin)
}

// AuthzGuard evaluates the authorization predicates shared by the workflow
// services. Every predicate fails closed: an inconclusive lookup yields
// ErrUnauthorized, never silent success.
type AuthzGuard struct {
	assignments repository.TrackAssignmentRepository
	reviews     repository.ReviewRepository
	logger      zerolog.Logger
}

// NewAuthzGuard constructs the guard.
func NewAuthzGuard(assignments repository.TrackAssignmentRepository, reviews repository.ReviewRepository, logger zerolog.Logger) *AuthzGuard {
	return &AuthzGuard{
		assignments: assignments,
		reviews:     reviews,
		logger:      logger.With().Str("component", "authz_guard").Logger(),
	}
}

// RequireAuthor checks the actor owns the submission.
func (g *AuthzGuard) RequireAuthor(actor Actor, submission models.Submission) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.ID != submission.AuthorID {
		return ErrUnauthorized
	}
	return nil
}

// RequireTrackManager checks the actor holds an active manager assignment for
// the submission's track.
func (g *AuthzGuard) RequireTrackManager(ctx context.Context, actor Actor, trackID uint) error {
	if actor.IsAdmin() {
		return nil
	}

	ok, err := g.assignments.HasRole(ctx, actor.ID, trackID, models.TrackRoleManager)
	if err != nil {
		g.logger.Error().Err(err).Uint("actor_id", actor.ID).Uint("track_id", trackID).Msg("track manager lookup failed")
		return ErrUnauthorized
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// RequireReviewer checks the actor is the assigned reviewer on the review.
func (g *AuthzGuard) RequireReviewer(actor Actor, review models.Review) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.ID != review.ReviewerID || review.Deleted {
		return ErrUnauthorized
	}
	return nil
}

// IsTrackReviewer reports whether the user belongs to the track's reviewer pool.
func (g *AuthzGuard) IsTrackReviewer(ctx context.Context, userID, trackID uint) (bool, error) {
	return g.assignments.HasRole(ctx, userID, trackID, models.TrackRoleReviewer)
}
