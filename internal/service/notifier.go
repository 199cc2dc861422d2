package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/crms-go-api/internal/observability"
)

// Notification event types emitted by the workflow services.
const (
	EventTypeReviewerAssigned = "reviewer_assigned"
	EventTypeReviewCompleted  = "review_completed"
	EventTypeStatusChanged    = "status_changed"
	EventTypeReviewerRemoved  = "reviewer_removed"
)

// WorkflowEvent describes one committed workflow change for downstream
// delivery. It is emitted strictly after the owning transaction commits.
type WorkflowEvent struct {
	Type         string     `json:"type"`
	SubmissionID uint       `json:"submission_id"`
	ReviewID     *uint      `json:"review_id,omitempty"`
	ActorID      uint       `json:"actor_id"`
	RecipientID  uint       `json:"recipient_id"`
	FromStatus   string     `json:"from_status,omitempty"`
	ToStatus     string     `json:"to_status,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
}

// Mailer delivers a plain notification email. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(subject, body string) error
}

// Notifier fans workflow events out to delivery channels. Every method is
// fire-and-forget: failures are logged and counted, never surfaced to callers,
// so delivery problems cannot undo a committed workflow mutation.
type Notifier interface {
	ReviewerAssigned(ctx context.Context, event WorkflowEvent)
	ReviewCompleted(ctx context.Context, event WorkflowEvent)
	StatusChanged(ctx context.Context, event WorkflowEvent)
	ReviewerRemoved(ctx context.Context, event WorkflowEvent)
}

type workflowNotifier struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	mailer       Mailer
	logger       zerolog.Logger
	nodeID       string
}

type workflowEnvelope struct {
	Source string        `json:"source"`
	Event  WorkflowEvent `json:"event"`
	SentAt time.Time     `json:"sent_at"`
}

// NewWorkflowNotifier constructs the notifier. Redis, NATS, and the mailer are
// each optional; a nil channel is skipped.
func NewWorkflowNotifier(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, mailer Mailer, logger zerolog.Logger) Notifier {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":workflow"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".workflow"
	}

	return &workflowNotifier{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		mailer:       mailer,
		logger:       logger.With().Str("component", "workflow_notifier").Logger(),
		nodeID:       uuid.NewString(),
	}
}

func (n *workflowNotifier) ReviewerAssigned(ctx context.Context, event WorkflowEvent) {
	event.Type = EventTypeReviewerAssigned
	n.dispatch(ctx, event)
}

func (n *workflowNotifier) ReviewCompleted(ctx context.Context, event WorkflowEvent) {
	event.Type = EventTypeReviewCompleted
	n.dispatch(ctx, event)
}

func (n *workflowNotifier) StatusChanged(ctx context.Context, event WorkflowEvent) {
	event.Type = EventTypeStatusChanged
	n.dispatch(ctx, event)
}

func (n *workflowNotifier) ReviewerRemoved(ctx context.Context, event WorkflowEvent) {
	event.Type = EventTypeReviewerRemoved
	n.dispatch(ctx, event)
}

func (n *workflowNotifier) dispatch(ctx context.Context, event WorkflowEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	envelope := workflowEnvelope{
		Source: n.nodeID,
		Event:  event,
		SentAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		n.logger.Error().Err(err).Str("type", event.Type).Msg("failed to encode workflow event")
		observability.NotificationFailures().WithLabelValues(event.Type, "encode").Inc()
		return
	}

	if n.redis != nil && n.redisChannel != "" {
		if err := n.redis.Publish(ctx, n.redisChannel, payload).Err(); err != nil {
			n.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish workflow event to redis")
			observability.NotificationFailures().WithLabelValues(event.Type, "redis").Inc()
		}
	}

	if n.nats != nil && n.natsSubject != "" {
		if err := n.nats.Publish(n.natsSubject, payload); err != nil {
			n.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish workflow event to nats")
			observability.NotificationFailures().WithLabelValues(event.Type, "nats").Inc()
		}
	}

	if n.mailer != nil {
		subject, body := renderEmail(event)
		if err := n.mailer.Send(subject, body); err != nil {
			n.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to send notification email")
			observability.NotificationFailures().WithLabelValues(event.Type, "email").Inc()
		}
	}

	observability.NotificationsPublished().WithLabelValues(event.Type).Inc()
}

func renderEmail(event WorkflowEvent) (string, string) {
	subject := fmt.Sprintf("[CRMS] %s for submission #%d", strings.ReplaceAll(event.Type, "_", " "), event.SubmissionID)

	var b strings.Builder
	fmt.Fprintf(&b, "Event: %s\n", event.Type)
	fmt.Fprintf(&b, "Submission: #%d\n", event.SubmissionID)
	if event.ReviewID != nil {
		fmt.Fprintf(&b, "Review: #%d\n", *event.ReviewID)
	}
	if event.FromStatus != "" || event.ToStatus != "" {
		fmt.Fprintf(&b, "Status: %s -> %s\n", event.FromStatus, event.ToStatus)
	}
	if event.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", event.Notes)
	}
	fmt.Fprintf(&b, "Occurred: %s\n", event.OccurredAt.Format(time.RFC3339))

	return subject, b.String()
}
