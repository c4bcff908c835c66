package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"studyhall/internal/metrics"
	"studyhall/internal/queue"

	"github.com/google/uuid"
)

// Notification is a user-facing message produced by a workflow action.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Delivered bool      `json:"delivered"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists notifications.
type Store interface {
	Insert(ctx context.Context, n Notification) error
	MarkDelivered(ctx context.Context, id string) error
}

// Sink delivers a notification to the outside world (push, mail, console).
type Sink interface {
	Deliver(n Notification) error
}

// Service records notifications and hands them to the delivery queue.
// Fire-and-forget: failures are logged and never block the triggering
// workflow.
type Service struct {
	store Store
	q     queue.Queue
}

// NewService builds the notification service.
func NewService(store Store, q queue.Queue) *Service {
	return &Service{store: store, q: q}
}

// Notify persists a notification row and queues it for delivery.
func (s *Service) Notify(ctx context.Context, userID, title, message, typ string) {
	if userID == "" {
		return
	}
	n := Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, n); err != nil {
		log.Printf("notification insert failed for user %s: %v", userID, err)
		return
	}
	body, err := json.Marshal(n)
	if err != nil {
		log.Printf("notification encode failed: %v", err)
		return
	}
	if err := s.q.Publish(ctx, queue.Message{Type: "notification", Body: body}); err != nil {
		log.Printf("notification publish failed for user %s: %v", userID, err)
		return
	}
	metrics.NotificationsQueued.Inc()
}

// ConsoleSink logs deliveries; the default sink for deployments without a
// push provider.
type ConsoleSink struct{}

func (ConsoleSink) Deliver(n Notification) error {
	log.Printf("[notify] user=%s type=%s %s :: %s", n.UserID, n.Type, n.Title, n.Message)
	return nil
}
