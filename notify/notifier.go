package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"hairops/store"
)

// Message is a user-facing notification. URL points at the solution detail
// the message is about.
type Message struct {
	UserID     string    `json:"user_id"`
	JobID      string    `json:"job_id"`
	SolutionID string    `json:"solution_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"created_at"`
}

// Emitter receives delivery confirmations for observability.
type Emitter interface {
	EmitNotificationSent(userID, solutionID string)
}

// Notifier fans a "solution ready" message out to the user's Redis feed
// and to the Kafka notifications topic via the store outbox. Delivery is
// best effort: a partially failed fan-out is reported but never undone.
type Notifier struct {
	db      *store.DB
	feed    *Feed
	topic   string
	emitter Emitter
}

func NewNotifier(db *store.DB, feed *Feed, topic string, emitter Emitter) *Notifier {
	return &Notifier{db: db, feed: feed, topic: topic, emitter: emitter}
}

// SolutionReady notifies the launching user that a job's solution arrived.
func (n *Notifier) SolutionReady(userID string, job *store.Job, sol *store.Solution) error {
	msg := &Message{
		UserID:     userID,
		JobID:      job.ID,
		SolutionID: sol.ID,
		Title:      "Optimization finished",
		Body:       fmt.Sprintf("Job %s resolved with cost %.2f across %d routes.", job.ID, sol.Cost, len(sol.Routes)),
		URL:        fmt.Sprintf("/api/solutions/%s", sol.ID),
		CreatedAt:  time.Now(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("notify marshal: %w", err)
	}

	var firstErr error
	if n.feed != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := n.feed.Push(ctx, userID, msg); err != nil {
			firstErr = fmt.Errorf("notify feed: %w", err)
			log.Printf("notify: push feed for user %s: %v", userID, err)
		}
		cancel()
	}
	if err := n.db.EnqueueOutbox(n.topic, data, "solution.ready", userID); err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("notify outbox: %w", err)
		}
		log.Printf("notify: enqueue outbox for user %s: %v", userID, err)
	}

	if firstErr == nil && n.emitter != nil {
		n.emitter.EmitNotificationSent(userID, sol.ID)
	}
	return firstErr
}
