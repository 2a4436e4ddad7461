package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/BearBump/WorkshopBox/internal/broker/messages"
	"github.com/BearBump/WorkshopBox/internal/integrations/mailer"
	"github.com/pkg/errors"
)

// Handler consumes task-assigned events and sends the email.
type Handler struct {
	mail     mailer.Client
	attempts int
	backoff  time.Duration

	handled  atomic.Int64
	skipped  atomic.Int64
	rejected atomic.Int64
	failed   atomic.Int64
}

func NewHandler(mail mailer.Client) *Handler {
	return &Handler{mail: mail, attempts: 3, backoff: 500 * time.Millisecond}
}

// WithRetry sets how many times a transient delivery failure is attempted.
// The wait between attempts doubles starting from backoff.
func (h *Handler) WithRetry(attempts int, backoff time.Duration) *Handler {
	if attempts > 0 {
		h.attempts = attempts
	}
	if backoff >= 0 {
		h.backoff = backoff
	}
	return h
}

// Handle drops malformed payloads and emails the provider rejected, and
// retries transient delivery failures. An error is returned only when the
// retries ran out or ctx was canceled.
func (h *Handler) Handle(ctx context.Context, key, value []byte) error {
	var msg messages.TaskAssigned
	if err := json.Unmarshal(value, &msg); err != nil {
		h.skipped.Add(1)
		slog.Warn("drop malformed task assigned message", "key", string(key), "error", err.Error())
		return nil
	}
	if msg.Email == "" || msg.TaskID == 0 {
		h.skipped.Add(1)
		slog.Warn("drop incomplete task assigned message", "event_id", msg.EventID, "task_id", msg.TaskID)
		return nil
	}

	email := mailer.AssignmentEmail{
		To:          msg.Email,
		FullName:    msg.FullName,
		TaskID:      msg.TaskID,
		Title:       msg.Title,
		Description: msg.Description,
		DueDate:     msg.DueDate,
	}

	var err error
	wait := h.backoff
	for i := 0; i < h.attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				h.failed.Add(1)
				return errors.Wrapf(ctx.Err(), "send assignment email for task %d", msg.TaskID)
			case <-time.After(wait):
			}
			wait *= 2
		}
		err = h.mail.SendAssignment(ctx, email)
		if err == nil {
			h.handled.Add(1)
			slog.Info("assignment email sent", "event_id", msg.EventID, "task_id", msg.TaskID, "user_id", msg.AssigneeID)
			return nil
		}
		if mailer.IsRejected(err) {
			h.rejected.Add(1)
			slog.Warn("drop assignment email rejected by provider",
				"event_id", msg.EventID, "task_id", msg.TaskID, "error", err.Error())
			return nil
		}
		slog.Warn("assignment email attempt failed",
			"event_id", msg.EventID, "task_id", msg.TaskID, "attempt", i+1, "error", err.Error())
	}

	h.failed.Add(1)
	return errors.Wrapf(err, "send assignment email for task %d", msg.TaskID)
}

type HandlerStats struct {
	Handled  int64 `json:"handled"`
	Skipped  int64 `json:"skipped"`
	Rejected int64 `json:"rejected"`
	Failed   int64 `json:"failed"`
}

func (h *Handler) Stats() HandlerStats {
	return HandlerStats{
		Handled:  h.handled.Load(),
		Skipped:  h.skipped.Load(),
		Rejected: h.rejected.Load(),
		Failed:   h.failed.Load(),
	}
}
