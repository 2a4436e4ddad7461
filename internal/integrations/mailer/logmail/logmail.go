package logmail

import (
	"context"
	"log/slog"
	"sync"

	"github.com/BearBump/WorkshopBox/internal/integrations/mailer"
)

// Client only logs emails. It is the default when no mail API is configured
// and keeps what it "sent" for inspection.
type Client struct {
	mu   sync.Mutex
	sent []mailer.AssignmentEmail
}

func New() *Client { return &Client{} }

func (c *Client) SendAssignment(ctx context.Context, m mailer.AssignmentEmail) error {
	slog.Info("assignment email", "to", m.To, "task_id", m.TaskID, "title", m.Title)
	c.mu.Lock()
	c.sent = append(c.sent, m)
	c.mu.Unlock()
	return nil
}

func (c *Client) Sent() []mailer.AssignmentEmail {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]mailer.AssignmentEmail, len(c.sent))
	copy(out, c.sent)
	return out
}
