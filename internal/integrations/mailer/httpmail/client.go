package httpmail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/BearBump/WorkshopBox/internal/integrations/mailer"
	"github.com/pkg/errors"
)

// Client posts transactional emails to an HTTP mail API.
type Client struct {
	baseURL string
	apiKey  string
	from    string
	httpc   *http.Client
}

func New(baseURL, apiKey, from string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:9100"
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		from:    from,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type reqBody struct {
	From     string            `json:"from,omitempty"`
	To       string            `json:"to"`
	Template string            `json:"template"`
	Subject  string            `json:"subject"`
	Vars     map[string]string `json:"vars"`
}

func (c *Client) SendAssignment(ctx context.Context, m mailer.AssignmentEmail) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return errors.Wrap(err, "parse base url")
	}
	u.Path = "/v1/messages"

	vars := map[string]string{
		"fullName":    m.FullName,
		"taskId":      fmt.Sprintf("%d", m.TaskID),
		"title":       m.Title,
		"description": m.Description,
	}
	if m.DueDate != nil {
		vars["dueDate"] = m.DueDate.UTC().Format("2006-01-02")
	}
	body, err := json.Marshal(reqBody{
		From:     c.from,
		To:       m.To,
		Template: "task_assigned",
		Subject:  "New task assigned: " + m.Title,
		Vars:     vars,
	})
	if err != nil {
		return errors.Wrap(err, "encode")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode/100 == 2:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.New("mail api rate limit (429)")
	case resp.StatusCode/100 == 4:
		// 4xx кроме 429: повтор не поможет.
		return &mailer.RejectedError{StatusCode: resp.StatusCode}
	default:
		return errors.Errorf("mail api http %d", resp.StatusCode)
	}
}
