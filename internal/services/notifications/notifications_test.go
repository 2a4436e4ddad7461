package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/BearBump/WorkshopBox/internal/broker/messages"
	"github.com/BearBump/WorkshopBox/internal/integrations/mailer"
	"github.com/BearBump/WorkshopBox/internal/integrations/mailer/logmail"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProducer struct {
	mock.Mock
}

func (m *mockProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type failingMailer struct{}

func (failingMailer) SendAssignment(ctx context.Context, m mailer.AssignmentEmail) error {
	return errors.New("smtp 451")
}

// flakyMailer fails the first n sends, then delegates.
type flakyMailer struct {
	n     int
	calls int
	next  mailer.Client
}

func (f *flakyMailer) SendAssignment(ctx context.Context, m mailer.AssignmentEmail) error {
	f.calls++
	if f.calls <= f.n {
		return errors.New("mail api http 503")
	}
	return f.next.SendAssignment(ctx, m)
}

type rejectingMailer struct{ calls int }

func (r *rejectingMailer) SendAssignment(ctx context.Context, m mailer.AssignmentEmail) error {
	r.calls++
	return &mailer.RejectedError{StatusCode: 400}
}

func TestPublisher_NotifyAssignment(t *testing.T) {
	p := &mockProducer{}
	pub := NewPublisher(p, "")

	p.On("Publish", mock.Anything, DefaultTopic, []byte("42"), mock.MatchedBy(func(b []byte) bool {
		var m messages.TaskAssigned
		if err := json.Unmarshal(b, &m); err != nil {
			return false
		}
		return m.EventID != "" && m.TaskID == 42 && m.Email == "a@example.com"
	})).Return(nil).Once()

	err := pub.NotifyAssignment(context.Background(), messages.TaskAssigned{TaskID: 42, Email: "a@example.com"})
	require.NoError(t, err)
	p.AssertExpectations(t)
}

func TestPublisher_PropagatesBrokerError(t *testing.T) {
	p := &mockProducer{}
	p.On("Publish", mock.Anything, "custom", mock.Anything, mock.Anything).Return(errors.New("no leader"))

	err := NewPublisher(p, "custom").NotifyAssignment(context.Background(), messages.TaskAssigned{TaskID: 1})
	require.Error(t, err)
}

func TestHandler_SendsEmail(t *testing.T) {
	mail := logmail.New()
	h := NewHandler(mail)

	b, err := json.Marshal(messages.TaskAssigned{EventID: "e1", TaskID: 5, Title: "Fix pump", Email: "tech@example.com", FullName: "Tech"})
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), []byte("5"), b))
	sent := mail.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, "tech@example.com", sent[0].To)
	require.Equal(t, "Fix pump", sent[0].Title)
	require.Equal(t, HandlerStats{Handled: 1}, h.Stats())
}

func TestHandler_DropsBadMessages(t *testing.T) {
	mail := logmail.New()
	h := NewHandler(mail)

	require.NoError(t, h.Handle(context.Background(), nil, []byte("{not json")))
	require.NoError(t, h.Handle(context.Background(), nil, []byte(`{"task_id":1}`)))
	require.Empty(t, mail.Sent())
	require.EqualValues(t, 2, h.Stats().Skipped)
}

func TestHandler_RetriesExhausted(t *testing.T) {
	h := NewHandler(failingMailer{}).WithRetry(2, 0)
	b, err := json.Marshal(messages.TaskAssigned{TaskID: 9, Email: "x@example.com"})
	require.NoError(t, err)

	err = h.Handle(context.Background(), nil, b)
	require.Error(t, err)
	require.Contains(t, err.Error(), "task 9")
	require.EqualValues(t, 1, h.Stats().Failed)
}

func TestHandler_RetriesTransientFailure(t *testing.T) {
	mail := logmail.New()
	flaky := &flakyMailer{n: 2, next: mail}
	h := NewHandler(flaky).WithRetry(3, time.Millisecond)
	b, err := json.Marshal(messages.TaskAssigned{TaskID: 3, Email: "x@example.com"})
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), nil, b))
	require.Equal(t, 3, flaky.calls)
	require.Len(t, mail.Sent(), 1)
	require.Equal(t, HandlerStats{Handled: 1}, h.Stats())
}

func TestHandler_DropsRejectedEmail(t *testing.T) {
	rm := &rejectingMailer{}
	h := NewHandler(rm).WithRetry(3, 0)
	b, err := json.Marshal(messages.TaskAssigned{TaskID: 4, Email: "bad@"})
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), nil, b))
	require.Equal(t, 1, rm.calls)
	require.Equal(t, HandlerStats{Rejected: 1}, h.Stats())
}

func TestHandler_StopsRetryingOnCancel(t *testing.T) {
	h := NewHandler(failingMailer{}).WithRetry(5, time.Hour)
	b, err := json.Marshal(messages.TaskAssigned{TaskID: 6, Email: "x@example.com"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = h.Handle(ctx, nil, b)
	require.ErrorIs(t, err, context.Canceled)
	require.EqualValues(t, 1, h.Stats().Failed)
}
