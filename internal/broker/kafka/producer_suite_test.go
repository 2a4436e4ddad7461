package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

type ProducerSuite struct {
	suite.Suite
	w *mockWriter
	p *Producer
}

func (s *ProducerSuite) SetupTest() {
	s.w = &mockWriter{}
	s.p = newProducerWithWriter(s.w)
}

func (s *ProducerSuite) TestPublish_KeyedJSONMessage() {
	s.w.
		On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			m := msgs[0]
			return m.Topic == "workshop.task-assigned" &&
				string(m.Key) == "42" &&
				string(m.Value) == `{"task_id":42}` &&
				len(m.Headers) == 1 && m.Headers[0].Key == "content-type" &&
				string(m.Headers[0].Value) == "application/json"
		})).
		Return(nil).
		Once()

	s.Require().NoError(s.p.Publish(context.Background(), "workshop.task-assigned", []byte("42"), []byte(`{"task_id":42}`)))
	s.w.AssertExpectations(s.T())
}

func (s *ProducerSuite) TestPublish_EmptyTopic() {
	err := s.p.Publish(context.Background(), "", []byte("1"), []byte("{}"))
	s.Require().Error(err)
	s.w.AssertNotCalled(s.T(), "WriteMessages", mock.Anything, mock.Anything)
}

func (s *ProducerSuite) TestPublish_BrokerErrorNamesTopic() {
	s.w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("leader not available")).Once()

	err := s.p.Publish(context.Background(), "workshop.task-assigned", []byte("1"), []byte("{}"))
	s.Require().Error(err)
	s.Require().Contains(err.Error(), "kafka publish to workshop.task-assigned")
	s.Require().Contains(err.Error(), "leader not available")
}

func (s *ProducerSuite) TestClose_WriterWithoutCloser() {
	s.Require().NoError(s.p.Close())
}

func (s *ProducerSuite) TestNewProducer_Close() {
	p := NewProducer([]string{"localhost:0"})
	s.Require().NotNil(p)
	s.Require().NoError(p.Close())
}

func TestProducerSuite(t *testing.T) {
	suite.Run(t, new(ProducerSuite))
}
