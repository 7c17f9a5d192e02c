package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"fibra-quiz-service/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	closed   bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestPublishResultSaved(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{channel: ch, exchange: "quiz.events", log: zap.NewNop()}

	created := time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)
	err := p.PublishResultSaved(context.Background(), domain.Result{
		ID:        5,
		UserID:    "u1",
		Subject:   domain.Subject{Kind: domain.SubjectExam, ID: 3},
		Score:     3,
		Total:     4,
		CreatedAt: created,
	})
	require.NoError(t, err)
	require.Equal(t, "quiz.events", ch.exchange)
	require.Equal(t, RoutingKeyResultSaved, ch.key)
	require.Equal(t, "application/json", ch.msg.ContentType)

	var event ResultSavedEvent
	require.NoError(t, json.Unmarshal(ch.msg.Body, &event))
	require.Equal(t, int64(5), event.ResultID)
	require.Equal(t, domain.SubjectExam, event.SubjectKind)
	require.Equal(t, 75, event.Percentage)
	require.True(t, event.OccurredAt.Equal(created))

	require.NoError(t, p.Close())
	require.True(t, ch.closed)
}

func TestDisabledPublisherDropsEvents(t *testing.T) {
	p, err := NewPublisher("", "", zap.NewNop())
	require.NoError(t, err)
	require.False(t, p.Enabled())
	require.NoError(t, p.PublishResultSaved(context.Background(), domain.Result{}))
	require.NoError(t, p.Close())
}
