package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fibra-quiz-service/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RoutingKeyResultSaved is published after a result is stored.
const RoutingKeyResultSaved = "quiz.result.saved"

// ResultSavedEvent is the message body for RoutingKeyResultSaved.
type ResultSavedEvent struct {
	ResultID    int64              `json:"resultId"`
	UserID      string             `json:"userId"`
	SubjectKind domain.SubjectKind `json:"subjectKind"`
	SubjectID   int64              `json:"subjectId"`
	Score       int                `json:"score"`
	Total       int                `json:"totalQuestions"`
	Percentage  int                `json:"percentage"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

func newResultSavedEvent(r domain.Result) ResultSavedEvent {
	return ResultSavedEvent{
		ResultID:    r.ID,
		UserID:      r.UserID,
		SubjectKind: r.Subject.Kind,
		SubjectID:   r.Subject.ID,
		Score:       r.Score,
		Total:       r.Total,
		Percentage:  r.Percentage(),
		OccurredAt:  r.CreatedAt,
	}
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends quiz events to a topic exchange. A publisher built without a URL
// is disabled and drops events.
type Publisher struct {
	conn     *amqp.Connection
	channel  channel
	exchange string
	log      *zap.Logger
}

func NewPublisher(url, exchange string, log *zap.Logger) (*Publisher, error) {
	if url == "" {
		log.Info("rabbitmq url empty, result events disabled")
		return &Publisher{log: log}, nil
	}
	if exchange == "" {
		exchange = "quiz.events"
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, channel: ch, exchange: exchange, log: log}, nil
}

func (p *Publisher) Enabled() bool {
	return p.channel != nil
}

func (p *Publisher) PublishResultSaved(ctx context.Context, result domain.Result) error {
	return p.publish(ctx, RoutingKeyResultSaved, newResultSavedEvent(result))
}

func (p *Publisher) publish(ctx context.Context, routingKey string, event any) error {
	if !p.Enabled() {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(pubCtx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	p.log.Debug("event published", zap.String("routingKey", routingKey))
	return nil
}

func (p *Publisher) Close() error {
	if !p.Enabled() {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		return err
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
