package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher produces events to a Kafka topic keyed by subject id, so one
// account's events stay ordered within a partition. Produce is asynchronous;
// failures are counted and trip a breaker that diverts events to the
// fallback publisher.
type KafkaPublisher struct {
	client   *kgo.Client
	topic    string
	fallback Publisher
	breaker  *breaker
	metrics  *Metrics
	logger   *slog.Logger
}

type KafkaOption func(*KafkaPublisher)

func WithKafkaMetrics(m *Metrics) KafkaOption {
	return func(p *KafkaPublisher) { p.metrics = m }
}

func WithBreaker(threshold int, cooldown time.Duration) KafkaOption {
	return func(p *KafkaPublisher) { p.breaker = newBreaker(threshold, cooldown) }
}

// NewKafkaPublisher connects to brokers. The fallback receives events while
// the breaker is open.
func NewKafkaPublisher(brokers []string, topic string, fallback Publisher, logger *slog.Logger, opts ...KafkaOption) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerLinger(50*time.Millisecond),
		kgo.RecordDeliveryTimeout(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	p := &KafkaPublisher{
		client:   client,
		topic:    topic,
		fallback: fallback,
		breaker:  newBreaker(5, time.Minute),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// EnsureTopic creates the audit topic when it does not exist yet.
func (p *KafkaPublisher) EnsureTopic(ctx context.Context, partitions int32, replication int16) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopic(ctx, partitions, replication, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", p.topic, resp.Err)
	}
	return nil
}

func (p *KafkaPublisher) Emit(ctx context.Context, e Event) {
	e = Enrich(ctx, e)
	if !p.breaker.Allow() {
		p.metrics.incFallback()
		p.fallback.Emit(ctx, e)
		return
	}

	value, err := json.Marshal(e)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to encode audit event", "error", err, "action", e.Action)
		return
	}
	rec := &kgo.Record{
		Key:   []byte(e.SubjectID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(e.Action)},
			{Key: "category", Value: []byte(e.Category)},
		},
	}

	// The request may finish before the broker acks.
	p.client.Produce(context.WithoutCancel(ctx), rec, func(_ *kgo.Record, err error) {
		if err != nil {
			p.metrics.incFailed()
			opened := p.breaker.RecordFailure()
			p.metrics.setBreakerOpen(p.breaker.IsOpen())
			p.logger.Error("audit produce failed",
				"error", err,
				"action", e.Action,
				"breaker_opened", opened,
				"request_id", e.RequestID,
			)
			return
		}
		p.breaker.RecordSuccess()
		p.metrics.setBreakerOpen(false)
		p.metrics.incProduced()
	})
}

// Close flushes buffered records and closes the client.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	err := p.client.Flush(ctx)
	p.client.Close()
	return err
}
