package broker

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Publisher sends a keyed message to the configured topic.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Reader is the consuming side the listeners depend on.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type KafkaConsumer struct {
	reader *kafka.Reader
}

func NewConsumer(cfg *Config) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        cfg.Brokers,
			Topic:          cfg.Topic,
			GroupID:        cfg.GroupID,
			MinBytes:       1,
			MaxBytes:       10e6,
			CommitInterval: time.Second,
		}),
	}
}

func (c *KafkaConsumer) ReadMessage(ctx context.Context) (kafka.Message, error) {
	return c.reader.ReadMessage(ctx)
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

type KafkaProducer struct {
	writer *kafka.Writer
}

func NewProducer(cfg *Config) *KafkaProducer {
	return &KafkaProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *KafkaProducer) Publish(ctx context.Context, key string, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	})
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// LocalBus delivers published messages synchronously to a handler.
// It stands in for Kafka when no brokers are configured.
type LocalBus struct {
	handle func(ctx context.Context, value []byte)
}

func NewLocalBus() *LocalBus {
	return &LocalBus{}
}

// Subscribe sets the single handler. Messages published before Subscribe are dropped.
func (b *LocalBus) Subscribe(handle func(ctx context.Context, value []byte)) {
	b.handle = handle
}

func (b *LocalBus) Publish(ctx context.Context, _ string, value []byte) error {
	if b.handle != nil {
		b.handle(ctx, value)
	}
	return nil
}
