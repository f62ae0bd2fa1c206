package mq

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type kafkaPublisher struct {
	w *kafka.Writer
}

// NewKafka 每条消息自带 topic，同一个 key（活动 ID）落在同一分区以保证顺序
func NewKafka(brokers []string) Publisher {
	return &kafkaPublisher{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}}
}

func (p *kafkaPublisher) Publish(ctx context.Context, topic, key string, payload any) error {
	_, b, err := encode(topic, key, payload)
	if err != nil {
		return err
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: b,
	})
	return errors.Wrapf(err, "kafka publish %s", topic)
}

func (p *kafkaPublisher) Close() error {
	return p.w.Close()
}
