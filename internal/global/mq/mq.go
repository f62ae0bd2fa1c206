// Package mq 发布领域事件。事件在事务提交后发出，发送失败只记录日志。
package mq

import (
	"activity-assistant/config"
	"activity-assistant/internal/global/httpclient"
	"activity-assistant/internal/global/logger"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	TopicActivityPublished     = "activity.published"
	TopicActivityCancelled     = "activity.cancelled"
	TopicActivityDeleted       = "activity.deleted"
	TopicRegistrationCreated   = "registration.created"
	TopicRegistrationApproved  = "registration.approved"
	TopicRegistrationRejected  = "registration.rejected"
	TopicRegistrationCancelled = "registration.cancelled"
	TopicCheckinCreated        = "checkin.created"
	TopicReviewSubmitted       = "review.submitted"
	TopicReviewRemoved         = "review.removed"
)

// Envelope 事件在线上的统一格式
type Envelope struct {
	Topic      string          `json:"topic"`
	Key        string          `json:"key"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
	Close() error
}

func encode(topic, key string, payload any) (Envelope, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, nil, errors.Wrap(err, "marshal payload")
	}
	env := Envelope{Topic: topic, Key: key, OccurredAt: time.Now().UTC(), Data: data}
	b, err := json.Marshal(env)
	return env, b, errors.WithStack(err)
}

type nopPublisher struct{}

// Nop 不发送任何事件
func Nop() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, string, string, any) error { return nil }
func (nopPublisher) Close() error                                       { return nil }

// Recorder 记录所有事件，供测试断言
type Recorder struct {
	mu     sync.Mutex
	Events []Envelope
}

func (r *Recorder) Publish(_ context.Context, topic, key string, payload any) error {
	env, _, err := encode(topic, key, payload)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.Events = append(r.Events, env)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	topics := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		topics = append(topics, e.Topic)
	}
	return topics
}

var Default = Nop()

// Init 按配置选择 Kafka、Webhook 或不发送
func Init() {
	log := logger.New("MQ")
	cfg := config.Get()
	switch {
	case len(cfg.Kafka.Brokers) > 0:
		Default = NewKafka(cfg.Kafka.Brokers)
		log.Info("事件发送到 Kafka", "brokers", cfg.Kafka.Brokers)
	case cfg.Webhook.URL != "":
		Default = NewWebhook(httpclient.Client, cfg.Webhook.URL, cfg.Webhook.Secret)
		log.Info("事件发送到 Webhook", "url", cfg.Webhook.URL)
	default:
		Default = Nop()
	}
}
