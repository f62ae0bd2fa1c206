package mq

import (
	"context"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

type webhookPublisher struct {
	client *resty.Client
	url    string
	secret string
}

// NewWebhook 以 JSON POST 推送事件
func NewWebhook(client *resty.Client, url, secret string) Publisher {
	if client == nil {
		client = resty.New()
	}
	return &webhookPublisher{client: client, url: url, secret: secret}
}

func (p *webhookPublisher) Publish(ctx context.Context, topic, key string, payload any) error {
	_, b, err := encode(topic, key, payload)
	if err != nil {
		return err
	}
	req := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Event-Topic", topic).
		SetBody(b)
	if p.secret != "" {
		req.SetHeader("X-Webhook-Token", p.secret)
	}
	resp, err := req.Post(p.url)
	if err != nil {
		return errors.Wrapf(err, "webhook publish %s", topic)
	}
	if resp.IsError() {
		return errors.Errorf("webhook publish %s: status %d", topic, resp.StatusCode())
	}
	return nil
}

func (p *webhookPublisher) Close() error {
	return nil
}
