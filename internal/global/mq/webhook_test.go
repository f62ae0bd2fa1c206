package mq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookPublish(t *testing.T) {
	var got Envelope
	var token string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = r.Header.Get("X-Webhook-Token")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p := NewWebhook(nil, srv.URL, "s3cret")
	err := p.Publish(context.Background(), TopicRegistrationApproved, "A20250301000001", map[string]string{"registration_id": "R1"})
	require.NoError(t, err)

	assert.Equal(t, "s3cret", token)
	assert.Equal(t, TopicRegistrationApproved, got.Topic)
	assert.Equal(t, "A20250301000001", got.Key)
	assert.JSONEq(t, `{"registration_id":"R1"}`, string(got.Data))
}

func TestWebhookPublishFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewWebhook(nil, srv.URL, "").Publish(context.Background(), TopicCheckinCreated, "k", nil)
	assert.Error(t, err)
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Publish(context.Background(), TopicActivityPublished, "A1", struct{}{}))
	assert.Equal(t, []string{TopicActivityPublished}, r.Topics())
}
