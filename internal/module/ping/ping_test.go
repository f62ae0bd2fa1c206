package ping

import (
	"activity-assistant/test"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPing(t *testing.T) {
	resp := test.DoRequest(t, Ping, test.Request{})
	data := test.Data[map[string]any](t, resp)
	assert.Equal(t, "pong", data["message"])
	assert.Equal(t, Version, data["version"])
}
