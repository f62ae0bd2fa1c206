package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveStatus(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	before, during, after := start.Add(-time.Hour), start.Add(time.Hour), end.Add(time.Hour)

	tests := []struct {
		persisted ActivityStatus
		now       time.Time
		want      ActivityStatus
	}{
		{ActivityDraft, after, ActivityDraft},
		{ActivityCancelled, during, ActivityCancelled},
		{ActivityPublished, before, ActivityPublished},
		{ActivityPublished, start, ActivityOngoing},
		{ActivityPublished, during, ActivityOngoing},
		{ActivityPublished, end, ActivityFinished},
		{ActivityOngoing, after, ActivityFinished},
		// 持久化状态比时间推算的更靠后时以持久化为准
		{ActivityFinished, before, ActivityFinished},
		{ActivityOngoing, before, ActivityOngoing},
	}
	for _, tt := range tests {
		a := &Activity{Status: tt.persisted, StartTime: start, EndTime: end}
		assert.Equal(t, tt.want, a.EffectiveStatus(tt.now), "%s at %s", tt.persisted, tt.now)
	}
}

func TestBlacklisted(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Minute), now.Add(time.Minute)
	a := &Activity{Blacklist: []BlacklistEntry{
		{UserID: "forever"},
		{UserID: "expired", ExpiresAt: &past},
		{UserID: "pending", ExpiresAt: &future},
	}}

	assert.True(t, a.Blacklisted("forever", now))
	assert.False(t, a.Blacklisted("expired", now))
	assert.True(t, a.Blacklisted("pending", now))
	assert.False(t, a.Blacklisted("nobody", now))
}

func TestClone(t *testing.T) {
	a := &Activity{Administrators: []string{"a"}, Total: 3}
	c := a.Clone()
	c.Administrators[0] = "b"
	c.Total = 4
	assert.Equal(t, "a", a.Administrators[0])
	assert.Equal(t, 3, a.Total)

	a.Joined = 1
	assert.Equal(t, 2, a.Remaining())
}

func TestGroupLookup(t *testing.T) {
	a := &Activity{Groups: []Group{{ID: "g1", Total: 2}, {ID: "g2", Total: 3}}}
	assert.True(t, a.HasGroups())
	assert.Nil(t, a.Group("g404"))

	a.Group("g2").Joined++
	assert.Equal(t, 1, a.Groups[1].Joined, "通过指针修改写回活动")

	c := a.Clone()
	c.Group("g1").Joined = 2
	assert.Zero(t, a.Group("g1").Joined)
	assert.False(t, (&Activity{}).HasGroups())
}
