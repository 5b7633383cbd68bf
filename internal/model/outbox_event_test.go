package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOutboxEventStates(t *testing.T) {
	now := time.Now()

	fresh := OutboxEvent{Attempts: 0}
	assert.False(t, fresh.Processed())
	assert.False(t, fresh.Dead(3))

	done := OutboxEvent{Attempts: 1, ProcessedAt: &now}
	assert.True(t, done.Processed())
	assert.False(t, done.Dead(3), "a delivered event is never dead")

	exhausted := OutboxEvent{Attempts: 3}
	assert.False(t, exhausted.Processed())
	assert.True(t, exhausted.Dead(3))

	retrying := OutboxEvent{Attempts: 2}
	assert.False(t, retrying.Dead(3))
}
