package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextState(t *testing.T) {
	assert.Equal(t, StatePublished, NextState(StateScheduled))
	assert.Equal(t, StateDraft, NextState(StatePublished))
	assert.Equal(t, StateDraft, NextState(StateDraft))
	assert.Equal(t, State("archived"), NextState(State("archived")))
}

func TestPostLastModified(t *testing.T) {
	pub := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)
	upd := pub.Add(time.Hour)
	p := &Post{PublishTime: pub}
	assert.Equal(t, pub, p.LastModified())
	p.UpdatedAt = &upd
	assert.Equal(t, upd, p.LastModified())
	older := pub.Add(-time.Hour)
	p.UpdatedAt = &older
	assert.Equal(t, pub, p.LastModified())
}
