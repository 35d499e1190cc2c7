package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirror-media/mnews-cronjobs/models"
)

func TestPublisherRun(t *testing.T) {
	st := newFakeStates()
	st.due[dueKey{"allPosts", models.StateScheduled}] = []models.Item{{ID: "1"}, {ID: "2"}}
	st.due[dueKey{"allSales", models.StateScheduled}] = []models.Item{{ID: "s1"}}
	st.due[dueKey{"allSales", models.StatePublished}] = []models.Item{{ID: "s2"}}
	p := NewPublisher(st)
	now := time.Date(2021, 5, 1, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	n, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 1, st.batches)
	assert.Equal(t, []string{"updatePosts", "updateSales"}, st.calls)

	posts := st.updates["updatePosts"]
	require.Len(t, posts, 2)
	assert.Equal(t, models.StatePublished, posts[0].State)
	assert.Equal(t, "publishTime", posts[0].TimeField)
	assert.Equal(t, now, posts[0].Time)

	sales := st.updates["updateSales"]
	require.Len(t, sales, 2)
	assert.Equal(t, "s1", sales[0].ID)
	assert.Equal(t, models.StatePublished, sales[0].State)
	assert.Equal(t, "startTime", sales[0].TimeField)
	assert.Equal(t, "s2", sales[1].ID)
	assert.Equal(t, models.StateDraft, sales[1].State)
	assert.Equal(t, "endTime", sales[1].TimeField)
}

func TestPublisherNothingDue(t *testing.T) {
	st := newFakeStates()
	n, err := NewPublisher(st).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, st.calls)
}

func TestPublisherUpdateError(t *testing.T) {
	st := newFakeStates()
	st.due[dueKey{"allArtShows", models.StateScheduled}] = []models.Item{{ID: "a"}}
	st.fail = errors.New("cms down")
	_, err := NewPublisher(st).Run(context.Background())
	assert.EqualError(t, err, "cms down")
}

func TestPublisherUpdateErrorCommitsNothing(t *testing.T) {
	st := newFakeStates()
	st.due[dueKey{"allPosts", models.StateScheduled}] = []models.Item{{ID: "1"}}
	st.due[dueKey{"allSales", models.StatePublished}] = []models.Item{{ID: "s2"}}
	st.fail = errors.New("cms down")
	n, err := NewPublisher(st).Run(context.Background())
	require.EqualError(t, err, "cms down")
	assert.Equal(t, 0, n)
	assert.Zero(t, st.batches)
	assert.Empty(t, st.calls)
	assert.Empty(t, st.updates)
}
