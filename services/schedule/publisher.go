package schedule

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mirror-media/mnews-cronjobs/models"
	"github.com/mirror-media/mnews-cronjobs/services/cms"
)

type stateStore interface {
	Items(ctx context.Context, list string, where string) ([]models.Item, error)
	DueItems(ctx context.Context, list string, state models.State, timeField string, now time.Time) ([]models.Item, error)
	UpdateStates(ctx context.Context, mutation string, updates []cms.StateUpdate) ([]models.Item, error)
	UpdateStatesBatch(ctx context.Context, batches []cms.StateBatch) (map[string][]models.Item, error)
}

// transition moves due entries of a list from one state to another and
// stamps timeField with the run time.
type transition struct {
	list      string
	mutation  string
	from      models.State
	to        models.State
	timeField string
}

var publishTransitions = []transition{
	{list: "allPosts", mutation: "updatePosts", from: models.StateScheduled, to: models.StatePublished, timeField: "publishTime"},
	{list: "allArtShows", mutation: "updateArtShows", from: models.StateScheduled, to: models.StatePublished, timeField: "publishTime"},
	{list: "allSales", mutation: "updateSales", from: models.StateScheduled, to: models.StatePublished, timeField: "startTime"},
	{list: "allSales", mutation: "updateSales", from: models.StatePublished, to: models.StateDraft, timeField: "endTime"},
}

// Publisher publishes scheduled posts, art shows and sales whose time has come
// and takes ended sales down.
type Publisher struct {
	store stateStore
	now   func() time.Time
}

func NewPublisher(store stateStore) *Publisher {
	return &Publisher{
		store: store,
		now:   time.Now,
	}
}

func (s *Publisher) Run(ctx context.Context) (int, error) {
	now := s.now().UTC()
	var mutations []string
	updates := map[string][]cms.StateUpdate{}
	for _, t := range publishTransitions {
		items, err := s.store.DueItems(ctx, t.list, t.from, t.timeField, now)
		if err != nil {
			return 0, err
		}
		if len(items) == 0 {
			continue
		}
		if _, ok := updates[t.mutation]; !ok {
			mutations = append(mutations, t.mutation)
		}
		for _, it := range items {
			updates[t.mutation] = append(updates[t.mutation], cms.StateUpdate{
				ID:        it.ID,
				State:     t.to,
				TimeField: t.timeField,
				Time:      now,
			})
		}
	}
	if len(mutations) == 0 {
		log.Info("there is no scheduled post ready to be published")
		return 0, nil
	}
	batches := make([]cms.StateBatch, 0, len(mutations))
	for _, m := range mutations {
		batches = append(batches, cms.StateBatch{Mutation: m, Updates: updates[m]})
	}
	res, err := s.store.UpdateStatesBatch(ctx, batches)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, m := range mutations {
		for _, it := range res[m] {
			log.WithField("mutation", m).Infof("item(id: %v) is %v", it.ID, it.State)
		}
		total += len(res[m])
	}
	return total, nil
}
