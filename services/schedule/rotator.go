package schedule

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/mirror-media/mnews-cronjobs/models"
	"github.com/mirror-media/mnews-cronjobs/services/cms"
)

const rotatableWhere = "{OR: [{state: published}, {state: scheduled}]}"

var (
	AllRotationKinds   = []models.Kind{models.EditorChoiceKind, models.VideoEditorChoiceKind, models.PromotionVideoKind}
	EditorChoicesKinds = []models.Kind{models.EditorChoiceKind}
)

// Rotator advances the state of every published or scheduled entry of the
// configured lists by one step.
type Rotator struct {
	store stateStore
	kinds []models.Kind
}

func NewRotator(store stateStore, kinds []models.Kind) *Rotator {
	return &Rotator{
		store: store,
		kinds: kinds,
	}
}

func (s *Rotator) rotate(ctx context.Context, k models.Kind) (int, error) {
	items, err := s.store.Items(ctx, k.List, rotatableWhere)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		log.Infof("There is nothing to be updated for %v", k.Name)
		return 0, nil
	}
	updates := make([]cms.StateUpdate, 0, len(items))
	for _, it := range items {
		updates = append(updates, cms.StateUpdate{
			ID:    it.ID,
			State: models.NextState(it.State),
		})
	}
	res, err := s.store.UpdateStates(ctx, k.Update, updates)
	if err != nil {
		return 0, err
	}
	log.WithField("kind", k.Name).Infof("updated %d items", len(res))
	return len(res), nil
}

func (s *Rotator) Run(ctx context.Context) (int, error) {
	total := 0
	for _, k := range s.kinds {
		n, err := s.rotate(ctx, k)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
