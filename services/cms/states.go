package cms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mirror-media/mnews-cronjobs/models"
)

// StateUpdate moves one item to State. When TimeField is set, the field is
// stamped with Time in the same update.
type StateUpdate struct {
	ID        string
	State     models.State
	TimeField string
	Time      time.Time
}

func (s StateUpdate) literal() string {
	data := "state: " + string(s.State)
	if s.TimeField != "" {
		data += fmt.Sprintf(", %v: %v", s.TimeField, Time(s.Time))
	}
	return fmt.Sprintf("{id: %v, data: {%v}}", String(s.ID), data)
}

// Items lists id and state of every entry of list. where may be empty.
func (s *Client) Items(ctx context.Context, list string, where string) ([]models.Item, error) {
	args := ""
	if where != "" {
		args = "(where: " + where + ")"
	}
	q := fmt.Sprintf(`query {
  items: %v%v {
    id
    state
  }
}`, list, args)
	var resp struct {
		Items []models.Item `json:"items"`
	}
	if err := s.Run(ctx, q, &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to list %v", list)
	}
	return resp.Items, nil
}

// DueItems lists entries in state whose timeField is not after now.
func (s *Client) DueItems(ctx context.Context, list string, state models.State, timeField string, now time.Time) ([]models.Item, error) {
	where := fmt.Sprintf("{state: %v, %v_lte: %v}", state, timeField, Time(now))
	return s.Items(ctx, list, where)
}

// StateBatch is the set of updates sent through one bulk mutation.
type StateBatch struct {
	Mutation string
	Updates  []StateUpdate
}

func (s StateBatch) literal() string {
	parts := make([]string, 0, len(s.Updates))
	for _, u := range s.Updates {
		parts = append(parts, u.literal())
	}
	return fmt.Sprintf(`  %v(data: [%v]) {
    id
    state
  }`, s.Mutation, strings.Join(parts, ", "))
}

// UpdateStates applies all updates with a single bulk mutation.
func (s *Client) UpdateStates(ctx context.Context, mutation string, updates []StateUpdate) ([]models.Item, error) {
	res, err := s.UpdateStatesBatch(ctx, []StateBatch{{Mutation: mutation, Updates: updates}})
	if err != nil {
		return nil, err
	}
	return res[mutation], nil
}

// UpdateStatesBatch sends every non-empty batch in one mutation request, so
// the CMS commits either all of them or none. Each mutation may appear once.
func (s *Client) UpdateStatesBatch(ctx context.Context, batches []StateBatch) (map[string][]models.Item, error) {
	var fields, names []string
	for _, b := range batches {
		if len(b.Updates) == 0 {
			continue
		}
		fields = append(fields, b.literal())
		names = append(names, b.Mutation)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	q := "mutation {\n" + strings.Join(fields, "\n") + "\n}"
	resp := map[string][]models.Item{}
	if err := s.Run(ctx, q, &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to run %v", strings.Join(names, ", "))
	}
	return resp, nil
}
