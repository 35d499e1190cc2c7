package models

type State string

const (
	StateDraft     State = "draft"
	StateScheduled State = "scheduled"
	StatePublished State = "published"
)

// NextState moves scheduled items to published and published items to draft.
// Any other state is left as is.
func NextState(s State) State {
	switch s {
	case StateScheduled:
		return StatePublished
	case StatePublished:
		return StateDraft
	default:
		return s
	}
}

// Item is a CMS list entry that only carries an identity and a lifecycle state.
type Item struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	State State  `json:"state"`
}

// Kind names a rotatable CMS list together with its list query and bulk update mutation.
type Kind struct {
	Name   string
	List   string
	Update string
}

var (
	EditorChoiceKind = Kind{
		Name:   "EditorChoices",
		List:   "allEditorChoices",
		Update: "updateEditorChoices",
	}
	VideoEditorChoiceKind = Kind{
		Name:   "VideoEditorChoices",
		List:   "allVideoEditorChoices",
		Update: "updateVideoEditorChoices",
	}
	PromotionVideoKind = Kind{
		Name:   "PromotionVideos",
		List:   "allPromotionVideos",
		Update: "updatePromotionVideos",
	}
)
