package explorer

// Action names a navigation side effect requested from outside the core.
type Action string

const (
	ActionFlyTo      Action = "fly_to"
	ActionJumpToPass Action = "jump_to_pass"
	ActionJumpToTime Action = "jump_to_time"
)

// Activation is a request to move the map or timeline to a node's entity.
type Activation struct {
	Action    Action `json:"action"`
	NodeID    string `json:"node_id"`
	EntityID  string `json:"entity_id,omitempty"`
	PassIndex int    `json:"pass_index,omitempty"`
	Time      string `json:"time,omitempty"`
}

// Navigator performs activations. The globe view and the timeline implement
// it; the core only produces requests.
type Navigator interface {
	FlyTo(entityID string)
	JumpToPass(index int)
	JumpToTime(ts string)
}

// ActivationFor returns the request Enter produces on n, or nil when the
// node type is not actionable.
func ActivationFor(n *Node) *Activation {
	if n == nil || !n.Type.IsActionable() {
		return nil
	}
	a := &Activation{NodeID: n.ID}
	switch meta := n.Meta.(type) {
	case SatelliteMeta:
		a.Action, a.EntityID = ActionFlyTo, firstNonEmpty(meta.SourceID, n.Name)
	case GroundStationMeta:
		a.Action, a.EntityID = ActionFlyTo, firstNonEmpty(meta.SourceID, n.Name)
	case TargetMeta:
		a.Action, a.EntityID = ActionFlyTo, firstNonEmpty(meta.SourceID, n.Name)
	case OpportunityMeta:
		a.Action = ActionJumpToPass
		a.PassIndex = meta.Index
		a.EntityID = meta.Opportunity.Target
		a.Time = meta.Opportunity.StartTime
	case PlanItemMeta:
		a.Action = ActionJumpToTime
		a.EntityID = meta.Item.Target
		a.Time = meta.Item.StartTime
	default:
		a.Action, a.EntityID = ActionFlyTo, n.Name
	}
	return a
}

// Dispatch hands a to nav. A nil activation or navigator is a no-op.
func Dispatch(a *Activation, nav Navigator) {
	if a == nil || nav == nil {
		return
	}
	switch a.Action {
	case ActionFlyTo:
		nav.FlyTo(a.EntityID)
	case ActionJumpToPass:
		nav.JumpToPass(a.PassIndex)
	case ActionJumpToTime:
		nav.JumpToTime(a.Time)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
