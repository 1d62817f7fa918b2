// Package navigation bounds how deeply a user can wander through "explore
// more" suggestion branches within one slot before the conversation is forced
// toward a concrete choice. It also derives which UI affordances to offer, so
// the rendering layer never reimplements the depth policy.
package navigation

import (
	"time"

	"github.com/sundale/projectcoach-backend/internal/domain"
)

// Navigation event kinds. Only exploration events consume depth; every event
// consumes the interaction budget.
const (
	KindExploration = "exploration"
	KindSelection   = "selection"
	KindRefinement  = "refinement"
)

// Suggestion is the controller's recommended next move and why.
type Suggestion struct {
	Suggestion string `json:"suggestion"` // continue_exploring | show_examples
	Reason     string `json:"reason"`
}

// ButtonOption is one UI affordance the rendering layer should offer.
type ButtonOption struct {
	Label  string `json:"label"`
	Action string `json:"action"`
	Rank   string `json:"rank"` // primary | secondary | tertiary
}

// Controller tracks branching state for the current slot. It holds mutable
// counters and performs no I/O; one controller belongs to exactly one
// session.
type Controller struct {
	maxDepth        int
	maxInteractions int
	state           domain.NavState
	now             func() time.Time
}

func NewController(maxDepth, maxInteractions int) *Controller {
	return &Controller{
		maxDepth:        maxDepth,
		maxInteractions: maxInteractions,
		now:             time.Now,
	}
}

// FromState rehydrates a controller from persisted session state.
func FromState(state domain.NavState, maxDepth, maxInteractions int) *Controller {
	c := NewController(maxDepth, maxInteractions)
	c.state = state
	return c
}

// State returns a copy of the current per-slot navigation state for
// persistence.
func (c *Controller) State() domain.NavState {
	out := c.state
	out.Events = append([]domain.NavEvent(nil), c.state.Events...)
	return out
}

// TrackNavigation records one navigation choice. Exploration-type choices
// deepen the branch; everything else only consumes the interaction budget.
func (c *Controller) TrackNavigation(choice, kind string) {
	c.state.Interactions++
	if kind == KindExploration {
		if c.state.Depth < c.maxDepth {
			c.state.Depth++
		}
	}
	c.state.Events = append(c.state.Events, domain.NavEvent{
		Choice: choice,
		Kind:   kind,
		At:     c.now(),
	})
}

// ShouldShowMoreOptions reports whether further "explore more" branching is
// allowed. Once false, it stays false until ResetForNextSlot.
func (c *Controller) ShouldShowMoreOptions() bool {
	if c.state.Depth >= c.maxDepth {
		return false
	}
	if c.state.Interactions > c.maxInteractions {
		return false
	}
	return true
}

// SuggestNextAction reports whether to keep branching or to force
// convergence. The convergence suggestion overrides whatever the intent
// classifier or acceptance evaluator would otherwise allow.
func (c *Controller) SuggestNextAction() Suggestion {
	if c.state.Depth >= c.maxDepth {
		return Suggestion{
			Suggestion: "show_examples",
			Reason:     "explored enough branches on this step; time to pick a concrete direction",
		}
	}
	if c.state.Interactions > c.maxInteractions {
		return Suggestion{
			Suggestion: "show_examples",
			Reason:     "several exchanges on this step without a choice; concrete examples will help",
		}
	}
	return Suggestion{
		Suggestion: "continue_exploring",
		Reason:     "room left to explore before converging",
	}
}

// ResetForNextSlot zeroes depth, interactions, and history when the session
// advances to a new slot.
func (c *Controller) ResetForNextSlot() {
	c.state = domain.NavState{}
}

// Depth returns the current branch depth.
func (c *Controller) Depth() int { return c.state.Depth }

// Interactions returns how many navigation events this slot has consumed.
func (c *Controller) Interactions() int { return c.state.Interactions }

// ButtonOptions derives the affordances to offer given the current state.
func (c *Controller) ButtonOptions() []ButtonOption {
	if !c.ShouldShowMoreOptions() {
		return []ButtonOption{
			{Label: "Show me examples", Action: "show_examples", Rank: "primary"},
			{Label: "I'll write my own", Action: "submit_own", Rank: "secondary"},
		}
	}
	return []ButtonOption{
		{Label: "Use one of these", Action: "select_suggestion", Rank: "primary"},
		{Label: "Explore another angle", Action: "explore_more", Rank: "secondary"},
		{Label: "I'll write my own", Action: "submit_own", Rank: "tertiary"},
	}
}
