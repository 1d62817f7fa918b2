package navigation

import (
	"testing"

	"github.com/sundale/projectcoach-backend/internal/domain"
)

func TestDepthCeilingLatches(t *testing.T) {
	c := NewController(2, 5)
	if !c.ShouldShowMoreOptions() {
		t.Fatalf("fresh controller must allow exploring")
	}

	c.TrackNavigation("what about gardens", KindExploration)
	if !c.ShouldShowMoreOptions() {
		t.Fatalf("one exploration under max depth 2 should still allow more")
	}
	c.TrackNavigation("what about compost", KindExploration)
	if c.ShouldShowMoreOptions() {
		t.Fatalf("at max depth, branching must stop")
	}

	// Latches: further events of any kind never re-open branching.
	c.TrackNavigation("hm", KindSelection)
	c.TrackNavigation("another", KindExploration)
	if c.ShouldShowMoreOptions() {
		t.Fatalf("ceiling must hold until reset")
	}
	if got := c.SuggestNextAction(); got.Suggestion != "show_examples" {
		t.Fatalf("expected show_examples at ceiling, got %+v", got)
	}
}

func TestResetForNextSlot(t *testing.T) {
	c := NewController(2, 5)
	c.TrackNavigation("a", KindExploration)
	c.TrackNavigation("b", KindExploration)
	if c.ShouldShowMoreOptions() {
		t.Fatalf("expected ceiling before reset")
	}

	c.ResetForNextSlot()
	if c.Depth() != 0 || c.Interactions() != 0 {
		t.Fatalf("expected zeroed counters after reset, got depth=%d interactions=%d", c.Depth(), c.Interactions())
	}
	if len(c.State().Events) != 0 {
		t.Fatalf("expected empty history after reset")
	}
	if !c.ShouldShowMoreOptions() {
		t.Fatalf("expected branching allowed immediately after reset")
	}
}

func TestInteractionCeiling(t *testing.T) {
	c := NewController(10, 3)
	for i := 0; i < 4; i++ {
		c.TrackNavigation("pick", KindSelection)
	}
	if c.ShouldShowMoreOptions() {
		t.Fatalf("interaction ceiling exceeded, branching must stop")
	}
	if got := c.SuggestNextAction(); got.Suggestion != "show_examples" {
		t.Fatalf("expected show_examples, got %+v", got)
	}
}

func TestNonExplorationEventsDoNotDeepen(t *testing.T) {
	c := NewController(2, 10)
	c.TrackNavigation("keep", KindSelection)
	c.TrackNavigation("tweak", KindRefinement)
	if c.Depth() != 0 {
		t.Fatalf("selection/refinement must not deepen, got depth %d", c.Depth())
	}
	if c.Interactions() != 2 {
		t.Fatalf("every event consumes interaction budget, got %d", c.Interactions())
	}
}

func TestFromStateRoundTrip(t *testing.T) {
	c := NewController(2, 5)
	c.TrackNavigation("a", KindExploration)
	c.TrackNavigation("b", KindSelection)

	restored := FromState(c.State(), 2, 5)
	if restored.Depth() != c.Depth() || restored.Interactions() != c.Interactions() {
		t.Fatalf("rehydrated controller state mismatch")
	}
	if len(restored.State().Events) != 2 {
		t.Fatalf("expected events preserved, got %d", len(restored.State().Events))
	}
}

func TestStateReturnsCopy(t *testing.T) {
	c := NewController(2, 5)
	c.TrackNavigation("a", KindExploration)
	snap := c.State()
	snap.Events[0].Choice = "mutated"
	if c.State().Events[0].Choice == "mutated" {
		t.Fatalf("State() must return a defensive copy of events")
	}
}

func TestButtonOptionsFollowDepthPolicy(t *testing.T) {
	c := NewController(1, 5)
	open := c.ButtonOptions()
	if len(open) != 3 {
		t.Fatalf("expected 3 options while branching allowed, got %d", len(open))
	}
	if open[0].Rank != "primary" || open[1].Action != "explore_more" {
		t.Fatalf("unexpected open-state options: %+v", open)
	}

	c.TrackNavigation("branch", KindExploration)
	converged := c.ButtonOptions()
	if len(converged) != 2 {
		t.Fatalf("expected 2 options at ceiling, got %d", len(converged))
	}
	for _, opt := range converged {
		if opt.Action == "explore_more" {
			t.Fatalf("explore_more must not be offered at the ceiling")
		}
	}
	if converged[0].Action != "show_examples" {
		t.Fatalf("primary action at ceiling must be show_examples, got %+v", converged[0])
	}
}

func TestFromStateHonorsConfiguredLimits(t *testing.T) {
	state := domain.NavState{Depth: 3, Interactions: 3}
	if FromState(state, 4, 10).ShouldShowMoreOptions() != true {
		t.Fatalf("depth 3 under max 4 should allow branching")
	}
	if FromState(state, 3, 10).ShouldShowMoreOptions() != false {
		t.Fatalf("depth 3 at max 3 should stop branching")
	}
}
