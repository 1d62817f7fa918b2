package acceptance

import (
	"strings"
	"testing"
)

var allArchetypes = []Archetype{ArchetypeConcept, ArchetypeQuestion, ArchetypeChallenge, ArchetypeProcess}

func TestEmptyInputRejectsForEveryArchetype(t *testing.T) {
	for _, a := range allArchetypes {
		for _, input := range []string{"", "   ", "\t\n"} {
			res := Evaluate(a, input, nil)
			if res.IsAcceptable {
				t.Fatalf("%s: empty input %q must be rejected", a, input)
			}
			if res.Message == "" {
				t.Fatalf("%s: rejection must carry coaching text", a)
			}
		}
	}
}

func TestNonEmptyInputAlwaysAccepts(t *testing.T) {
	// Monotonic permissiveness: no heuristic may revoke acceptance of a
	// non-empty answer.
	inputs := []string{
		"x",
		"sustainability",
		"make a poster",
		"Is recycling good",
		"The Civil War, WWII, Cold War",
		strings.Repeat("a very long answer ", 40),
	}
	for _, a := range allArchetypes {
		for _, input := range inputs {
			res := Evaluate(a, input, nil)
			if !res.IsAcceptable {
				t.Fatalf("%s: non-empty input %q must be acceptable", a, input)
			}
		}
	}
}

func TestConceptActivityPhrasingAcceptsWithCoaching(t *testing.T) {
	res := Evaluate(ArchetypeConcept, "make a poster about recycling", nil)
	if !res.IsAcceptable {
		t.Fatalf("activity phrasing must still be acceptable")
	}
	if !res.NeedsRefinement {
		t.Fatalf("activity phrasing should offer refinement")
	}
	if res.Message == "" {
		t.Fatalf("refinement offer must carry coaching text")
	}
}

func TestConceptThemeAcceptsCleanly(t *testing.T) {
	res := Evaluate(ArchetypeConcept, "systems and sustainability", nil)
	if !res.IsAcceptable || res.NeedsRefinement {
		t.Fatalf("clean theme should accept without refinement, got %+v", res)
	}
}

func TestQuestionClosedEndedOffersRefinement(t *testing.T) {
	res := Evaluate(ArchetypeQuestion, "Is recycling important?", nil)
	if !res.IsAcceptable {
		t.Fatalf("closed question must still be acceptable")
	}
	if !res.NeedsRefinement {
		t.Fatalf("closed question should offer refinement")
	}
}

func TestQuestionOpenEndedAcceptsCleanly(t *testing.T) {
	res := Evaluate(ArchetypeQuestion, "How might we reduce waste in our school?", nil)
	if !res.IsAcceptable || res.NeedsRefinement {
		t.Fatalf("open question should accept cleanly, got %+v", res)
	}
}

func TestChallengeWithoutAudienceOffersRefinement(t *testing.T) {
	res := Evaluate(ArchetypeChallenge, "Design a compost system", nil)
	if !res.IsAcceptable || !res.NeedsRefinement {
		t.Fatalf("challenge without audience should accept-and-coach, got %+v", res)
	}
}

func TestChallengeMessageReferencesBigIdea(t *testing.T) {
	res := Evaluate(ArchetypeChallenge, "Design a compost system", map[string]string{"big_idea": "sustainability"})
	if !strings.Contains(res.Message, "sustainability") {
		t.Fatalf("expected coaching text to reference upstream big idea, got %q", res.Message)
	}
}

func TestChallengeCompleteAcceptsCleanly(t *testing.T) {
	res := Evaluate(ArchetypeChallenge, "Design a compost system for the school cafeteria", nil)
	if !res.IsAcceptable || res.NeedsRefinement {
		t.Fatalf("complete challenge should accept cleanly, got %+v", res)
	}
}

func TestProcessContentListAcceptsAndCoaches(t *testing.T) {
	res := Evaluate(ArchetypeProcess, "The Civil War, WWII, Cold War", nil)
	if !res.IsAcceptable {
		t.Fatalf("content list must still be acceptable")
	}
	if !res.NeedsRefinement {
		t.Fatalf("content list should offer to map into phases")
	}
}

func TestProcessProgressionAcceptsCleanly(t *testing.T) {
	res := Evaluate(ArchetypeProcess, "First students research local waste, then they build prototypes, finally they present to the city council.", nil)
	if !res.IsAcceptable || res.NeedsRefinement {
		t.Fatalf("progression should accept cleanly, got %+v", res)
	}
}

func TestForSlotMapping(t *testing.T) {
	cases := map[string]Archetype{
		"big_idea":           ArchetypeConcept,
		"essential_question": ArchetypeQuestion,
		"challenge":          ArchetypeChallenge,
		"phases":             ArchetypeProcess,
		"milestones":         ArchetypeProcess,
		"unknown_slot":       ArchetypeProcess,
	}
	for slot, want := range cases {
		if got := ForSlot(slot); got != want {
			t.Fatalf("ForSlot(%q) = %s, want %s", slot, got, want)
		}
	}
}
