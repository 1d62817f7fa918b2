// Package acceptance decides whether a candidate answer for a conversational
// slot is good enough to advance past. The bias is toward forward progress:
// only a literally empty answer is rejected, and a thin answer is accepted
// with an offer to refine rather than blocked. The quality heuristics are
// small fixed phrase lists tuned to English classroom phrasing; they are
// approximate by design and will sometimes misjudge.
package acceptance

import (
	"fmt"
	"regexp"
	"strings"
)

// Result reports the decision for one candidate answer. IsAcceptable gates
// whether the conversation may advance; NeedsRefinement additionally offers a
// keep-as-is vs refine choice without blocking.
type Result struct {
	IsAcceptable    bool   `json:"is_acceptable"`
	NeedsRefinement bool   `json:"needs_refinement"`
	Message         string `json:"message"`
}

// Archetype selects which evaluation applies to a slot.
type Archetype string

const (
	ArchetypeConcept   Archetype = "concept"   // big idea: a theme, not an activity
	ArchetypeQuestion  Archetype = "question"  // essential question: open-ended
	ArchetypeChallenge Archetype = "challenge" // action challenge: verb + audience
	ArchetypeProcess   Archetype = "process"   // journey slots: how work unfolds
)

// ForSlot maps a slot name to its archetype. Unknown slots evaluate as
// process slots, the most permissive archetype.
func ForSlot(slot string) Archetype {
	switch slot {
	case "big_idea":
		return ArchetypeConcept
	case "essential_question":
		return ArchetypeQuestion
	case "challenge":
		return ArchetypeChallenge
	default:
		return ArchetypeProcess
	}
}

// activityPhrases flags a big idea phrased as an activity instead of a theme.
var activityPhrases = []string{
	"make a", "build a", "create a", "design a poster", "do a project",
	"field trip", "worksheet", "presentation about", "an activity",
}

// closedOpeners flags an essential question that invites a yes/no answer.
var closedOpeners = regexp.MustCompile(`(?i)^\s*(is|are|was|were|do|does|did|can|could|will|would|should|has|have)\b`)

var interrogativeOpeners = regexp.MustCompile(`(?i)^\s*(what|how|why|when|where|who|which|in what ways?)\b`)

// actionVerbs is the low-bar lexical marker for a challenge slot.
var actionVerbs = regexp.MustCompile(`(?i)\b(design|create|build|develop|launch|organize|produce|plan|propose|prototype|solve|improve|redesign|compose|curate)\b`)

// audienceMarkers hints that a challenge names who the work is for.
var audienceMarkers = regexp.MustCompile(`(?i)\b(for|community|school|families|parents|neighbors|local|city|town|younger|peers|audience|visitors|residents)\b`)

// processMarkers hints that a journey answer describes how work unfolds
// rather than listing content to cover.
var processMarkers = regexp.MustCompile(`(?i)\b(first|then|next|finally|begin|start|phase|week|day|research|investigate|draft|develop|build|revise|present|share|reflect)\b`)

// Evaluate dispatches to the archetype's evaluation. It never returns a
// result the conversation cannot advance from: IsAcceptable is false only for
// empty input.
func Evaluate(archetype Archetype, candidate string, upstream map[string]string) Result {
	text := strings.TrimSpace(candidate)
	if text == "" {
		return Result{
			IsAcceptable: false,
			Message:      "It looks like that came through empty. Share whatever you have, even a rough phrase, and we'll shape it together.",
		}
	}
	switch archetype {
	case ArchetypeConcept:
		return evaluateConcept(text)
	case ArchetypeQuestion:
		return evaluateQuestion(text)
	case ArchetypeChallenge:
		return evaluateChallenge(text, upstream)
	default:
		return evaluateProcess(text)
	}
}

func evaluateConcept(text string) Result {
	lower := strings.ToLower(text)
	for _, phrase := range activityPhrases {
		if strings.Contains(lower, phrase) {
			return Result{
				IsAcceptable:    true,
				NeedsRefinement: true,
				Message:         fmt.Sprintf("%q sounds like an activity students would do. A Big Idea works best as the theme underneath it. What lasting concept would that activity help students understand? Happy to keep it as-is if you prefer.", text),
			}
		}
	}
	if wordCount(text) < 2 {
		return Result{
			IsAcceptable:    true,
			NeedsRefinement: true,
			Message:         fmt.Sprintf("%q is a solid starting point. Big Ideas usually land with a little more framing, like \"%s and community\" or \"the impact of %s\". Want to expand it, or keep it as-is?", text, lower, lower),
		}
	}
	return Result{
		IsAcceptable: true,
		Message:      fmt.Sprintf("%q works well as a Big Idea. It's conceptual and gives students room to explore.", text),
	}
}

func evaluateQuestion(text string) Result {
	if closedOpeners.MatchString(text) && !interrogativeOpeners.MatchString(text) {
		return Result{
			IsAcceptable:    true,
			NeedsRefinement: true,
			Message:         fmt.Sprintf("%q could be answered with a quick yes or no. Opening it up, maybe starting with \"How might...\" or \"Why does...\", invites deeper inquiry. Keep it as-is, or reshape it?", text),
		}
	}
	if !strings.Contains(text, "?") && !interrogativeOpeners.MatchString(text) {
		return Result{
			IsAcceptable:    true,
			NeedsRefinement: true,
			Message:         fmt.Sprintf("That reads more like a statement than a question. Turning %q into an open question gives students something to chase. Want help rephrasing it?", text),
		}
	}
	return Result{
		IsAcceptable: true,
		Message:      fmt.Sprintf("%q is a strong essential question. It's open-ended and worth investigating.", text),
	}
}

func evaluateChallenge(text string, upstream map[string]string) Result {
	hasVerb := actionVerbs.MatchString(text)
	hasAudience := audienceMarkers.MatchString(text)

	switch {
	case !hasVerb:
		return Result{
			IsAcceptable:    true,
			NeedsRefinement: true,
			Message:         fmt.Sprintf("%q captures the territory. Challenges usually hit harder when they start with what students will do, like design, build, or propose. Keep it, or sharpen the action?", text),
		}
	case !hasAudience:
		msg := fmt.Sprintf("%q has a clear action. Naming who the work serves makes it real for students. Who is the audience?", text)
		if bigIdea := upstream["big_idea"]; bigIdea != "" {
			msg = fmt.Sprintf("%q has a clear action and connects to %q. Naming who the work serves makes it real for students. Who is the audience?", text, bigIdea)
		}
		return Result{
			IsAcceptable:    true,
			NeedsRefinement: true,
			Message:         msg,
		}
	default:
		return Result{
			IsAcceptable: true,
			Message:      fmt.Sprintf("%q is an authentic challenge: students act, and someone real benefits.", text),
		}
	}
}

func evaluateProcess(text string) Result {
	if !processMarkers.MatchString(text) {
		return Result{
			IsAcceptable:    true,
			NeedsRefinement: true,
			Message:         fmt.Sprintf("%q lists what students will cover. The journey works best as how the work unfolds, for example research, then build, then share. Keep it as a content list, or map it into phases?", text),
		}
	}
	return Result{
		IsAcceptable: true,
		Message:      "That maps a workable progression. Students can see how the work moves forward.",
	}
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
