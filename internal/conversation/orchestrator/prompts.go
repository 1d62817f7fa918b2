package orchestrator

import (
	"fmt"
	"strings"

	"github.com/sundale/projectcoach-backend/internal/config"
	"github.com/sundale/projectcoach-backend/internal/conversation/acceptance"
	"github.com/sundale/projectcoach-backend/internal/conversation/intent"
	"github.com/sundale/projectcoach-backend/internal/conversation/navigation"
	"github.com/sundale/projectcoach-backend/internal/conversation/strategy"
	"github.com/sundale/projectcoach-backend/internal/domain"
)

// stageGoals is the one-line framing the model gets for each stage.
var stageGoals = map[domain.Stage]string{
	domain.StageIdeation:        "help the educator land a Big Idea, an Essential Question, and an authentic Challenge",
	domain.StageLearningJourney: "help the educator map how the student work unfolds: phases and milestones",
	domain.StageDeliverables:    "help the educator define what students produce and how it is assessed",
	domain.StageComplete:        "celebrate the finished design and offer refinement entry points",
}

func buildSystemPrompt(session *domain.ConversationSession, schema config.StageSchema, scaffold strategy.Scaffolding) string {
	var b strings.Builder

	b.WriteString("You are a project-design coach guiding an educator through a project-based learning wizard.\n")
	fmt.Fprintf(&b, "Current stage: %s. Your goal: %s.\n", session.Stage, stageGoals[session.Stage])
	fmt.Fprintf(&b, "Currently collecting: %s.\n", session.CurrentSlot)
	if session.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s. Age group: %s.\n", session.Subject, session.AgeGroup)
	}
	fmt.Fprintf(&b, "Scaffolding: %s guidance, about %d examples, %s pacing.\n",
		scaffold.GuidanceLevel, scaffold.ExampleCount, scaffold.Pacing)

	valCopy := strategy.ValidationCopyFor(session.AgeGroup)
	b.WriteString("When judging fit for this age group, phrase feedback along these lines:\n")
	fmt.Fprintf(&b, "- too abstract: %s\n- too complex: %s\n- good fit: %s\n",
		valCopy.TooAbstract, valCopy.TooComplex, valCopy.GoodFit)

	b.WriteString("\nRespond with a single JSON object containing exactly these fields: ")
	b.WriteString(strings.Join(schema.RequiredFields, ", "))
	b.WriteString(".\n")
	fmt.Fprintf(&b, "currentStage must be %q. isStageComplete must be a boolean. ", session.Stage)
	b.WriteString("suggestions must be an array of short strings or null. Keep chatResponse warm, specific, and brief.\n")

	return b.String()
}

func buildUserPrompt(
	session *domain.ConversationSession,
	userText string,
	cls intent.Classification,
	acc *acceptance.Result,
	strat strategy.Strategy,
	nav navigation.Suggestion,
	recent []*domain.Turn,
) string {
	var b strings.Builder

	if captured := formatCaptured(session); captured != "" {
		b.WriteString("Confirmed so far:\n")
		b.WriteString(captured)
		b.WriteString("\n")
	}

	if len(recent) > 0 {
		b.WriteString("Recent exchange (newest first):\n")
		for _, t := range recent {
			if t.UserText != "" {
				fmt.Fprintf(&b, "- educator: %s\n", t.UserText)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "The educator's intent reads as %s (confidence %d). Respond in %s mode.\n",
		cls.Intent, cls.Confidence, cls.SuggestedResponseMode)
	if strat.CopyTemplate != "" {
		fmt.Fprintf(&b, "Suggested opening framing: %s\n", strat.CopyTemplate)
	}
	if acc != nil && acc.Message != "" {
		fmt.Fprintf(&b, "Evaluation of their submission, to fold into your reply: %s\n", acc.Message)
	}

	if subjects := splitSubjects(session.Subject); len(subjects) >= 2 {
		prompts := strategy.CrossSubjectPrompts(subjects[0], subjects[1])
		if len(prompts) > 0 {
			fmt.Fprintf(&b, "This project spans subjects; connection prompts worth weaving in: %s\n", strings.Join(prompts, " | "))
		}
	}

	if nav.Suggestion == "show_examples" {
		b.WriteString("The educator has explored enough branches on this step. Do not offer more open-ended directions; present concrete examples and ask them to choose or write their own.\n")
		if len(strat.Suggestions) > 0 {
			fmt.Fprintf(&b, "Example options to present: %s\n", strings.Join(strat.Suggestions, " | "))
		}
	} else if len(strat.Suggestions) > 0 {
		fmt.Fprintf(&b, "If offering suggestions, draw from: %s\n", strings.Join(strat.Suggestions, " | "))
	}

	fmt.Fprintf(&b, "\nEducator message: %s\n", userText)

	return b.String()
}

// splitSubjects breaks a combined subject description ("Science and Art",
// "History, Music") into its parts.
func splitSubjects(subject string) []string {
	raw := strings.FieldsFunc(subject, func(r rune) bool {
		return r == ',' || r == '/' || r == '+' || r == '&'
	})
	var parts []string
	for _, p := range raw {
		for _, q := range strings.Split(p, " and ") {
			if q = strings.TrimSpace(q); q != "" {
				parts = append(parts, q)
			}
		}
	}
	return parts
}

func formatCaptured(session *domain.ConversationSession) string {
	var b strings.Builder
	for slot, v := range session.CapturedValues {
		if s, ok := v.(string); ok && s != "" {
			fmt.Fprintf(&b, "- %s: %s\n", slot, s)
		}
	}
	return b.String()
}
