package intent

import (
	"math"
	"strings"
)

const baseScore = 0.5

// Structural adjustment weights.
const (
	questionMarkBoost = 3.0
	longMessageBoost  = 2.0 // word count > longMessageWords boosts exploring
	shortMessageBoost = 2.0 // word count < shortMessageWords boosts confirming
	multiClauseBoost  = 1.5
	listBoost         = 1.5
	fillerBoost       = 1.0
	manySentenceBoost = 1.0

	longMessageWords  = 50
	shortMessageWords = 5
)

// Context multipliers.
const (
	introExploringFactor    = 1.3
	introQuestioningFactor  = 1.2
	closingConfirmingFactor = 1.3
	closingRefiningFactor   = 1.3
	answeringDampFactor     = 0.6 // AI just asked: user is answering, not asking
	answeringSubmitFactor   = 1.4
)

// Classifier scores messages against the intent categories. It is pure with
// respect to its inputs; identical (message, context) pairs always produce
// identical classifications.
type Classifier struct {
	confidenceThreshold int
}

func NewClassifier(confidenceThreshold int) *Classifier {
	return &Classifier{confidenceThreshold: confidenceThreshold}
}

// Classify never fails: an empty or whitespace-only message classifies as
// Uncertain with zero confidence.
func (c *Classifier) Classify(message string, ctx Context) Classification {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return Classification{Intent: Uncertain, Confidence: 0, SuggestedResponseMode: ModeClarify}
	}

	feats := extractFeatures(trimmed)
	scores := map[Kind]float64{}
	for _, k := range Kinds {
		scores[k] = baseScore
	}

	for _, rule := range lexicalRules {
		if rule.Pattern.MatchString(trimmed) {
			scores[rule.Kind] += rule.Weight
		}
	}

	applyStructural(scores, feats)
	applyContext(scores, ctx)

	winner, total := Uncertain, 0.0
	best := math.Inf(-1)
	for _, k := range Kinds {
		total += scores[k]
		if scores[k] > best {
			best = scores[k]
			winner = k
		}
	}

	confidence := 0
	if total > 0 {
		confidence = int(math.Round(best / total * 100))
	}

	return Classification{
		Intent:                winner,
		Confidence:            confidence,
		SuggestedResponseMode: c.responseMode(winner, confidence),
	}
}

type features struct {
	wordCount     int
	sentenceCount int
	endsQuestion  bool
	multiClause   bool
	fillerOpen    bool
	hasList       bool
}

func extractFeatures(msg string) features {
	f := features{
		wordCount:    len(strings.Fields(msg)),
		endsQuestion: strings.HasSuffix(msg, "?"),
		fillerOpen:   fillerOpeners.MatchString(msg),
		hasList:      listMarkers.MatchString(msg),
	}
	f.sentenceCount = countSentences(msg)
	f.multiClause = len(multiClauseConnectors.FindAllString(msg, 2)) >= 2
	return f
}

func countSentences(msg string) int {
	n := 0
	for _, r := range msg {
		switch r {
		case '.', '!', '?':
			n++
		}
	}
	if n == 0 {
		n = 1
	}
	return n
}

func applyStructural(scores map[Kind]float64, f features) {
	if f.endsQuestion {
		scores[Questioning] += questionMarkBoost
	}
	if f.wordCount > longMessageWords {
		scores[Exploring] += longMessageBoost
	}
	if f.wordCount < shortMessageWords {
		scores[Confirming] += shortMessageBoost
	}
	if f.multiClause {
		scores[Elaborating] += multiClauseBoost
	}
	if f.hasList {
		scores[Submitting] += listBoost
	}
	if f.fillerOpen {
		scores[Uncertain] += fillerBoost
	}
	if f.sentenceCount >= 3 {
		scores[Elaborating] += manySentenceBoost
	}
}

func applyContext(scores map[Kind]float64, ctx Context) {
	switch ctx.Step {
	case StepIntro:
		scores[Exploring] *= introExploringFactor
		scores[Questioning] *= introQuestioningFactor
	case StepClosing:
		scores[Confirming] *= closingConfirmingFactor
		scores[Refining] *= closingRefiningFactor
	}

	if bonuses, ok := previousIntentBonus[ctx.PreviousIntent]; ok {
		for kind, bonus := range bonuses {
			scores[kind] += bonus
		}
	}

	if ctx.AIAskedQuestion {
		scores[Questioning] *= answeringDampFactor
		scores[Submitting] *= answeringSubmitFactor
	}
}

func (c *Classifier) responseMode(winner Kind, confidence int) ResponseMode {
	if confidence < c.confidenceThreshold {
		return ModeClarify
	}
	switch winner {
	case Exploring, Elaborating:
		return ModeEngage
	case Questioning, Refining:
		return ModeGuide
	case Submitting, Confirming:
		return ModeConfirm
	default:
		return ModeClarify
	}
}
