package intent

import "regexp"

// lexicalRule maps one pattern to a category and a fixed weight. The table is
// flat so tests can enumerate every rule.
type lexicalRule struct {
	Kind    Kind
	Pattern *regexp.Regexp
	Weight  float64
}

var lexicalRules = []lexicalRule{
	// exploring: open-ended ideation language
	{Exploring, regexp.MustCompile(`(?i)\b(what if|how might|imagine|wonder(ing)?|possibilit(y|ies)|brainstorm|explore|curious|maybe we could)\b`), 2.5},
	{Exploring, regexp.MustCompile(`(?i)\b(some ideas?|other options?|directions?|angles?)\b`), 1.5},

	// questioning: asking for information or guidance
	{Questioning, regexp.MustCompile(`(?i)^\s*(what|how|why|when|where|who|which)\b`), 2.0},
	{Questioning, regexp.MustCompile(`(?i)^\s*(can|could|would|should|do|does|did|is|are|will)\b`), 1.5},
	{Questioning, regexp.MustCompile(`(?i)\b(help me understand|not sure (what|how|why)|confused about)\b`), 1.5},

	// submitting: offering a concrete answer for the current slot
	{Submitting, regexp.MustCompile(`(?i)^\s*(my|our|the) (big idea|idea|question|challenge|answer|topic|theme) (is|would be)\b`), 3.0},
	{Submitting, regexp.MustCompile(`(?i)^\s*(i|we)('d| would)? (want|think|choose|pick|propose|plan|like)\b`), 2.0},
	{Submitting, regexp.MustCompile(`(?i)^\s*(students|learners|the class) will\b`), 2.5},
	{Submitting, regexp.MustCompile(`(?i)^\s*here('s| is)\b`), 2.0},

	// elaborating: extending or justifying a prior answer
	{Elaborating, regexp.MustCompile(`(?i)\b(because|since|for example|for instance|in addition|specifically|in other words|building on)\b`), 1.5},
	{Elaborating, regexp.MustCompile(`(?i)\b(and then|which means|so that)\b`), 1.0},

	// confirming: accepting what was offered
	{Confirming, regexp.MustCompile(`(?i)^\s*(yes|yeah|yep|sure|ok(ay)?|sounds good|perfect|great|exactly|that works|keep it)\b`), 3.0},
	{Confirming, regexp.MustCompile(`(?i)\b(i('m| am) (happy|good) with|looks good|that's (right|it)|let's go with)\b`), 2.5},

	// refining: asking to change something already captured
	{Refining, regexp.MustCompile(`(?i)\b(instead|rather|actually|change|tweak|adjust|revise|rework|refine|swap|modify)\b`), 2.0},
	{Refining, regexp.MustCompile(`(?i)^\s*(no|nope|not (quite|really|exactly))\b`), 2.0},
	{Refining, regexp.MustCompile(`(?i)\b(can we make it|what about changing)\b`), 1.5},

	// uncertain: hedging, filler, explicit confusion
	{Uncertain, regexp.MustCompile(`(?i)^\s*(um+|uh+|hmm+|i guess|i don'?t know|idk|no idea|not sure)\b`), 2.0},
	{Uncertain, regexp.MustCompile(`(?i)\b(kind of|sort of)\b`), 1.0},
}

// fillerOpeners matches messages that open with hedging filler.
var fillerOpeners = regexp.MustCompile(`(?i)^\s*(um+|uh+|hmm+|well,|so,|like,|i mean)\b`)

// listMarkers matches bullet or numbered list structure.
var listMarkers = regexp.MustCompile(`(?m)^\s*([-*•]|\d+[.)])\s+`)

// multiClauseConnectors matches connectors that join independent clauses.
var multiClauseConnectors = regexp.MustCompile(`(?i)\b(and|but|because|however|although|while|whereas|so that)\b`)

// previousIntentBonus nudges current scores based on the prior turn's intent.
// After a question, users tend to elaborate or keep exploring; after an
// exploration, a concrete submission often follows.
var previousIntentBonus = map[Kind]map[Kind]float64{
	Questioning: {Elaborating: 1.0, Exploring: 0.5},
	Exploring:   {Submitting: 0.75, Elaborating: 0.5},
	Elaborating: {Submitting: 0.75},
	Submitting:  {Confirming: 0.75, Refining: 0.5},
	Refining:    {Submitting: 0.75},
	Confirming:  {Exploring: 0.5},
}
