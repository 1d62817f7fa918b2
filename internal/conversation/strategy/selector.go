// Package strategy picks coaching copy, example suggestions, and scaffolding
// intensity keyed by subject domain, age band, and educator experience. It is
// a stateless lookup/templating layer: every call builds its result fresh, so
// concurrent sessions never share state.
package strategy

import (
	"fmt"
	"strings"

	"github.com/sundale/projectcoach-backend/internal/conversation/intent"
)

// SubjectDomain buckets free-text subject names into a small fixed taxonomy.
type SubjectDomain string

const (
	DomainSTEM       SubjectDomain = "stem"
	DomainHumanities SubjectDomain = "humanities"
	DomainArts       SubjectDomain = "arts"
	DomainGeneral    SubjectDomain = "general"
)

// AgeBand buckets free-text age descriptions.
type AgeBand string

const (
	BandElementary AgeBand = "elementary"
	BandMiddle     AgeBand = "middle"
	BandHigh       AgeBand = "high"
	BandCollege    AgeBand = "college"
	BandAdult      AgeBand = "adult"
)

// Strategy is the selector's output for one step: example suggestions
// templated with the live subject, and a coaching copy template.
type Strategy struct {
	Suggestions  []string `json:"suggestions"`
	CopyTemplate string   `json:"copy_template"`
}

// ValidationCopy holds the age-band-specific feedback phrasings.
type ValidationCopy struct {
	TooAbstract string `json:"too_abstract"`
	TooComplex  string `json:"too_complex"`
	GoodFit     string `json:"good_fit"`
}

// Scaffolding decides how much unsolicited help goes into AI prompts for a
// given educator experience level.
type Scaffolding struct {
	GuidanceLevel string `json:"guidance_level"` // high|moderate|light
	ExampleCount  int    `json:"example_count"`
	Pacing        string `json:"pacing"` // step-by-step|guided|open
}

var stemKeywords = []string{"math", "science", "biology", "chemistry", "physics", "engineering", "technology", "computer", "coding", "robotics", "stem", "statistics", "astronomy", "environmental"}

var humanitiesKeywords = []string{"history", "social studies", "english", "language", "literature", "civics", "geography", "economics", "government", "writing", "philosophy", "reading"}

var artsKeywords = []string{"art", "music", "drama", "theater", "theatre", "dance", "design", "photography", "film", "media", "creative"}

// ClassifySubject matches the subject text against the domain taxonomy;
// anything unmatched falls into the general bucket.
func ClassifySubject(subject string) SubjectDomain {
	s := strings.ToLower(subject)
	for _, kw := range stemKeywords {
		if strings.Contains(s, kw) {
			return DomainSTEM
		}
	}
	for _, kw := range humanitiesKeywords {
		if strings.Contains(s, kw) {
			return DomainHumanities
		}
	}
	for _, kw := range artsKeywords {
		if strings.Contains(s, kw) {
			return DomainArts
		}
	}
	return DomainGeneral
}

// ClassifyAgeBand matches an age/grade description. Ambiguous descriptions
// default to the middle band.
func ClassifyAgeBand(desc string) AgeBand {
	s := strings.ToLower(desc)
	switch {
	case containsAny(s, "elementary", "primary", "k-5", "k5", "grade 1", "grade 2", "grade 3", "grade 4", "grade 5", "ages 5", "ages 6", "ages 7", "ages 8", "ages 9", "ages 10"):
		return BandElementary
	case containsAny(s, "high school", "secondary", "grade 9", "grade 10", "grade 11", "grade 12", "9th", "10th", "11th", "12th", "ages 14", "ages 15", "ages 16", "ages 17"):
		return BandHigh
	case containsAny(s, "college", "university", "undergraduate", "higher ed"):
		return BandCollege
	case containsAny(s, "adult", "professional", "workforce", "corporate"):
		return BandAdult
	default:
		return BandMiddle
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// suggestionTemplates: step -> domain -> example phrases. %s is the live
// subject name.
var suggestionTemplates = map[string]map[SubjectDomain][]string{
	"big_idea": {
		DomainSTEM: {
			"Systems and interactions in %s",
			"How %s shapes the way we solve everyday problems",
			"Patterns and evidence in %s",
		},
		DomainHumanities: {
			"Perspective and voice in %s",
			"How %s helps us understand our community",
			"Change and continuity in %s",
		},
		DomainArts: {
			"Expression and identity through %s",
			"How %s communicates what words cannot",
			"Craft and audience in %s",
		},
		DomainGeneral: {
			"Connections between %s and students' daily lives",
			"How %s helps us make sense of the world",
			"Big questions hiding inside %s",
		},
	},
	"essential_question": {
		DomainSTEM: {
			"How might we use %s to improve life in our community?",
			"Why do patterns in %s matter beyond the classroom?",
			"What makes a solution in %s trustworthy?",
		},
		DomainHumanities: {
			"Whose voices are missing from the story of %s?",
			"How does %s shape who we become?",
			"Why do people disagree about %s?",
		},
		DomainArts: {
			"How does %s change the way an audience feels?",
			"What makes work in %s worth sharing?",
			"How might %s give a voice to our community?",
		},
		DomainGeneral: {
			"How might %s help us solve a real problem nearby?",
			"Why does %s matter to people outside school?",
			"What would change if everyone understood %s?",
		},
	},
	"challenge": {
		DomainSTEM: {
			"Design a working solution that applies %s for a local audience",
			"Build and test a prototype that uses %s to address a community need",
			"Propose an evidence-backed recommendation about %s to local decision makers",
		},
		DomainHumanities: {
			"Curate an exhibit that brings %s to life for your community",
			"Produce a documentary or podcast that shares an untold story from %s",
			"Propose a policy change informed by %s to a real audience",
		},
		DomainArts: {
			"Create an original work in %s for a public showing",
			"Design a performance or installation that uses %s to move an audience",
			"Organize a community showcase built around %s",
		},
		DomainGeneral: {
			"Design a project that puts %s to work for someone outside the classroom",
			"Create a resource that makes %s useful to your community",
			"Plan an event that shares what students learned about %s",
		},
	},
}

// copyTemplates: coaching framing keyed by the user's intent.
var copyTemplates = map[intent.Kind]string{
	intent.Exploring:   "Great instinct to look around before settling. Here are a few directions rooted in %s:",
	intent.Questioning: "Good question. One way to think about it in %s terms:",
	intent.Submitting:  "Thanks, that gives us something concrete to work with for %s.",
	intent.Elaborating: "That extra detail helps. Building on what you said about %s:",
	intent.Confirming:  "Locked in. Here's where that leaves us with %s:",
	intent.Refining:    "Let's reshape it. A few alternate takes on %s:",
	intent.Uncertain:   "No pressure to have it figured out. Some starting points from %s:",
}

// SelectStrategy returns suggestions and coaching copy for the current step,
// templated with the live subject name.
func SelectStrategy(step string, kind intent.Kind, subject, ageDesc string) Strategy {
	domain := ClassifySubject(subject)
	name := strings.TrimSpace(subject)
	if name == "" {
		name = "your subject"
	}

	stepTemplates, ok := suggestionTemplates[step]
	if !ok {
		stepTemplates = suggestionTemplates["big_idea"]
	}
	templates, ok := stepTemplates[domain]
	if !ok {
		templates = stepTemplates[DomainGeneral]
	}

	suggestions := make([]string, 0, len(templates))
	for _, tpl := range templates {
		suggestions = append(suggestions, fmt.Sprintf(tpl, name))
	}

	copyTpl, ok := copyTemplates[kind]
	if !ok {
		copyTpl = copyTemplates[intent.Uncertain]
	}

	return Strategy{
		Suggestions:  suggestions,
		CopyTemplate: fmt.Sprintf(copyTpl, name),
	}
}

// ValidationCopyFor returns the feedback phrasing tuned to an age band.
func ValidationCopyFor(ageDesc string) ValidationCopy {
	switch ClassifyAgeBand(ageDesc) {
	case BandElementary:
		return ValidationCopy{
			TooAbstract: "That idea might float over younger students' heads. Try anchoring it in something they can see or touch.",
			TooComplex:  "That's a lot of moving parts for this age. One clear action they can own works better.",
			GoodFit:     "That fits this age well: concrete, hands-on, and easy to picture.",
		}
	case BandHigh:
		return ValidationCopy{
			TooAbstract: "High schoolers can handle abstraction, but they'll want to see why it matters. Tie it to a real stake.",
			TooComplex:  "Ambitious scope. Consider trimming it to what a team can genuinely finish in your timeline.",
			GoodFit:     "That's a strong fit: meaty enough to take seriously, real enough to care about.",
		}
	case BandCollege:
		return ValidationCopy{
			TooAbstract: "Push it toward a defensible claim or deliverable; abstraction alone won't sustain the project.",
			TooComplex:  "Scope it to what's achievable within the term, or stage it across checkpoints.",
			GoodFit:     "Solid fit for this level: rigorous and open to independent direction.",
		}
	case BandAdult:
		return ValidationCopy{
			TooAbstract: "Adult learners will ask \"so what?\" early. Ground it in a workplace or community outcome.",
			TooComplex:  "Keep respect for their time: trim to the highest-leverage piece.",
			GoodFit:     "Good fit: practical, transferable, and worth their time.",
		}
	default:
		return ValidationCopy{
			TooAbstract: "Middle schoolers engage best when the idea touches their world. Add a concrete hook.",
			TooComplex:  "That might be a stretch at this age. Break it into one clear challenge they can rally around.",
			GoodFit:     "Nice fit for middle school: real enough to matter, doable enough to finish.",
		}
	}
}

// CrossSubjectPrompts produces connection prompts when two subjects are in
// play.
func CrossSubjectPrompts(subjectA, subjectB string) []string {
	a := strings.TrimSpace(subjectA)
	b := strings.TrimSpace(subjectB)
	if a == "" || b == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("Where does %s show up inside %s, and vice versa?", a, b),
		fmt.Sprintf("What problem needs both %s and %s to solve?", a, b),
		fmt.Sprintf("How could students use %s to communicate what they discovered in %s?", b, a),
	}
}

// ScaffoldingFor maps an educator experience label to scaffolding intensity.
// Unknown labels get the novice treatment: more help is the safer default.
func ScaffoldingFor(level string) Scaffolding {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "expert":
		return Scaffolding{GuidanceLevel: "light", ExampleCount: 1, Pacing: "open"}
	case "intermediate":
		return Scaffolding{GuidanceLevel: "moderate", ExampleCount: 2, Pacing: "guided"}
	default:
		return Scaffolding{GuidanceLevel: "high", ExampleCount: 3, Pacing: "step-by-step"}
	}
}
