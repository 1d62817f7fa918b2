package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sundale/projectcoach-backend/internal/platform/envutil"
)

// LengthBudget is a (min,max) word-count window for one response context.
type LengthBudget struct {
	MinWords int `yaml:"min_words"`
	MaxWords int `yaml:"max_words"`
}

// StageSchema describes what the engine expects of one wizard stage: which
// slots must be captured before the stage may complete, which envelope fields
// the AI reply must carry, and the canned message served when the AI reply is
// unusable.
type StageSchema struct {
	RequiredSlots   []string `yaml:"required_slots"`
	RequiredFields  []string `yaml:"required_fields"`
	FallbackMessage string   `yaml:"fallback_message"`
}

// Engine holds every tunable the conversation engine reads. Control flow in
// the engine packages never depends on which source a value came from.
type Engine struct {
	MaxDepth            int                     `yaml:"max_depth"`
	MaxInteractions     int                     `yaml:"max_interactions"`
	ConfidenceThreshold int                     `yaml:"confidence_threshold"`
	LengthBudgets       map[string]LengthBudget `yaml:"length_budgets"`
	Stages              map[string]StageSchema  `yaml:"stages"`
}

// DefaultEngine returns the compiled-in engine configuration.
func DefaultEngine() Engine {
	return Engine{
		MaxDepth:            2,
		MaxInteractions:     5,
		ConfidenceThreshold: 50,
		LengthBudgets: map[string]LengthBudget{
			"confirmation":  {MinWords: 5, MaxWords: 40},
			"coaching":      {MinWords: 15, MaxWords: 120},
			"brainstorming": {MinWords: 30, MaxWords: 250},
			"fallback":      {MinWords: 5, MaxWords: 80},
		},
		Stages: map[string]StageSchema{
			"ideation": {
				RequiredSlots:   []string{"big_idea", "essential_question", "challenge"},
				RequiredFields:  []string{"interactionType", "currentStage", "chatResponse", "isStageComplete", "suggestions"},
				FallbackMessage: "Let's keep shaping your project idea. What theme or concept do you want students to explore?",
			},
			"learning_journey": {
				RequiredSlots:   []string{"phases", "milestones"},
				RequiredFields:  []string{"interactionType", "currentStage", "chatResponse", "isStageComplete", "suggestions", "curriculumDraft"},
				FallbackMessage: "Let's keep mapping the learning journey. How should the work unfold from kickoff to showcase?",
			},
			"deliverables": {
				RequiredSlots:   []string{"deliverables", "assessment_methods"},
				RequiredFields:  []string{"interactionType", "currentStage", "chatResponse", "isStageComplete", "suggestions", "newAssignment", "assessmentMethods"},
				FallbackMessage: "Let's keep defining what students will produce and how you'll assess it.",
			},
			"complete": {
				RequiredSlots:   []string{},
				RequiredFields:  []string{"interactionType", "currentStage", "chatResponse", "isStageComplete"},
				FallbackMessage: "Your project design is complete. You can revisit any stage to refine it.",
			},
		},
	}
}

// LoadEngine builds the engine config from defaults, an optional YAML file
// (ENGINE_CONFIG_PATH or the explicit path argument), then env overrides for
// the scalar limits. A missing file is not an error; a malformed file is.
func LoadEngine(path string) (Engine, error) {
	cfg := DefaultEngine()

	if path == "" {
		path = envutil.String("ENGINE_CONFIG_PATH", "")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read engine config %s: %w", path, err)
			}
		} else {
			var file Engine
			if err := yaml.Unmarshal(raw, &file); err != nil {
				return cfg, fmt.Errorf("parse engine config %s: %w", path, err)
			}
			cfg = mergeEngine(cfg, file)
		}
	}

	cfg.MaxDepth = envutil.Int("ENGINE_MAX_DEPTH", cfg.MaxDepth)
	cfg.MaxInteractions = envutil.Int("ENGINE_MAX_INTERACTIONS", cfg.MaxInteractions)
	cfg.ConfidenceThreshold = envutil.Int("ENGINE_CONFIDENCE_THRESHOLD", cfg.ConfidenceThreshold)

	return cfg, cfg.validate()
}

func mergeEngine(base, over Engine) Engine {
	if over.MaxDepth > 0 {
		base.MaxDepth = over.MaxDepth
	}
	if over.MaxInteractions > 0 {
		base.MaxInteractions = over.MaxInteractions
	}
	if over.ConfidenceThreshold > 0 {
		base.ConfidenceThreshold = over.ConfidenceThreshold
	}
	for name, b := range over.LengthBudgets {
		base.LengthBudgets[name] = b
	}
	for name, s := range over.Stages {
		cur, ok := base.Stages[name]
		if !ok {
			base.Stages[name] = s
			continue
		}
		if len(s.RequiredSlots) > 0 {
			cur.RequiredSlots = s.RequiredSlots
		}
		if len(s.RequiredFields) > 0 {
			cur.RequiredFields = s.RequiredFields
		}
		if s.FallbackMessage != "" {
			cur.FallbackMessage = s.FallbackMessage
		}
		base.Stages[name] = cur
	}
	return base
}

func (e Engine) validate() error {
	if e.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be >= 1, got %d", e.MaxDepth)
	}
	if e.MaxInteractions < e.MaxDepth {
		return fmt.Errorf("max_interactions (%d) must be >= max_depth (%d)", e.MaxInteractions, e.MaxDepth)
	}
	if e.ConfidenceThreshold < 0 || e.ConfidenceThreshold > 100 {
		return fmt.Errorf("confidence_threshold must be in [0,100], got %d", e.ConfidenceThreshold)
	}
	for name, b := range e.LengthBudgets {
		if b.MaxWords <= 0 || b.MinWords < 0 || b.MinWords > b.MaxWords {
			return fmt.Errorf("length budget %q has invalid window (%d,%d)", name, b.MinWords, b.MaxWords)
		}
	}
	for name, s := range e.Stages {
		if s.FallbackMessage == "" {
			return fmt.Errorf("stage %q missing fallback_message", name)
		}
		if len(s.RequiredFields) == 0 {
			return fmt.Errorf("stage %q missing required_fields", name)
		}
	}
	return nil
}

// Budget returns the named length budget, falling back to the coaching
// budget when the context name is unknown.
func (e Engine) Budget(context string) LengthBudget {
	if b, ok := e.LengthBudgets[context]; ok {
		return b
	}
	return e.LengthBudgets["coaching"]
}

// Stage returns the schema for a stage name, defaulting to the ideation
// schema so callers always receive a usable schema.
func (e Engine) Stage(name string) StageSchema {
	if s, ok := e.Stages[name]; ok {
		return s
	}
	return e.Stages["ideation"]
}
