package envelope

import (
	"fmt"
	"strings"

	"github.com/sundale/projectcoach-backend/internal/config"
	"github.com/sundale/projectcoach-backend/internal/domain"
)

// Validator repairs raw AI replies against per-stage schemas. It never
// returns an error: the worst input yields the stage's canonical fallback
// envelope.
type Validator struct {
	cfg config.Engine
}

func NewValidator(cfg config.Engine) *Validator {
	return &Validator{cfg: cfg}
}

// Validate checks raw against the schema for expectedStage, repairing in
// place. IsValid is true only when no repair was needed.
func (v *Validator) Validate(raw any, expectedStage domain.Stage) Result {
	obj, ok := raw.(map[string]any)
	if !ok || obj == nil {
		return Result{
			IsValid:  false,
			Errors:   []string{fmt.Sprintf("response was not an object (got %T); substituted full %s fallback", raw, expectedStage)},
			Envelope: v.Fallback(expectedStage),
		}
	}

	schema := v.cfg.Stage(string(expectedStage))
	out := make(map[string]any, len(schema.RequiredFields))
	var repairs []string

	for _, field := range schema.RequiredFields {
		val, present := obj[field]
		repaired, diags := v.repairField(field, val, present, expectedStage, schema)
		out[field] = repaired
		repairs = append(repairs, diags...)
	}

	return Result{
		IsValid:  len(repairs) == 0,
		Errors:   repairs,
		Envelope: out,
	}
}

// Fallback builds the complete, stage-appropriate fallback envelope served
// when the AI reply is unusable or the AI call itself failed.
func (v *Validator) Fallback(stage domain.Stage) map[string]any {
	schema := v.cfg.Stage(string(stage))
	out := make(map[string]any, len(schema.RequiredFields))
	for _, field := range schema.RequiredFields {
		switch field {
		case "interactionType":
			out[field] = defaultInteractionType(stage)
		case "currentStage":
			out[field] = string(stage)
		case "chatResponse":
			out[field] = schema.FallbackMessage
		case "isStageComplete":
			out[field] = false
		default:
			out[field] = nil
		}
	}
	return out
}

func (v *Validator) repairField(field string, val any, present bool, stage domain.Stage, schema config.StageSchema) (any, []string) {
	switch field {
	case "interactionType":
		s, isStr := val.(string)
		if !present || !isStr || !validInteractionTypes[s] {
			def := defaultInteractionType(stage)
			return def, []string{fmt.Sprintf("interactionType %v invalid or missing; defaulted to %q", val, def)}
		}
		return s, nil

	case "currentStage":
		// Forced regardless of what the AI claimed.
		if s, isStr := val.(string); present && isStr && s == string(stage) {
			return s, nil
		}
		return string(stage), []string{fmt.Sprintf("currentStage %v did not match expected %q; forced", val, stage)}

	case "chatResponse":
		s, isStr := val.(string)
		if !present || !isStr || strings.TrimSpace(s) == "" {
			return schema.FallbackMessage, []string{fmt.Sprintf("chatResponse missing or not a non-empty string (got %T); substituted stage fallback message", val)}
		}
		return s, nil

	case "isStageComplete":
		// Only a genuine boolean passes through; "yes"/1/etc coerce to false.
		if b, isBool := val.(bool); present && isBool {
			return b, nil
		}
		return false, []string{fmt.Sprintf("isStageComplete %v was not a boolean; coerced to false", val)}

	case "suggestions":
		return repairStringArray(field, val, present)

	case "assessmentMethods":
		return repairStringArray(field, val, present)

	case "curriculumDraft":
		if !present || val == nil {
			return nil, []string{"curriculumDraft missing; defaulted to null"}
		}
		s, isStr := val.(string)
		if !isStr {
			// Coerced to empty then normalized to null.
			return nil, []string{fmt.Sprintf("curriculumDraft was %T, not a string; normalized to null", val)}
		}
		if strings.TrimSpace(s) == "" {
			return nil, []string{"curriculumDraft was empty; normalized to null"}
		}
		return s, nil

	case "newAssignment":
		if !present || val == nil {
			return nil, []string{"newAssignment missing; defaulted to null"}
		}
		assignment, isObj := val.(map[string]any)
		if !isObj {
			return nil, []string{fmt.Sprintf("newAssignment was %T, not an object; discarded to null", val)}
		}
		for _, sub := range assignmentRequiredFields {
			s, isStr := assignment[sub].(string)
			if !isStr || strings.TrimSpace(s) == "" {
				return nil, []string{fmt.Sprintf("newAssignment missing required sub-field %q; discarded to null", sub)}
			}
		}
		return assignment, nil

	default:
		// Fields added to a stage schema by configuration get a null default
		// so the envelope shape stays complete.
		if !present {
			return nil, []string{fmt.Sprintf("%s missing; defaulted to null", field)}
		}
		return val, nil
	}
}

func repairStringArray(field string, val any, present bool) (any, []string) {
	if !present || val == nil {
		return nil, []string{fmt.Sprintf("%s missing; defaulted to null", field)}
	}
	arr, isArr := val.([]any)
	if !isArr {
		if typed, ok := val.([]string); ok {
			return typed, nil
		}
		return nil, []string{fmt.Sprintf("%s was %T, not an array; defaulted to null", field, val)}
	}
	out := make([]string, 0, len(arr))
	dropped := 0
	for _, item := range arr {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		return out, []string{fmt.Sprintf("%s contained %d non-string or empty entries; dropped", field, dropped)}
	}
	return out, nil
}
