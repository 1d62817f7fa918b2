// Package orchestrator is the composition root of the conversation engine.
// One user message produces one classification, one acceptance check, one AI
// call, and one validation pass, emitted strictly in that order. Sessions are
// isolated from each other; turns within a session are serialized.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/sundale/projectcoach-backend/internal/config"
	"github.com/sundale/projectcoach-backend/internal/conversation/acceptance"
	"github.com/sundale/projectcoach-backend/internal/conversation/envelope"
	"github.com/sundale/projectcoach-backend/internal/conversation/intent"
	"github.com/sundale/projectcoach-backend/internal/conversation/lengthguard"
	"github.com/sundale/projectcoach-backend/internal/conversation/navigation"
	"github.com/sundale/projectcoach-backend/internal/conversation/strategy"
	"github.com/sundale/projectcoach-backend/internal/domain"
	"github.com/sundale/projectcoach-backend/internal/observability"
	"github.com/sundale/projectcoach-backend/internal/platform/apperr"
	"github.com/sundale/projectcoach-backend/internal/platform/logger"
	"github.com/sundale/projectcoach-backend/internal/realtime/bus"
	"github.com/sundale/projectcoach-backend/internal/repos"
)

// Generator is the narrow AI surface the orchestrator consumes. It is opaque
// and fallible; every failure mode routes through the validator's fallback
// path.
type Generator interface {
	GenerateJSON(ctx context.Context, system, user string) (map[string]any, error)
}

// TurnInput is one submission from the rendering layer: either typed text or
// a sentinel for a clicked UI affordance.
type TurnInput struct {
	Text       string `json:"text"`
	SourceKind string `json:"source_kind"` // typed | chip | action
	Choice     string `json:"choice"`      // affordance id for chip/action clicks
}

// TurnOutput is everything the rendering layer needs for one turn.
type TurnOutput struct {
	TurnID         uuid.UUID                 `json:"turn_id"`
	Envelope       map[string]any            `json:"envelope"`
	Classification intent.Classification     `json:"classification"`
	Acceptance     *acceptance.Result        `json:"acceptance,omitempty"`
	ButtonOptions  []navigation.ButtonOption `json:"button_options"`
	Navigation     domain.NavState           `json:"navigation"`
	Diagnostics    []string                  `json:"diagnostics,omitempty"`
}

// Service orchestrates conversation sessions.
type Service struct {
	log        *logger.Logger
	cfg        config.Engine
	sessions   repos.SessionRepo
	turns      repos.TurnRepo
	ai         Generator
	eventBus   bus.Bus
	classifier *intent.Classifier
	validator  *envelope.Validator
	tracer     trace.Tracer
	aiTimeout  time.Duration

	locks sync.Map // session id -> *sync.Mutex
}

func NewService(
	log *logger.Logger,
	cfg config.Engine,
	sessions repos.SessionRepo,
	turns repos.TurnRepo,
	ai Generator,
	eventBus bus.Bus,
	aiTimeout time.Duration,
) *Service {
	if aiTimeout <= 0 {
		aiTimeout = 45 * time.Second
	}
	return &Service{
		log:        log.With("service", "ConversationOrchestrator"),
		cfg:        cfg,
		sessions:   sessions,
		turns:      turns,
		ai:         ai,
		eventBus:   eventBus,
		classifier: intent.NewClassifier(cfg.ConfidenceThreshold),
		validator:  envelope.NewValidator(cfg),
		tracer:     observability.Tracer("conversation.orchestrator"),
		aiTimeout:  aiTimeout,
	}
}

// CreateSession starts a new project-design session at the ideation stage.
func (s *Service) CreateSession(ctx context.Context, projectID uuid.UUID, subject, ageGroup, educatorLevel string) (*domain.ConversationSession, error) {
	if projectID == uuid.Nil {
		return nil, fmt.Errorf("%w: project id required", apperr.ErrInvalidArgument)
	}
	firstSlot := domain.SlotBigIdea
	if slots := s.cfg.Stage(string(domain.StageIdeation)).RequiredSlots; len(slots) > 0 {
		firstSlot = slots[0]
	}
	session := &domain.ConversationSession{
		ID:             uuid.New(),
		ProjectID:      projectID,
		Subject:        strings.TrimSpace(subject),
		AgeGroup:       strings.TrimSpace(ageGroup),
		EducatorLevel:  strings.TrimSpace(educatorLevel),
		Stage:          domain.StageIdeation,
		CurrentSlot:    firstSlot,
		CapturedValues: datatypes.JSONMap{},
		Navigation:     datatypes.JSON([]byte(`{"depth":0,"interactions":0,"events":[]}`)),
	}
	if err := s.sessions.Create(ctx, nil, session); err != nil {
		return nil, err
	}
	s.log.Info("session created", "session_id", session.ID.String(), "project_id", projectID.String())
	return session, nil
}

// GetSession fetches one session by id.
func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (*domain.ConversationSession, error) {
	return s.sessions.GetByID(ctx, nil, id)
}

// ProcessTurn runs the full turn pipeline. On context cancellation the
// session state is left exactly as it was, so a retry re-enters the same
// slot/depth state cleanly. AI failures and timeouts degrade to the stage
// fallback envelope; they never surface as errors.
func (s *Service) ProcessTurn(ctx context.Context, sessionID uuid.UUID, in TurnInput) (*TurnOutput, error) {
	mu := s.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "ProcessTurn", trace.WithAttributes(
		attribute.String("session.id", sessionID.String()),
		attribute.String("turn.source_kind", in.SourceKind),
	))
	defer span.End()

	session, err := s.sessions.GetByID(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	if session.CapturedValues == nil {
		session.CapturedValues = datatypes.JSONMap{}
	}

	recent, err := s.turns.ListBySession(ctx, nil, sessionID, 6)
	if err != nil {
		s.log.Warn("could not load recent turns", "session_id", sessionID.String(), "error", err)
		recent = nil
	}

	navState := s.loadNavState(session)
	ctrl := navigation.FromState(navState, s.cfg.MaxDepth, s.cfg.MaxInteractions)
	couldBranchBefore := ctrl.ShouldShowMoreOptions()

	cls := s.classify(session, in, navState, recent)
	ctrl.TrackNavigation(navChoice(in), navKind(in, cls))

	var accResult *acceptance.Result
	if candidate, ok := submissionCandidate(in, cls); ok {
		res := acceptance.Evaluate(acceptance.ForSlot(session.CurrentSlot), candidate, s.capturedStrings(session))
		accResult = &res
		if res.IsAcceptable {
			session.CapturedValues[session.CurrentSlot] = candidate
			if !res.NeedsRefinement {
				s.advanceSlot(ctx, session, ctrl)
			}
		}
	} else if in.SourceKind == domain.TurnSourceAction && in.Choice == "keep_as_is" {
		if session.CapturedValue(session.CurrentSlot) != "" {
			s.advanceSlot(ctx, session, ctrl)
		}
	}

	strat := strategy.SelectStrategy(session.CurrentSlot, cls.Intent, session.Subject, session.AgeGroup)
	scaffold := strategy.ScaffoldingFor(session.EducatorLevel)
	schema := s.cfg.Stage(string(session.Stage))

	system := buildSystemPrompt(session, schema, scaffold)
	user := buildUserPrompt(session, in.Text, cls, accResult, strat, ctrl.SuggestNextAction(), recent)

	aiCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	raw, aiErr := s.ai.GenerateJSON(aiCtx, system, user)
	cancel()

	if aiErr != nil && ctx.Err() != nil {
		// Caller cancelled: leave state untouched for a clean retry.
		return nil, ctx.Err()
	}

	var result envelope.Result
	if aiErr != nil {
		s.log.Warn("ai call failed, serving fallback", "session_id", sessionID.String(), "error", aiErr)
		result = envelope.Result{
			IsValid:  false,
			Errors:   []string{fmt.Sprintf("ai call failed: %v; substituted stage fallback", aiErr)},
			Envelope: s.validator.Fallback(session.Stage),
		}
		s.publish(ctx, bus.Event{
			Type: bus.EventFallbackServed, SessionID: sessionID,
			Stage: string(session.Stage), Slot: session.CurrentSlot, At: time.Now(),
		})
	} else {
		result = s.validator.Validate(anyMap(raw), session.Stage)
	}

	diagnostics := result.Errors
	diagnostics = append(diagnostics, s.enforceStageCompletion(session, result.Envelope)...)
	diagnostics = append(diagnostics, s.enforceLength(result.Envelope, cls, aiErr != nil)...)
	span.SetAttributes(attribute.Int("turn.repairs", len(diagnostics)))

	if !ctrl.ShouldShowMoreOptions() {
		if result.Envelope["suggestions"] == nil && len(strat.Suggestions) > 0 {
			result.Envelope["suggestions"] = strat.Suggestions
		}
		if couldBranchBefore {
			s.publish(ctx, bus.Event{
				Type: bus.EventDepthLimitReached, SessionID: sessionID,
				Stage: string(session.Stage), Slot: session.CurrentSlot,
				Intent: string(cls.Intent), At: time.Now(),
			})
		}
	}

	turn := s.buildTurn(session, in, cls, raw, result, diagnostics)
	if err := s.turns.Create(ctx, nil, turn); err != nil {
		return nil, err
	}

	session.TurnCount++
	session.LastIntent = string(cls.Intent)
	s.storeNavState(session, ctrl.State())
	if err := s.sessions.Update(ctx, nil, session); err != nil {
		return nil, err
	}

	s.publish(ctx, bus.Event{
		Type: bus.EventTurnProcessed, SessionID: sessionID,
		Stage: string(session.Stage), Slot: session.CurrentSlot,
		Intent: string(cls.Intent), At: time.Now(),
	})

	return &TurnOutput{
		TurnID:         turn.ID,
		Envelope:       result.Envelope,
		Classification: cls,
		Acceptance:     accResult,
		ButtonOptions:  ctrl.ButtonOptions(),
		Navigation:     ctrl.State(),
		Diagnostics:    diagnostics,
	}, nil
}

func (s *Service) sessionLock(id uuid.UUID) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (s *Service) loadNavState(session *domain.ConversationSession) domain.NavState {
	var state domain.NavState
	if len(session.Navigation) > 0 {
		if err := json.Unmarshal(session.Navigation, &state); err != nil {
			s.log.Warn("resetting undecodable navigation state", "session_id", session.ID.String(), "error", err)
			state = domain.NavState{}
		}
	}
	return state
}

func (s *Service) storeNavState(session *domain.ConversationSession, state domain.NavState) {
	raw, err := json.Marshal(state)
	if err != nil {
		raw = []byte(`{"depth":0,"interactions":0,"events":[]}`)
	}
	session.Navigation = datatypes.JSON(raw)
}

func (s *Service) classify(session *domain.ConversationSession, in TurnInput, navState domain.NavState, recent []*domain.Turn) intent.Classification {
	if in.SourceKind == domain.TurnSourceChip {
		return intent.Classification{Intent: intent.Submitting, Confidence: 100, SuggestedResponseMode: intent.ModeConfirm}
	}
	if in.SourceKind == domain.TurnSourceAction {
		return classifyAffordance(in.Choice)
	}
	return s.classifier.Classify(in.Text, intent.Context{
		Stage:           session.Stage,
		Step:            stepPosition(session, navState),
		PreviousIntent:  intent.Kind(session.LastIntent),
		AIAskedQuestion: lastReplyAskedQuestion(recent),
	})
}

// classifyAffordance maps clicked buttons to deterministic classifications;
// no text heuristics apply to a click.
func classifyAffordance(choice string) intent.Classification {
	switch choice {
	case "explore_more":
		return intent.Classification{Intent: intent.Exploring, Confidence: 100, SuggestedResponseMode: intent.ModeEngage}
	case "show_examples":
		return intent.Classification{Intent: intent.Questioning, Confidence: 100, SuggestedResponseMode: intent.ModeGuide}
	case "keep_as_is", "select_suggestion":
		return intent.Classification{Intent: intent.Confirming, Confidence: 100, SuggestedResponseMode: intent.ModeConfirm}
	case "refine":
		return intent.Classification{Intent: intent.Refining, Confidence: 100, SuggestedResponseMode: intent.ModeGuide}
	case "submit_own":
		return intent.Classification{Intent: intent.Submitting, Confidence: 100, SuggestedResponseMode: intent.ModeConfirm}
	default:
		return intent.Classification{Intent: intent.Uncertain, Confidence: 0, SuggestedResponseMode: intent.ModeClarify}
	}
}

func stepPosition(session *domain.ConversationSession, navState domain.NavState) intent.StepPosition {
	if session.CapturedValue(session.CurrentSlot) != "" {
		return intent.StepClosing
	}
	if navState.Interactions == 0 {
		return intent.StepIntro
	}
	return intent.StepMiddle
}

func lastReplyAskedQuestion(recent []*domain.Turn) bool {
	if len(recent) == 0 {
		return false
	}
	var repaired map[string]any
	if err := json.Unmarshal(recent[0].RepairedEnvelope, &repaired); err != nil {
		return false
	}
	if msg, ok := repaired["chatResponse"].(string); ok {
		return strings.HasSuffix(strings.TrimSpace(msg), "?")
	}
	return false
}

func navChoice(in TurnInput) string {
	if in.Choice != "" {
		return in.Choice
	}
	text := strings.TrimSpace(in.Text)
	if len(text) > 60 {
		text = text[:60]
	}
	return text
}

func navKind(in TurnInput, cls intent.Classification) string {
	if in.SourceKind == domain.TurnSourceAction && in.Choice == "explore_more" {
		return navigation.KindExploration
	}
	switch cls.Intent {
	case intent.Exploring:
		return navigation.KindExploration
	case intent.Refining:
		return navigation.KindRefinement
	default:
		return navigation.KindSelection
	}
}

// submissionCandidate decides whether this input carries a candidate value
// for the current slot, and what that value is.
func submissionCandidate(in TurnInput, cls intent.Classification) (string, bool) {
	text := strings.TrimSpace(in.Text)
	switch in.SourceKind {
	case domain.TurnSourceChip:
		return text, text != ""
	case domain.TurnSourceAction:
		return "", false
	default:
		if cls.Intent == intent.Submitting || cls.Intent == intent.Elaborating {
			return text, text != ""
		}
		return "", false
	}
}

func (s *Service) capturedStrings(session *domain.ConversationSession) map[string]string {
	out := make(map[string]string, len(session.CapturedValues))
	for k, v := range session.CapturedValues {
		if str, ok := v.(string); ok {
			out[k] = str
		}
	}
	return out
}

// advanceSlot moves the session to the next uncaptured slot of the stage, or
// to the next stage when the current stage's slots are all captured. The
// navigation state resets with each move.
func (s *Service) advanceSlot(ctx context.Context, session *domain.ConversationSession, ctrl *navigation.Controller) {
	required := s.cfg.Stage(string(session.Stage)).RequiredSlots
	for _, slot := range required {
		if session.CapturedValue(slot) == "" {
			session.CurrentSlot = slot
			ctrl.ResetForNextSlot()
			return
		}
	}

	// Stage complete: advance forward.
	prev := session.Stage
	session.Stage = session.Stage.Next()
	next := s.cfg.Stage(string(session.Stage)).RequiredSlots
	if len(next) > 0 {
		session.CurrentSlot = next[0]
	} else {
		session.CurrentSlot = ""
	}
	ctrl.ResetForNextSlot()

	s.log.Info("stage advanced", "session_id", session.ID.String(), "from", prev, "to", session.Stage)
	s.publish(ctx, bus.Event{
		Type: bus.EventStageAdvanced, SessionID: session.ID,
		Stage: string(session.Stage), Slot: session.CurrentSlot,
		Detail: fmt.Sprintf("from %s", prev), At: time.Now(),
	})
}

// enforceStageCompletion keeps the envelope honest: isStageComplete may only
// be true when every required slot of the stage is captured.
func (s *Service) enforceStageCompletion(session *domain.ConversationSession, env map[string]any) []string {
	claimed, _ := env["isStageComplete"].(bool)
	actual := session.StageSlotsComplete(s.cfg.Stage(string(session.Stage)).RequiredSlots)
	if claimed && !actual {
		env["isStageComplete"] = false
		return []string{"isStageComplete claimed true before required slots were captured; forced to false"}
	}
	return nil
}

func (s *Service) enforceLength(env map[string]any, cls intent.Classification, isFallback bool) []string {
	msg, ok := env["chatResponse"].(string)
	if !ok {
		return nil
	}
	budget := s.cfg.Budget(lengthContext(cls.SuggestedResponseMode, isFallback))
	res := lengthguard.Enforce(msg, budget)
	env["chatResponse"] = res.Text

	var diags []string
	if res.WasModified {
		diags = append(diags, fmt.Sprintf("chatResponse exceeded %d-word budget; truncated to %d words", budget.MaxWords, res.WordCount))
	}
	if res.UnderMin {
		diags = append(diags, fmt.Sprintf("chatResponse under %d-word minimum (%d words); passed through", budget.MinWords, res.WordCount))
	}
	return diags
}

func lengthContext(mode intent.ResponseMode, isFallback bool) string {
	if isFallback {
		return "fallback"
	}
	switch mode {
	case intent.ModeConfirm:
		return "confirmation"
	case intent.ModeEngage:
		return "brainstorming"
	default:
		return "coaching"
	}
}

func (s *Service) buildTurn(
	session *domain.ConversationSession,
	in TurnInput,
	cls intent.Classification,
	raw map[string]any,
	result envelope.Result,
	diagnostics []string,
) *domain.Turn {
	turn := &domain.Turn{
		ID:         uuid.New(),
		SessionID:  session.ID,
		Seq:        session.TurnCount + 1,
		UserText:   in.Text,
		SourceKind: sourceKindOrDefault(in.SourceKind),
		Stage:      session.Stage,
		Slot:       session.CurrentSlot,
		Intent:     string(cls.Intent),
		Confidence: cls.Confidence,
	}
	if raw != nil {
		if b, err := json.Marshal(raw); err == nil {
			turn.RawEnvelope = datatypes.JSON(b)
		}
	}
	if b, err := json.Marshal(result.Envelope); err == nil {
		turn.RepairedEnvelope = datatypes.JSON(b)
	}
	if len(diagnostics) > 0 {
		if b, err := json.Marshal(diagnostics); err == nil {
			turn.Repairs = datatypes.JSON(b)
		}
	}
	return turn
}

func sourceKindOrDefault(kind string) string {
	switch kind {
	case domain.TurnSourceChip, domain.TurnSourceAction:
		return kind
	default:
		return domain.TurnSourceTyped
	}
}

func (s *Service) publish(ctx context.Context, ev bus.Event) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, ev); err != nil {
		s.log.Warn("event publish failed", "type", ev.Type, "error", err)
	}
}

// anyMap widens the AI client's concrete map into the validator's input. A
// nil map stays nil so the validator takes its full-failure path.
func anyMap(m map[string]any) any {
	if m == nil {
		return nil
	}
	return m
}
