package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sundale/projectcoach-backend/internal/config"
	"github.com/sundale/projectcoach-backend/internal/domain"
	"github.com/sundale/projectcoach-backend/internal/platform/apperr"
	"github.com/sundale/projectcoach-backend/internal/platform/logger"
	"github.com/sundale/projectcoach-backend/internal/realtime/bus"
)

type fakeSessions struct {
	mu      sync.Mutex
	m       map[uuid.UUID]*domain.ConversationSession
	updates int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{m: map[uuid.UUID]*domain.ConversationSession{}}
}

func copySession(s *domain.ConversationSession) *domain.ConversationSession {
	c := *s
	c.CapturedValues = datatypes.JSONMap{}
	for k, v := range s.CapturedValues {
		c.CapturedValues[k] = v
	}
	c.Navigation = append(datatypes.JSON(nil), s.Navigation...)
	return &c
}

func (f *fakeSessions) Create(_ context.Context, _ *gorm.DB, s *domain.ConversationSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[s.ID] = copySession(s)
	return nil
}

func (f *fakeSessions) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*domain.ConversationSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.m[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return copySession(s), nil
}

func (f *fakeSessions) Update(_ context.Context, _ *gorm.DB, s *domain.ConversationSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[s.ID] = copySession(s)
	f.updates++
	return nil
}

type fakeTurns struct {
	mu    sync.Mutex
	turns []*domain.Turn
}

func (f *fakeTurns) Create(_ context.Context, _ *gorm.DB, t *domain.Turn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *t
	f.turns = append(f.turns, &c)
	return nil
}

func (f *fakeTurns) ListBySession(_ context.Context, _ *gorm.DB, sessionID uuid.UUID, limit int) ([]*domain.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Turn
	for i := len(f.turns) - 1; i >= 0 && len(out) < limit; i-- {
		if f.turns[i].SessionID == sessionID {
			out = append(out, f.turns[i])
		}
	}
	return out, nil
}

type fakeBus struct {
	mu     sync.Mutex
	events []bus.Event
}

func (f *fakeBus) Publish(_ context.Context, ev bus.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeBus) StartForwarder(context.Context, func(bus.Event)) error { return nil }
func (f *fakeBus) Close() error                                         { return nil }

func (f *fakeBus) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeGen struct {
	fn func(ctx context.Context, system, user string) (map[string]any, error)
}

func (g *fakeGen) GenerateJSON(ctx context.Context, system, user string) (map[string]any, error) {
	return g.fn(ctx, system, user)
}

func validIdeationEnvelope(msg string) map[string]any {
	return map[string]any{
		"interactionType": "conversationalIdeation",
		"currentStage":    "ideation",
		"chatResponse":    msg,
		"isStageComplete": false,
		"suggestions":     []any{"Option one", "Option two"},
	}
}

func newTestService(t *testing.T, cfg config.Engine, gen Generator) (*Service, *fakeSessions, *fakeTurns, *fakeBus) {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	sessions := newFakeSessions()
	turns := &fakeTurns{}
	events := &fakeBus{}
	svc := NewService(log, cfg, sessions, turns, gen, events, 5*time.Second)
	return svc, sessions, turns, events
}

func seedSession(t *testing.T, sessions *fakeSessions, mutate func(*domain.ConversationSession)) uuid.UUID {
	t.Helper()
	s := &domain.ConversationSession{
		ID:             uuid.New(),
		ProjectID:      uuid.New(),
		Subject:        "Environmental Science",
		AgeGroup:       "middle school",
		EducatorLevel:  "intermediate",
		Stage:          domain.StageIdeation,
		CurrentSlot:    domain.SlotBigIdea,
		CapturedValues: datatypes.JSONMap{},
	}
	if mutate != nil {
		mutate(s)
	}
	if err := sessions.Create(context.Background(), nil, s); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return s.ID
}

func TestCreateSessionRequiresProject(t *testing.T) {
	svc, _, _, _ := newTestService(t, config.DefaultEngine(), &fakeGen{})
	if _, err := svc.CreateSession(context.Background(), uuid.Nil, "Math", "high school", "expert"); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestCreateSessionStartsAtIdeation(t *testing.T) {
	svc, _, _, _ := newTestService(t, config.DefaultEngine(), &fakeGen{})
	s, err := svc.CreateSession(context.Background(), uuid.New(), "Math", "high school", "expert")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if s.Stage != domain.StageIdeation {
		t.Fatalf("expected ideation stage, got %s", s.Stage)
	}
	if s.CurrentSlot != domain.SlotBigIdea {
		t.Fatalf("expected first slot big_idea, got %s", s.CurrentSlot)
	}
}

func TestProcessTurnChipCapturesSlotAndAdvances(t *testing.T) {
	gen := &fakeGen{fn: func(ctx context.Context, system, user string) (map[string]any, error) {
		return validIdeationEnvelope("That is a strong direction for your big idea."), nil
	}}
	svc, sessions, turns, _ := newTestService(t, config.DefaultEngine(), gen)
	id := seedSession(t, sessions, nil)

	out, err := svc.ProcessTurn(context.Background(), id, TurnInput{
		Text:       "Sustainability in our community",
		SourceKind: domain.TurnSourceChip,
		Choice:     "select_suggestion",
	})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}

	stored, _ := sessions.GetByID(context.Background(), nil, id)
	if got := stored.CapturedValue(domain.SlotBigIdea); got != "Sustainability in our community" {
		t.Fatalf("big_idea not captured, got %q", got)
	}
	if stored.CurrentSlot != domain.SlotEssentialQuestion {
		t.Fatalf("expected advance to essential_question, got %s", stored.CurrentSlot)
	}
	if stored.TurnCount != 1 {
		t.Fatalf("turn count = %d, want 1", stored.TurnCount)
	}
	if len(turns.turns) != 1 || turns.turns[0].Seq != 1 {
		t.Fatalf("expected one persisted turn with seq 1")
	}
	if out.Envelope["currentStage"] != "ideation" {
		t.Fatalf("currentStage = %v", out.Envelope["currentStage"])
	}
	if out.Acceptance == nil || !out.Acceptance.IsAcceptable {
		t.Fatalf("chip submission should be acceptable: %+v", out.Acceptance)
	}
}

func TestProcessTurnFallbackOnAIError(t *testing.T) {
	gen := &fakeGen{fn: func(ctx context.Context, system, user string) (map[string]any, error) {
		return nil, errors.New("upstream 500")
	}}
	cfg := config.DefaultEngine()
	svc, sessions, turns, events := newTestService(t, cfg, gen)
	id := seedSession(t, sessions, nil)

	out, err := svc.ProcessTurn(context.Background(), id, TurnInput{
		Text:       "What makes a good driving question?",
		SourceKind: domain.TurnSourceTyped,
	})
	if err != nil {
		t.Fatalf("AI failure must not surface as an error: %v", err)
	}
	want := cfg.Stage("ideation").FallbackMessage
	if out.Envelope["chatResponse"] != want {
		t.Fatalf("expected stage fallback message, got %v", out.Envelope["chatResponse"])
	}
	if len(out.Diagnostics) == 0 {
		t.Fatalf("fallback turn must carry diagnostics")
	}
	if len(turns.turns) != 1 {
		t.Fatalf("fallback turn must still be persisted")
	}
	found := false
	for _, typ := range events.types() {
		if typ == bus.EventFallbackServed {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s event, got %v", bus.EventFallbackServed, events.types())
	}
}

func TestProcessTurnCancellationLeavesStateUntouched(t *testing.T) {
	gen := &fakeGen{fn: func(ctx context.Context, system, user string) (map[string]any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	svc, sessions, turns, _ := newTestService(t, config.DefaultEngine(), gen)
	id := seedSession(t, sessions, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := svc.ProcessTurn(ctx, id, TurnInput{
		Text:       "Climate justice",
		SourceKind: domain.TurnSourceChip,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	stored, _ := sessions.GetByID(context.Background(), nil, id)
	if got := stored.CapturedValue(domain.SlotBigIdea); got != "" {
		t.Fatalf("cancelled turn must not capture values, got %q", got)
	}
	if stored.TurnCount != 0 || len(turns.turns) != 0 {
		t.Fatalf("cancelled turn must not persist anything")
	}
	sessions.mu.Lock()
	updates := sessions.updates
	sessions.mu.Unlock()
	if updates != 0 {
		t.Fatalf("cancelled turn must not update the session, saw %d updates", updates)
	}
}

func TestProcessTurnAdvancesStageWhenSlotsComplete(t *testing.T) {
	gen := &fakeGen{fn: func(ctx context.Context, system, user string) (map[string]any, error) {
		return map[string]any{
			"interactionType": "conversationalJourney",
			"currentStage":    "learning_journey",
			"chatResponse":    "Great, your ideation stage is locked in. Let's map the journey.",
			"isStageComplete": false,
			"suggestions":     nil,
			"curriculumDraft": nil,
		}, nil
	}}
	svc, sessions, _, events := newTestService(t, config.DefaultEngine(), gen)
	id := seedSession(t, sessions, func(s *domain.ConversationSession) {
		s.CurrentSlot = domain.SlotChallenge
		s.CapturedValues = datatypes.JSONMap{
			domain.SlotBigIdea:           "Sustainability",
			domain.SlotEssentialQuestion: "How might we reduce waste at school?",
			domain.SlotChallenge:         "Design a zero-waste lunch program for our cafeteria",
		}
	})

	out, err := svc.ProcessTurn(context.Background(), id, TurnInput{
		SourceKind: domain.TurnSourceAction,
		Choice:     "keep_as_is",
	})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}

	stored, _ := sessions.GetByID(context.Background(), nil, id)
	if stored.Stage != domain.StageLearningJourney {
		t.Fatalf("expected learning_journey stage, got %s", stored.Stage)
	}
	if stored.CurrentSlot != domain.SlotPhases {
		t.Fatalf("expected first journey slot phases, got %s", stored.CurrentSlot)
	}
	if out.Navigation.Depth != 0 || out.Navigation.Interactions != 0 {
		t.Fatalf("navigation must reset on stage advance: %+v", out.Navigation)
	}

	advanced := false
	for _, typ := range events.types() {
		if typ == bus.EventStageAdvanced {
			advanced = true
		}
	}
	if !advanced {
		t.Fatalf("expected %s event, got %v", bus.EventStageAdvanced, events.types())
	}
	if out.Envelope["currentStage"] != "learning_journey" {
		t.Fatalf("envelope must reflect the new stage, got %v", out.Envelope["currentStage"])
	}
}

func TestProcessTurnForcesStageCompletionFalse(t *testing.T) {
	gen := &fakeGen{fn: func(ctx context.Context, system, user string) (map[string]any, error) {
		env := validIdeationEnvelope("You are making excellent progress on this project idea.")
		env["isStageComplete"] = true
		return env, nil
	}}
	svc, sessions, _, _ := newTestService(t, config.DefaultEngine(), gen)
	id := seedSession(t, sessions, nil)

	out, err := svc.ProcessTurn(context.Background(), id, TurnInput{
		Text:       "Tell me more about big ideas",
		SourceKind: domain.TurnSourceTyped,
	})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if out.Envelope["isStageComplete"] != false {
		t.Fatalf("isStageComplete must be forced false while slots are uncaptured")
	}
	forced := false
	for _, d := range out.Diagnostics {
		if strings.Contains(d, "isStageComplete") {
			forced = true
		}
	}
	if !forced {
		t.Fatalf("expected a forcing diagnostic, got %v", out.Diagnostics)
	}
}

func TestProcessTurnDepthLimitConverges(t *testing.T) {
	gen := &fakeGen{fn: func(ctx context.Context, system, user string) (map[string]any, error) {
		env := validIdeationEnvelope("Here are some directions worth weighing for your project.")
		env["suggestions"] = nil
		return env, nil
	}}
	cfg := config.DefaultEngine()
	cfg.MaxDepth = 1
	svc, sessions, _, events := newTestService(t, cfg, gen)
	id := seedSession(t, sessions, nil)

	out, err := svc.ProcessTurn(context.Background(), id, TurnInput{
		SourceKind: domain.TurnSourceAction,
		Choice:     "explore_more",
	})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}

	hit := false
	for _, typ := range events.types() {
		if typ == bus.EventDepthLimitReached {
			hit = true
		}
	}
	if !hit {
		t.Fatalf("expected %s event, got %v", bus.EventDepthLimitReached, events.types())
	}
	if out.Envelope["suggestions"] == nil {
		t.Fatalf("converged turn must carry concrete suggestions")
	}
	if len(out.ButtonOptions) != 2 {
		t.Fatalf("converged turn must offer the reduced button set, got %d", len(out.ButtonOptions))
	}
}

func TestProcessTurnTruncatesOverlongReply(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("This sentence pads the reply well past any sane budget. ", 20))
	gen := &fakeGen{fn: func(ctx context.Context, system, user string) (map[string]any, error) {
		return validIdeationEnvelope(long), nil
	}}
	cfg := config.DefaultEngine()
	svc, sessions, _, _ := newTestService(t, cfg, gen)
	id := seedSession(t, sessions, nil)

	out, err := svc.ProcessTurn(context.Background(), id, TurnInput{
		Text:       "Recycling education",
		SourceKind: domain.TurnSourceChip,
	})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	msg, _ := out.Envelope["chatResponse"].(string)
	max := cfg.Budget("confirmation").MaxWords
	if got := len(strings.Fields(msg)); got > max {
		t.Fatalf("chatResponse still %d words, budget %d", got, max)
	}
	truncated := false
	for _, d := range out.Diagnostics {
		if strings.Contains(d, "truncated") {
			truncated = true
		}
	}
	if !truncated {
		t.Fatalf("expected truncation diagnostic, got %v", out.Diagnostics)
	}
}

func TestProcessTurnUnknownSessionFails(t *testing.T) {
	svc, _, _, _ := newTestService(t, config.DefaultEngine(), &fakeGen{fn: func(ctx context.Context, system, user string) (map[string]any, error) {
		return validIdeationEnvelope("hello there friend of mine"), nil
	}})
	_, err := svc.ProcessTurn(context.Background(), uuid.New(), TurnInput{Text: "hi", SourceKind: domain.TurnSourceTyped})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProcessTurnSerializesPerSession(t *testing.T) {
	var inFlight, maxInFlight int
	var mu sync.Mutex
	gen := &fakeGen{fn: func(ctx context.Context, system, user string) (map[string]any, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		return validIdeationEnvelope("Nice, keep that thought going a little further."), nil
	}}
	svc, sessions, turns, _ := newTestService(t, config.DefaultEngine(), gen)
	id := seedSession(t, sessions, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.ProcessTurn(context.Background(), id, TurnInput{
				Text:       "What could my students explore here?",
				SourceKind: domain.TurnSourceTyped,
			})
		}()
	}
	wg.Wait()

	if maxInFlight != 1 {
		t.Fatalf("turns for one session must serialize, saw %d concurrent AI calls", maxInFlight)
	}
	seen := map[int]bool{}
	for _, turn := range turns.turns {
		if seen[turn.Seq] {
			t.Fatalf("duplicate turn seq %d", turn.Seq)
		}
		seen[turn.Seq] = true
	}
	if len(turns.turns) != 4 {
		t.Fatalf("expected 4 persisted turns, got %d", len(turns.turns))
	}
}
