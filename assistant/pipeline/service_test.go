package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
)

type fakeClassifier struct {
	cls     contractx.Classification
	err     error
	calls   int
	lastReq contractx.ClassifyRequest
}

func (f *fakeClassifier) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.Classification, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return contractx.Classification{}, f.err
	}
	return f.cls, nil
}

type fakeDispatcher struct {
	out      contractx.Outcome
	err      error
	calls    int
	lastUser string
	lastCls  contractx.Classification
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, userID string, c contractx.Classification) (contractx.Outcome, error) {
	f.calls++
	f.lastUser = userID
	f.lastCls = c
	if f.err != nil {
		return contractx.Outcome{}, f.err
	}
	out := f.out
	if out.Intent == "" {
		out.Intent = c.Intent
	}
	return out, nil
}

type fakeComposer struct {
	reply contractx.Reply
	err   error
}

func (f *fakeComposer) Compose(ctx context.Context, out contractx.Outcome) (contractx.Reply, error) {
	if f.err != nil {
		return contractx.Reply{}, f.err
	}
	return f.reply, nil
}

type fakeConversations struct {
	recent    []contractx.Turn
	recentErr error
	appendErr error
	appended  []contractx.Turn
	lastLimit int
}

func (f *fakeConversations) Recent(ctx context.Context, userID string, limit int) ([]contractx.Turn, error) {
	f.lastLimit = limit
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	return f.recent, nil
}

func (f *fakeConversations) Append(ctx context.Context, userID string, turns ...contractx.Turn) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, turns...)
	return nil
}

func newTestService(t *testing.T, deps Deps) *Service {
	t.Helper()

	if deps.Classifier == nil {
		deps.Classifier = &fakeClassifier{cls: contractx.FallbackClassification("hi")}
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = &fakeDispatcher{}
	}
	if deps.Composer == nil {
		deps.Composer = &fakeComposer{reply: contractx.Reply{Message: "ok"}}
	}

	s, err := New(deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestNewRequiresDeps(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{}
	dispatcher := &fakeDispatcher{}
	composer := &fakeComposer{}

	cases := []struct {
		name string
		deps Deps
	}{
		{name: "classifier", deps: Deps{Dispatcher: dispatcher, Composer: composer}},
		{name: "dispatcher", deps: Deps{Classifier: classifier, Composer: composer}},
		{name: "composer", deps: Deps{Classifier: classifier, Dispatcher: dispatcher}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := New(tc.deps); !errors.Is(err, contractx.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestHandleChatInvalidInput(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{}
	s := newTestService(t, Deps{Classifier: classifier})

	_, err := s.HandleChat(context.Background(), "user-1", "   ")
	if !errors.Is(err, contractx.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}

	_, err = s.HandleChat(context.Background(), "  ", "hello")
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	if classifier.calls != 0 {
		t.Fatalf("classifier must not run on invalid input, got %d calls", classifier.calls)
	}
}

func TestHandleChatHappyPath(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{
		cls: contractx.Classification{
			Intent:     contractx.IntentStoreMemory,
			Parameters: map[string]any{"text": "likes jazz"},
		},
	}
	actions := []contractx.Action{{Type: "memory_saved", Description: "Saved general memory"}}
	dispatcher := &fakeDispatcher{
		out: contractx.Outcome{
			Intent: contractx.IntentStoreMemory,
			Result: contractx.Result{
				Payload: contractx.MemorySavedPayload{Memory: contractx.Memory{ID: "mem-1"}},
				Actions: actions,
			},
		},
	}
	composer := &fakeComposer{reply: contractx.Reply{Message: "Saved!", Actions: actions}}
	conv := &fakeConversations{
		recent: []contractx.Turn{
			{Role: "user", Text: "hey"},
			{Role: "assistant", Text: "hi!"},
		},
	}

	s := newTestService(t, Deps{
		Classifier:    classifier,
		Dispatcher:    dispatcher,
		Composer:      composer,
		Conversations: conv,
	})
	now := time.Date(2026, 3, 11, 10, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	result, err := s.HandleChat(context.Background(), " user-1 ", "  remember I like jazz  ")
	if err != nil {
		t.Fatalf("HandleChat() error = %v", err)
	}

	if result.Message != "Saved!" {
		t.Fatalf("message = %q", result.Message)
	}
	if result.Intent != contractx.IntentStoreMemory {
		t.Fatalf("intent = %q", result.Intent)
	}
	if result.UserID != "user-1" {
		t.Fatalf("user id = %q", result.UserID)
	}
	if len(result.Actions) != 1 || result.Actions[0].Type != "memory_saved" {
		t.Fatalf("unexpected actions: %+v", result.Actions)
	}

	if classifier.lastReq.Message != "remember I like jazz" {
		t.Fatalf("classifier message = %q", classifier.lastReq.Message)
	}
	if len(classifier.lastReq.Context) != 2 {
		t.Fatalf("classifier context length = %d", len(classifier.lastReq.Context))
	}
	if conv.lastLimit != contextTurns {
		t.Fatalf("context limit = %d, want %d", conv.lastLimit, contextTurns)
	}

	if dispatcher.lastUser != "user-1" {
		t.Fatalf("dispatcher user = %q", dispatcher.lastUser)
	}
	if dispatcher.lastCls.Intent != contractx.IntentStoreMemory {
		t.Fatalf("dispatcher intent = %q", dispatcher.lastCls.Intent)
	}

	if len(conv.appended) != 2 {
		t.Fatalf("appended turns = %d, want 2", len(conv.appended))
	}
	userTurn, assistantTurn := conv.appended[0], conv.appended[1]
	if userTurn.Role != contractx.TurnRoleUser || userTurn.Text != "remember I like jazz" {
		t.Fatalf("unexpected user turn: %+v", userTurn)
	}
	if assistantTurn.Role != contractx.TurnRoleAssistant || assistantTurn.Text != "Saved!" {
		t.Fatalf("unexpected assistant turn: %+v", assistantTurn)
	}
	if !userTurn.At.Equal(now) || userTurn.Intent != contractx.IntentStoreMemory {
		t.Fatalf("unexpected user turn metadata: %+v", userTurn)
	}
}

func TestHandleChatClassifierFailureFallsBack(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{
		err: fmt.Errorf("%w: model returned garbage", contractx.ErrClassification),
	}
	dispatcher := &fakeDispatcher{}
	composer := &fakeComposer{reply: contractx.Reply{Message: "Happy to chat!"}}

	s := newTestService(t, Deps{
		Classifier: classifier,
		Dispatcher: dispatcher,
		Composer:   composer,
	})

	result, err := s.HandleChat(context.Background(), "user-1", "blorp fizzle")
	if err != nil {
		t.Fatalf("HandleChat() error = %v", err)
	}
	if result.Message != "Happy to chat!" {
		t.Fatalf("message = %q", result.Message)
	}
	if result.Intent != contractx.IntentGeneralChat {
		t.Fatalf("intent = %q, want general_chat", result.Intent)
	}
	if dispatcher.lastCls.Intent != contractx.IntentGeneralChat {
		t.Fatalf("dispatcher intent = %q", dispatcher.lastCls.Intent)
	}
	if got := dispatcher.lastCls.Parameters["message"]; got != "blorp fizzle" {
		t.Fatalf("fallback message param = %v", got)
	}
}

func TestHandleChatInjectsVerbatimMessageForGeneralChat(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{
		cls: contractx.Classification{
			Intent:     contractx.IntentGeneralChat,
			Parameters: map[string]any{"message": "paraphrased by the model"},
		},
	}
	dispatcher := &fakeDispatcher{}

	s := newTestService(t, Deps{
		Classifier: classifier,
		Dispatcher: dispatcher,
		Composer:   &fakeComposer{reply: contractx.Reply{Message: "hi"}},
	})

	if _, err := s.HandleChat(context.Background(), "user-1", "how are you today"); err != nil {
		t.Fatalf("HandleChat() error = %v", err)
	}
	if got := dispatcher.lastCls.Parameters["message"]; got != "how are you today" {
		t.Fatalf("message param = %v, want verbatim utterance", got)
	}
}

func TestHandleChatContextFailuresAreAdvisory(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{cls: contractx.FallbackClassification("hi")}
	conv := &fakeConversations{
		recentErr: errors.New("redis unavailable"),
		appendErr: errors.New("redis unavailable"),
	}

	s := newTestService(t, Deps{
		Classifier:    classifier,
		Dispatcher:    &fakeDispatcher{},
		Composer:      &fakeComposer{reply: contractx.Reply{Message: "hello!"}},
		Conversations: conv,
	})

	result, err := s.HandleChat(context.Background(), "user-1", "hi")
	if err != nil {
		t.Fatalf("HandleChat() error = %v", err)
	}
	if result.Message != "hello!" {
		t.Fatalf("message = %q", result.Message)
	}
	if len(classifier.lastReq.Context) != 0 {
		t.Fatalf("expected no context after load failure, got %d turns", len(classifier.lastReq.Context))
	}
}

func TestHandleChatWithoutConversationStore(t *testing.T) {
	t.Parallel()

	s := newTestService(t, Deps{
		Classifier: &fakeClassifier{cls: contractx.FallbackClassification("hi")},
		Dispatcher: &fakeDispatcher{},
		Composer:   &fakeComposer{reply: contractx.Reply{Message: "hello!"}},
	})

	result, err := s.HandleChat(context.Background(), "user-1", "hi")
	if err != nil {
		t.Fatalf("HandleChat() error = %v", err)
	}
	if result.Message != "hello!" {
		t.Fatalf("message = %q", result.Message)
	}
}

func TestHandleChatDispatcherErrorPropagates(t *testing.T) {
	t.Parallel()

	dispatchErr := fmt.Errorf("%w: insert memory: driver timeout", contractx.ErrPersistence)
	conv := &fakeConversations{}

	s := newTestService(t, Deps{
		Classifier:    &fakeClassifier{cls: contractx.FallbackClassification("hi")},
		Dispatcher:    &fakeDispatcher{err: dispatchErr},
		Composer:      &fakeComposer{reply: contractx.Reply{Message: "unused"}},
		Conversations: conv,
	})

	_, err := s.HandleChat(context.Background(), "user-1", "remember this")
	if !errors.Is(err, contractx.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if len(conv.appended) != 0 {
		t.Fatalf("turns must not be recorded on failure, got %d", len(conv.appended))
	}
}

func TestHandleChatComposerErrorPropagates(t *testing.T) {
	t.Parallel()

	composeErr := errors.New("composer failed")
	s := newTestService(t, Deps{
		Classifier: &fakeClassifier{cls: contractx.FallbackClassification("hi")},
		Dispatcher: &fakeDispatcher{},
		Composer:   &fakeComposer{err: composeErr},
	})

	_, err := s.HandleChat(context.Background(), "user-1", "hi")
	if !errors.Is(err, composeErr) {
		t.Fatalf("expected composer error, got %v", err)
	}
}
