package handler

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
)

type fakePhraser struct {
	smallTalk    string
	smallTalkErr error
	gotMessage   string
	gotTurns     []contractx.Turn
}

func (f *fakePhraser) SmallTalk(ctx context.Context, message string, turns []contractx.Turn) (string, error) {
	f.gotMessage = message
	f.gotTurns = turns
	return f.smallTalk, f.smallTalkErr
}

func (f *fakePhraser) Rephrase(ctx context.Context, intent contractx.Intent, draft string) (string, error) {
	return draft, nil
}

type fakeConversationStore struct {
	turns []contractx.Turn
	err   error
}

func (f *fakeConversationStore) Recent(ctx context.Context, userID string, limit int) ([]contractx.Turn, error) {
	return f.turns, f.err
}

func (f *fakeConversationStore) Append(ctx context.Context, userID string, turns ...contractx.Turn) error {
	return nil
}

func TestChatReplyUsesPhraser(t *testing.T) {
	t.Parallel()

	phraser := &fakePhraser{smallTalk: "Doing great! Want to check your homework?"}
	conv := &fakeConversationStore{turns: []contractx.Turn{{Role: contractx.TurnRoleUser, Text: "hi"}}}
	h := NewChat(phraser, conv)

	res, err := h.Reply(context.Background(), "user-1", contractx.GeneralChatParams{Message: "how are you"})
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}

	payload := res.Payload.(contractx.ChatPayload)
	if payload.Message != "Doing great! Want to check your homework?" {
		t.Fatalf("Message = %q", payload.Message)
	}
	if phraser.gotMessage != "how are you" {
		t.Fatalf("phraser got %q", phraser.gotMessage)
	}
	if len(phraser.gotTurns) != 1 {
		t.Fatalf("phraser turns = %+v", phraser.gotTurns)
	}
}

func TestChatReplyPhraserFailureIsNotAnError(t *testing.T) {
	t.Parallel()

	phraser := &fakePhraser{smallTalkErr: errors.New("model unavailable")}
	h := NewChat(phraser, nil)

	res, err := h.Reply(context.Background(), "user-1", contractx.GeneralChatParams{Message: "hello"})
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	payload := res.Payload.(contractx.ChatPayload)
	if payload.Message != "" {
		t.Fatalf("Message = %q, want empty for composer fallback", payload.Message)
	}
}

func TestChatReplyNoPhraser(t *testing.T) {
	t.Parallel()

	h := NewChat(nil, nil)
	res, err := h.Reply(context.Background(), "user-1", contractx.GeneralChatParams{Message: "hello"})
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	payload := res.Payload.(contractx.ChatPayload)
	if payload.Message != "" {
		t.Fatalf("Message = %q", payload.Message)
	}
}

func TestChatReplyContextLoadFailureIsTolerated(t *testing.T) {
	t.Parallel()

	phraser := &fakePhraser{smallTalk: "Hi there!"}
	conv := &fakeConversationStore{err: errors.New("redis down")}
	h := NewChat(phraser, conv)

	res, err := h.Reply(context.Background(), "user-1", contractx.GeneralChatParams{Message: "hello"})
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	payload := res.Payload.(contractx.ChatPayload)
	if payload.Message != "Hi there!" {
		t.Fatalf("Message = %q", payload.Message)
	}
	if phraser.gotTurns != nil {
		t.Fatalf("turns should be nil after load failure, got %+v", phraser.gotTurns)
	}
}
