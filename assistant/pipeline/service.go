package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
)

// Deps are the pipeline's collaborators. Classifier, dispatcher, and
// composer are required; the conversation store is optional and a nil one
// simply runs every request without rolling context.
type Deps struct {
	Classifier    contractx.Classifier
	Dispatcher    contractx.Dispatcher
	Composer      contractx.Composer
	Conversations contractx.ConversationStore
}

// Service runs one chat request through the compiled graph:
// validate_request -> load_context -> classify -> dispatch ->
// compose_reply -> record_turn.
type Service struct {
	classifier contractx.Classifier
	dispatcher contractx.Dispatcher
	composer   contractx.Composer
	conv       contractx.ConversationStore

	runner compose.Runnable[chatInput, contractx.ChatResult]

	now func() time.Time
}

func New(deps Deps) (*Service, error) {
	if deps.Classifier == nil {
		return nil, fmt.Errorf("%w: classifier is required", contractx.ErrValidation)
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("%w: dispatcher is required", contractx.ErrValidation)
	}
	if deps.Composer == nil {
		return nil, fmt.Errorf("%w: composer is required", contractx.ErrValidation)
	}

	conv := deps.Conversations
	if conv == nil {
		conv = noopConversationStore{}
	}

	s := &Service{
		classifier: deps.Classifier,
		dispatcher: deps.Dispatcher,
		composer:   deps.Composer,
		conv:       conv,
		now:        time.Now,
	}

	runner, err := s.compileChatGraph(context.Background())
	if err != nil {
		return nil, err
	}
	s.runner = runner

	return s, nil
}

// HandleChat answers one utterance for one user. Conversational problems
// come back inside the result's reply text; returned errors are protocol
// level (empty input, persistence, programming faults).
func (s *Service) HandleChat(ctx context.Context, userID, message string) (contractx.ChatResult, error) {
	return s.runner.Invoke(ctx, chatInput{
		UserID:  userID,
		Message: message,
	})
}

type noopConversationStore struct{}

func (noopConversationStore) Recent(context.Context, string, int) ([]contractx.Turn, error) {
	return nil, nil
}

func (noopConversationStore) Append(context.Context, string, ...contractx.Turn) error {
	return nil
}
