package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
)

// contextTurns bounds how much rolling conversation feeds the classifier.
const contextTurns = 6

type chatInput struct {
	UserID  string
	Message string
}

// chatState is threaded through the graph; each node fills its slice of it.
type chatState struct {
	UserID  string
	Message string
	Now     time.Time

	Context        []contractx.Turn
	Classification contractx.Classification
	Outcome        contractx.Outcome
	Reply          contractx.Reply
}

func validateRequest(in chatInput, nowFn func() time.Time) (*chatState, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", contractx.ErrValidation)
	}

	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, contractx.ErrEmptyInput
	}

	return &chatState{
		UserID:  userID,
		Message: message,
		Now:     nowFn().UTC(),
	}, nil
}

// loadContext is advisory: a dead conversation store degrades the
// classifier's context, never the request.
func loadContext(ctx context.Context, in *chatState, conv contractx.ConversationStore) (*chatState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	turns, err := conv.Recent(ctx, in.UserID, contextTurns)
	if err != nil {
		log.Warn().Err(err).Str("user_id", in.UserID).Msg("conversation context load failed")
		return in, nil
	}
	in.Context = turns
	return in, nil
}

func classify(ctx context.Context, in *chatState, classifier contractx.Classifier) (*chatState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	cls, err := classifier.Classify(ctx, contractx.ClassifyRequest{
		UserID:  in.UserID,
		Message: in.Message,
		Context: in.Context,
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", in.UserID).Msg("classification failed, routing to general chat")
		cls = contractx.FallbackClassification(in.Message)
	}

	if cls.Intent == contractx.IntentGeneralChat {
		// Small talk needs the verbatim utterance; the model is not
		// trusted to echo it back.
		if cls.Parameters == nil {
			cls.Parameters = map[string]any{}
		}
		cls.Parameters["message"] = in.Message
	}

	in.Classification = cls
	return in, nil
}

func dispatch(ctx context.Context, in *chatState, dispatcher contractx.Dispatcher) (*chatState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	out, err := dispatcher.Dispatch(ctx, in.UserID, in.Classification)
	if err != nil {
		return nil, err
	}
	in.Outcome = out
	return in, nil
}

func composeReply(ctx context.Context, in *chatState, composer contractx.Composer) (*chatState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply, err := composer.Compose(ctx, in.Outcome)
	if err != nil {
		return nil, err
	}
	in.Reply = reply
	return in, nil
}

// recordTurn appends both sides of the exchange to the rolling context and
// shapes the final result. Recording is advisory, like loadContext.
func recordTurn(ctx context.Context, in *chatState, conv contractx.ConversationStore) (contractx.ChatResult, error) {
	if in == nil {
		return contractx.ChatResult{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	err := conv.Append(ctx, in.UserID,
		contractx.Turn{Role: contractx.TurnRoleUser, Text: in.Message, Intent: in.Outcome.Intent, At: in.Now},
		contractx.Turn{Role: contractx.TurnRoleAssistant, Text: in.Reply.Message, Intent: in.Outcome.Intent, At: in.Now},
	)
	if err != nil {
		log.Warn().Err(err).Str("user_id", in.UserID).Msg("conversation record failed")
	}

	return contractx.ChatResult{
		Message: in.Reply.Message,
		Intent:  in.Outcome.Intent,
		UserID:  in.UserID,
		Actions: in.Reply.Actions,
	}, nil
}
