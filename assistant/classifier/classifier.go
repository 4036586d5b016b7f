package classifier

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
)

// Service labels an utterance with exactly one intent from the closed set
// and extracts its raw string parameters. Every model or schema failure
// surfaces as ErrClassification so the caller can fall back to general_chat.
type Service struct {
	runner compose.Runnable[map[string]any, classifierLLMOutput]
}

var _ contractx.Classifier = (*Service)(nil)

type classifierLLMOutput struct {
	Intent     string         `json:"intent"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

func New(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*Service, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: classifier prompt is required", contractx.ErrValidation)
	}

	runner, err := compileClassifierGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	return &Service{runner: runner}, nil
}

func (s *Service) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.Classification, error) {
	if strings.TrimSpace(req.Message) == "" {
		return contractx.Classification{}, fmt.Errorf("%w: message is required", contractx.ErrValidation)
	}

	out, err := s.runner.Invoke(ctx, map[string]any{
		"input": buildInput(req),
	})
	if err != nil {
		return contractx.Classification{}, fmt.Errorf("%w: classify invoke: %v", contractx.ErrClassification, err)
	}

	cls, err := toClassification(out)
	if err != nil {
		return contractx.Classification{}, fmt.Errorf("%w: %v", contractx.ErrClassification, err)
	}
	return cls, nil
}

// buildInput renders the context block and current message in the layout
// the classifier prompt describes.
func buildInput(req contractx.ClassifyRequest) string {
	var b strings.Builder
	if len(req.Context) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, turn := range req.Context {
			text := strings.TrimSpace(turn.Text)
			if text == "" {
				continue
			}
			b.WriteString(turn.Role)
			b.WriteString(": ")
			b.WriteString(text)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	b.WriteString("Message: ")
	b.WriteString(strings.TrimSpace(req.Message))
	return b.String()
}

// toClassification enforces the closed intent set and normalizes parameters
// so downstream code never sees a nil map.
func toClassification(out classifierLLMOutput) (contractx.Classification, error) {
	intent, err := contractx.ParseIntent(strings.TrimSpace(out.Intent))
	if err != nil {
		return contractx.Classification{}, err
	}

	params := out.Parameters
	if params == nil {
		params = map[string]any{}
	}
	return contractx.Classification{
		Intent:     intent,
		Parameters: params,
	}, nil
}
