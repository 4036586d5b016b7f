package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
	openrouterx "github.com/tanpawarit/Aria-Voice-Assistant/pkg/openrouter"
)

// Phraser is the free-form text surface on the composer-role model: small
// talk for general_chat and polishing of confirmation drafts. It talks to
// OpenRouter through the raw OpenAI SDK client; no structured output is
// needed on this path, so no graph either.
type Phraser struct {
	client       *openaisdk.Client
	model        string
	maxTokens    int64
	temperature  float64
	timeout      time.Duration
	systemPrompt string
}

var _ contractx.Phraser = (*Phraser)(nil)

func NewPhraser(cfg openrouterx.Config, systemPrompt string) (*Phraser, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: composer prompt is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("%w: composer model is required", contractx.ErrValidation)
	}

	client := openrouterx.NewClient(cfg)
	if client == nil {
		return nil, fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}

	p := &Phraser{
		client:       client,
		model:        strings.TrimSpace(cfg.Model),
		temperature:  float64(cfg.Temperature),
		timeout:      cfg.Timeout,
		systemPrompt: systemPrompt,
	}
	if cfg.MaxCompletionToken != nil {
		p.maxTokens = int64(*cfg.MaxCompletionToken)
	}
	return p, nil
}

func (p *Phraser) SmallTalk(ctx context.Context, message string, turns []contractx.Turn) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("%w: message is required", contractx.ErrValidation)
	}
	return p.complete(ctx, smallTalkInput(message, turns))
}

func (p *Phraser) Rephrase(ctx context.Context, intent contractx.Intent, draft string) (string, error) {
	draft = strings.TrimSpace(draft)
	if draft == "" {
		return "", fmt.Errorf("%w: draft is required", contractx.ErrValidation)
	}
	return p.complete(ctx, "Draft reply to polish: "+draft)
}

func (p *Phraser) complete(ctx context.Context, input string) (string, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(p.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(p.systemPrompt),
			openaisdk.UserMessage(input),
		},
		Temperature: openaisdk.Float(p.temperature),
	}
	if p.maxTokens > 0 {
		params.MaxTokens = openaisdk.Int(p.maxTokens)
	}

	var opts []option.RequestOption
	if p.timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(p.timeout))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", contractx.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat completion returned no choices", contractx.ErrModelInvoke)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// smallTalkInput renders the optional context block and the utterance in
// the layout the composer prompt describes.
func smallTalkInput(message string, turns []contractx.Turn) string {
	var b strings.Builder
	if len(turns) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, turn := range turns {
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
	b.WriteString("The user says: ")
	b.WriteString(strings.TrimSpace(message))
	return b.String()
}
