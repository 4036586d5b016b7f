package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
)

var ErrInvalidUser = errors.New("user id is empty")

const (
	defaultConvKeyPrefix = "aria:conv:"
	defaultConvTTL       = 24 * time.Hour
	defaultConvMaxTurns  = 12
	maxResponseSizeBytes = 2 << 20
)

// ConversationOption customizes UpstashConversationStore.
type ConversationOption func(*UpstashConversationStore)

func WithKeyPrefix(prefix string) ConversationOption {
	return func(s *UpstashConversationStore) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			s.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) ConversationOption {
	return func(s *UpstashConversationStore) {
		s.ttl = ttl
	}
}

func WithMaxTurns(n int) ConversationOption {
	return func(s *UpstashConversationStore) {
		if n > 0 {
			s.maxTurns = n
		}
	}
}

func WithHTTPClient(client *http.Client) ConversationOption {
	return func(s *UpstashConversationStore) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// UpstashConversationStore keeps each user's rolling turn log in Upstash
// Redis via REST: a capped list with a TTL. The log is advisory context for
// the classifier, not a durable record.
type UpstashConversationStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
	keyPrefix  string
	ttl        time.Duration
	maxTurns   int
}

var _ contractx.ConversationStore = (*UpstashConversationStore)(nil)

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type UpstashRedisConfig struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

func NewUpstashConversationStore(cfg UpstashRedisConfig, opts ...ConversationOption) (*UpstashConversationStore, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	store := &UpstashConversationStore{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		keyPrefix: defaultConvKeyPrefix,
		ttl:       defaultConvTTL,
		maxTurns:  defaultConvMaxTurns,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	if store.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}

	return store, nil
}

// Append pushes turns onto the front of the user's log, trims it to the cap,
// and refreshes the TTL.
func (s *UpstashConversationStore) Append(ctx context.Context, userID string, turns ...contractx.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	key, err := s.redisKey(userID)
	if err != nil {
		return err
	}

	cmd := []any{"LPUSH", key}
	for _, turn := range turns {
		payload, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("marshal turn: %w", err)
		}
		cmd = append(cmd, string(payload))
	}
	if _, err := s.exec(ctx, cmd); err != nil {
		return err
	}

	if _, err := s.exec(ctx, []any{"LTRIM", key, 0, s.maxTurns - 1}); err != nil {
		return err
	}

	if s.ttl > 0 {
		if _, err := s.exec(ctx, []any{"EXPIRE", key, ttlSeconds(s.ttl)}); err != nil {
			return err
		}
	}
	return nil
}

// Recent returns up to limit turns in chronological order, oldest first.
func (s *UpstashConversationStore) Recent(ctx context.Context, userID string, limit int) ([]contractx.Turn, error) {
	key, err := s.redisKey(userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.maxTurns {
		limit = s.maxTurns
	}

	resp, err := s.exec(ctx, []any{"LRANGE", key, 0, limit - 1})
	if err != nil {
		return nil, err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, nil
	}

	var encoded []string
	if err := json.Unmarshal(result, &encoded); err != nil {
		return nil, fmt.Errorf("decode turn list: %w", err)
	}

	turns := make([]contractx.Turn, 0, len(encoded))
	for _, raw := range encoded {
		var turn contractx.Turn
		if err := json.Unmarshal([]byte(raw), &turn); err != nil {
			return nil, fmt.Errorf("unmarshal turn: %w", err)
		}
		turns = append(turns, turn)
	}

	// LPUSH stores newest first; flip to chronological.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (s *UpstashConversationStore) redisKey(userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", ErrInvalidUser
	}
	prefix := strings.TrimSpace(s.keyPrefix)
	return prefix + userID, nil
}

func (s *UpstashConversationStore) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	if s == nil {
		return nil, errors.New("nil store")
	}
	if len(command) == 0 {
		return nil, errors.New("empty redis command")
	}
	if strings.TrimSpace(s.baseURL) == "" {
		return nil, errors.New("empty redis url")
	}
	if strings.TrimSpace(s.token) == "" {
		return nil, errors.New("empty redis token")
	}

	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
