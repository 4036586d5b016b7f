package handler

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
)

// smallTalkContextTurns bounds how much conversation the phraser sees.
const smallTalkContextTurns = 6

// ChatHandler answers general_chat. Both deps are optional: without a
// phraser the composer's canned reply is used, and without a conversation
// store small talk just loses its context.
type ChatHandler struct {
	phraser contractx.Phraser
	conv    contractx.ConversationStore
}

func NewChat(phraser contractx.Phraser, conv contractx.ConversationStore) *ChatHandler {
	return &ChatHandler{
		phraser: phraser,
		conv:    conv,
	}
}

// Reply produces small talk via the phraser. An empty payload message tells
// the composer to fall back to its deterministic reply; this method never
// fails the request.
func (h *ChatHandler) Reply(ctx context.Context, userID string, p contractx.GeneralChatParams) (contractx.Result, error) {
	message := strings.TrimSpace(p.Message)

	reply := ""
	if h.phraser != nil {
		var turns []contractx.Turn
		if h.conv != nil {
			recent, err := h.conv.Recent(ctx, userID, smallTalkContextTurns)
			if err != nil {
				log.Warn().Err(err).Str("user_id", userID).Msg("small talk context load failed")
			} else {
				turns = recent
			}
		}

		text, err := h.phraser.SmallTalk(ctx, message, turns)
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("small talk phrasing failed")
		} else {
			reply = strings.TrimSpace(text)
		}
	}

	return contractx.Result{
		Payload: contractx.ChatPayload{Message: reply},
	}, nil
}
