package remind

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
	qstashx "github.com/tanpawarit/Aria-Voice-Assistant/pkg/qstash"
)

// DefaultLead is how far ahead of the event start a reminder fires.
const DefaultLead = 30 * time.Minute

// QStashPublisher schedules event reminders as delayed QStash messages to
// a webhook destination. Events starting inside the lead window publish
// immediately rather than after the event.
type QStashPublisher struct {
	client      *qstashx.Client
	destination string
	lead        time.Duration
	now         func() time.Time
}

var _ contractx.ReminderPublisher = (*QStashPublisher)(nil)

func NewQStash(client *qstashx.Client, destination string, lead time.Duration) (*QStashPublisher, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: qstash client is required", contractx.ErrValidation)
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, fmt.Errorf("%w: reminder destination is required", contractx.ErrValidation)
	}
	if lead <= 0 {
		lead = DefaultLead
	}

	return &QStashPublisher{
		client:      client,
		destination: destination,
		lead:        lead,
		now:         time.Now,
	}, nil
}

func (p *QStashPublisher) PublishReminder(ctx context.Context, r contractx.Reminder) error {
	if r.Start.IsZero() {
		return fmt.Errorf("%w: reminder start time is required", contractx.ErrValidation)
	}

	delay := r.Start.Add(-p.lead).Sub(p.now())
	if delay < 0 {
		delay = 0
	}

	messageID, err := p.client.PublishJSON(ctx, p.destination, r, delay)
	if err != nil {
		return fmt.Errorf("publish reminder: %w", err)
	}

	log.Debug().
		Str("event_id", r.EventID).
		Str("message_id", messageID).
		Dur("delay", delay).
		Msg("reminder scheduled")
	return nil
}
