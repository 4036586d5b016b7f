package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
)

const defaultEventDuration = time.Hour

// CalendarHandler schedules and lists events. The reminder publisher is
// optional; a nil publisher disables reminders without affecting scheduling.
type CalendarHandler struct {
	store     contractx.Store
	reminders contractx.ReminderPublisher
	now       func() time.Time
}

func NewCalendar(store contractx.Store, reminders contractx.ReminderPublisher) (*CalendarHandler, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", contractx.ErrValidation)
	}
	return &CalendarHandler{
		store:     store,
		reminders: reminders,
		now:       time.Now,
	}, nil
}

func (h *CalendarHandler) Schedule(ctx context.Context, userID string, p contractx.ScheduleEventParams) (contractx.Result, error) {
	end := p.End
	if end.IsZero() {
		end = p.Start.Add(defaultEventDuration)
	}

	saved, err := h.store.SaveEvent(ctx, contractx.CalendarEvent{
		UserID:   userID,
		Title:    p.Title,
		Start:    p.Start,
		End:      end,
		Location: p.Location,
	})
	if err != nil {
		return contractx.Result{}, err
	}

	h.publishReminder(ctx, saved)

	return contractx.Result{
		Payload: contractx.EventScheduledPayload{Event: saved},
		Actions: []contractx.Action{{
			Type:        "event_scheduled",
			Description: fmt.Sprintf("Scheduled %q for %s", saved.Title, saved.Start.Format("Mon Jan 2 at 3:04 PM")),
		}},
	}, nil
}

func (h *CalendarHandler) Upcoming(ctx context.Context, userID string, p contractx.QueryEventsParams) (contractx.Result, error) {
	from := p.From
	if from.IsZero() {
		from = h.now()
	}

	items, err := h.store.UpcomingEvents(ctx, userID, from, p.Limit)
	if err != nil {
		return contractx.Result{}, err
	}

	return contractx.Result{
		Payload: contractx.EventListPayload{Items: items},
	}, nil
}

// publishReminder is best-effort: a failed or absent publisher never
// affects the stored event or the reply.
func (h *CalendarHandler) publishReminder(ctx context.Context, event contractx.CalendarEvent) {
	if h.reminders == nil {
		return
	}
	reminder := contractx.Reminder{
		EventID: event.ID,
		UserID:  event.UserID,
		Title:   event.Title,
		Start:   event.Start,
	}
	if err := h.reminders.PublishReminder(ctx, reminder); err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Msg("reminder publish failed")
	}
}
