package dispatch

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
	timeparsex "github.com/tanpawarit/Aria-Voice-Assistant/assistant/timeparse"
)

const (
	defaultMemoryLimit   = 5
	defaultEventLimit    = 5
	defaultHomeworkLimit = 10
)

// The classifier emits raw strings; JSON decoding may also surface numbers
// and bools. Extractors normalize both, then enforce the per-intent
// contract: absence is ErrMissingParameter, an unusable value is
// ErrInvalidParameter. Both read back to the user as conversation.

func stringParam(params map[string]any, key string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func requireString(params map[string]any, key string) (string, error) {
	s := stringParam(params, key)
	if s == "" {
		return "", fmt.Errorf("%w: %s", contractx.ErrMissingParameter, key)
	}
	return s, nil
}

func floatParam(params map[string]any, key string) (float64, bool, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		return n, true, nil
	case int:
		return float64(n), true, nil
	case string:
		s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(n), "$"))
		if s == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, fmt.Errorf("%w: %s=%q is not a number", contractx.ErrInvalidParameter, key, n)
		}
		return f, true, nil
	default:
		return 0, false, fmt.Errorf("%w: %s has unsupported type %T", contractx.ErrInvalidParameter, key, v)
	}
}

func requireFloat(params map[string]any, key string) (float64, error) {
	f, ok, err := floatParam(params, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s", contractx.ErrMissingParameter, key)
	}
	return f, nil
}

func intParam(params map[string]any, key string, fallback int) (int, error) {
	f, ok, err := floatParam(params, key)
	if err != nil {
		return 0, err
	}
	if !ok || int(f) <= 0 {
		return fallback, nil
	}
	return int(f), nil
}

func boolParam(params map[string]any, key string) bool {
	v, ok := params[key]
	if !ok || v == nil {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "1":
			return true
		}
	case float64:
		return b != 0
	}
	return false
}

func parseDateParam(params map[string]any, key string, now time.Time) (time.Time, error) {
	raw := stringParam(params, key)
	if raw == "" {
		return time.Time{}, nil
	}
	day, err := timeparsex.Date(raw, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s=%q", contractx.ErrInvalidParameter, key, raw)
	}
	return day, nil
}

/* --------------------------- Per-intent contracts ------------------------- */

func storeMemoryParams(params map[string]any) (contractx.StoreMemoryParams, error) {
	text, err := requireString(params, "text")
	if err != nil {
		return contractx.StoreMemoryParams{}, err
	}
	return contractx.StoreMemoryParams{
		Text:     text,
		Category: stringParam(params, "category"),
	}, nil
}

func queryMemoryParams(params map[string]any) (contractx.QueryMemoryParams, error) {
	limit, err := intParam(params, "limit", defaultMemoryLimit)
	if err != nil {
		return contractx.QueryMemoryParams{}, err
	}
	return contractx.QueryMemoryParams{
		Query:    stringParam(params, "query"),
		Category: stringParam(params, "category"),
		Limit:    limit,
	}, nil
}

// scheduleEventParams needs at least a date or a time; a date without a
// time starts at the default event hour, a time without a date means today.
func scheduleEventParams(params map[string]any, now time.Time) (contractx.ScheduleEventParams, error) {
	title, err := requireString(params, "title")
	if err != nil {
		return contractx.ScheduleEventParams{}, err
	}

	dateRaw := stringParam(params, "date")
	timeRaw := stringParam(params, "time")
	if dateRaw == "" && timeRaw == "" {
		return contractx.ScheduleEventParams{}, fmt.Errorf("%w: date or time", contractx.ErrMissingParameter)
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if dateRaw != "" {
		day, err = timeparsex.Date(dateRaw, now)
		if err != nil {
			return contractx.ScheduleEventParams{}, fmt.Errorf("%w: date=%q", contractx.ErrInvalidParameter, dateRaw)
		}
	}

	hour, minute := timeparsex.DefaultEventHour, timeparsex.DefaultEventMinute
	if timeRaw != "" {
		hour, minute, err = timeparsex.TimeOfDay(timeRaw)
		if err != nil {
			return contractx.ScheduleEventParams{}, fmt.Errorf("%w: time=%q", contractx.ErrInvalidParameter, timeRaw)
		}
	}
	start := timeparsex.At(day, hour, minute)

	var end time.Time
	if endRaw := stringParam(params, "end"); endRaw != "" {
		endHour, endMinute, err := timeparsex.TimeOfDay(endRaw)
		if err != nil {
			return contractx.ScheduleEventParams{}, fmt.Errorf("%w: end=%q", contractx.ErrInvalidParameter, endRaw)
		}
		end = timeparsex.At(day, endHour, endMinute)
		if !end.After(start) {
			return contractx.ScheduleEventParams{}, fmt.Errorf("%w: end %q is not after the start", contractx.ErrInvalidParameter, endRaw)
		}
	}

	return contractx.ScheduleEventParams{
		Title:    title,
		Start:    start,
		End:      end,
		Location: stringParam(params, "location"),
	}, nil
}

func queryEventsParams(params map[string]any, now time.Time) (contractx.QueryEventsParams, error) {
	from, err := parseDateParam(params, "date", now)
	if err != nil {
		return contractx.QueryEventsParams{}, err
	}
	limit, err := intParam(params, "limit", defaultEventLimit)
	if err != nil {
		return contractx.QueryEventsParams{}, err
	}
	return contractx.QueryEventsParams{
		From:  from,
		Limit: limit,
	}, nil
}

func setBudgetParams(params map[string]any) (contractx.SetBudgetParams, error) {
	amount, err := requireFloat(params, "amount")
	if err != nil {
		return contractx.SetBudgetParams{}, err
	}
	if amount < 0 {
		return contractx.SetBudgetParams{}, fmt.Errorf("%w: amount must be >= 0", contractx.ErrInvalidParameter)
	}
	return contractx.SetBudgetParams{Amount: amount}, nil
}

func logExpenseParams(params map[string]any, now time.Time) (contractx.LogExpenseParams, error) {
	amount, err := requireFloat(params, "amount")
	if err != nil {
		return contractx.LogExpenseParams{}, err
	}
	if amount <= 0 {
		return contractx.LogExpenseParams{}, fmt.Errorf("%w: amount must be > 0", contractx.ErrInvalidParameter)
	}

	spentAt, err := parseDateParam(params, "date", now)
	if err != nil {
		return contractx.LogExpenseParams{}, err
	}

	return contractx.LogExpenseParams{
		Amount:      amount,
		Description: stringParam(params, "description"),
		Category:    stringParam(params, "category"),
		SpentAt:     spentAt,
	}, nil
}

func addHomeworkParams(params map[string]any, now time.Time) (contractx.AddHomeworkParams, error) {
	subject, err := requireString(params, "subject")
	if err != nil {
		return contractx.AddHomeworkParams{}, err
	}
	description, err := requireString(params, "description")
	if err != nil {
		return contractx.AddHomeworkParams{}, err
	}
	dueDate, err := parseDateParam(params, "due_date", now)
	if err != nil {
		return contractx.AddHomeworkParams{}, err
	}

	return contractx.AddHomeworkParams{
		Subject:     subject,
		Description: description,
		DueDate:     dueDate,
	}, nil
}

func queryHomeworkParams(params map[string]any) (contractx.QueryHomeworkParams, error) {
	limit, err := intParam(params, "limit", defaultHomeworkLimit)
	if err != nil {
		return contractx.QueryHomeworkParams{}, err
	}
	return contractx.QueryHomeworkParams{
		Subject:          stringParam(params, "subject"),
		IncludeCompleted: boolParam(params, "include_completed"),
		Limit:            limit,
	}, nil
}

func completeHomeworkParams(params map[string]any) (contractx.CompleteHomeworkParams, error) {
	subject, err := requireString(params, "subject")
	if err != nil {
		return contractx.CompleteHomeworkParams{}, err
	}
	return contractx.CompleteHomeworkParams{Subject: subject}, nil
}

func calculateParams(params map[string]any) (contractx.CalculateParams, error) {
	expression, err := requireString(params, "expression")
	if err != nil {
		return contractx.CalculateParams{}, err
	}
	return contractx.CalculateParams{Expression: expression}, nil
}

func generalChatParams(params map[string]any) contractx.GeneralChatParams {
	return contractx.GeneralChatParams{Message: stringParam(params, "message")}
}
