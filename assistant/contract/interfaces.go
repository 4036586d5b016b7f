package contract

import (
	"context"
	"time"
)

type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (Classification, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, userID string, c Classification) (Outcome, error)
}

type Composer interface {
	Compose(ctx context.Context, out Outcome) (Reply, error)
}

// Store is the user-scoped document store. Every method operates strictly
// within one user's partition; implementations wrap driver failures with
// ErrPersistence and misses with ErrNotFound.
type Store interface {
	SaveMemory(ctx context.Context, m Memory) (Memory, error)
	RecentMemories(ctx context.Context, userID, category string, limit int) ([]Memory, error)

	SaveEvent(ctx context.Context, e CalendarEvent) (CalendarEvent, error)
	UpcomingEvents(ctx context.Context, userID string, from time.Time, limit int) ([]CalendarEvent, error)

	ReplaceBudget(ctx context.Context, p BudgetPeriod) (BudgetPeriod, error)
	ActiveBudget(ctx context.Context, userID string) (BudgetPeriod, error)
	SaveExpense(ctx context.Context, e Expense) (Expense, error)
	ExpensesSince(ctx context.Context, userID string, since time.Time) ([]Expense, error)

	SaveHomework(ctx context.Context, h HomeworkItem) (HomeworkItem, error)
	ListHomework(ctx context.Context, userID, subject string, includeCompleted bool, limit int) ([]HomeworkItem, error)
	CompleteHomework(ctx context.Context, userID, subject string) (HomeworkItem, error)

	Snapshot(ctx context.Context, userID string) (UserData, error)
}

// ConversationStore keeps the rolling per-user turn log that feeds the
// classifier's lightweight context. Advisory only; losing it must never
// fail a request.
type ConversationStore interface {
	Recent(ctx context.Context, userID string, limit int) ([]Turn, error)
	Append(ctx context.Context, userID string, turns ...Turn) error
}

// ReminderPublisher schedules a delayed reminder ahead of an event start.
// Best-effort; callers log and continue on error.
type ReminderPublisher interface {
	PublishReminder(ctx context.Context, r Reminder) error
}

// Phraser is the free-form LLM text surface: small talk for general_chat
// and optional rephrasing of success replies. Both callers fall back to
// deterministic text when it fails.
type Phraser interface {
	SmallTalk(ctx context.Context, message string, turns []Turn) (string, error)
	Rephrase(ctx context.Context, intent Intent, draft string) (string, error)
}
