package handler

import (
	"context"
	"time"

	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
)

// fakeStore implements contract.Store with overridable function fields.
// Unset fields echo the input back with a fixed id.
type fakeStore struct {
	saveMemoryFn       func(ctx context.Context, m contractx.Memory) (contractx.Memory, error)
	recentMemoriesFn   func(ctx context.Context, userID, category string, limit int) ([]contractx.Memory, error)
	saveEventFn        func(ctx context.Context, e contractx.CalendarEvent) (contractx.CalendarEvent, error)
	upcomingEventsFn   func(ctx context.Context, userID string, from time.Time, limit int) ([]contractx.CalendarEvent, error)
	replaceBudgetFn    func(ctx context.Context, p contractx.BudgetPeriod) (contractx.BudgetPeriod, error)
	activeBudgetFn     func(ctx context.Context, userID string) (contractx.BudgetPeriod, error)
	saveExpenseFn      func(ctx context.Context, e contractx.Expense) (contractx.Expense, error)
	expensesSinceFn    func(ctx context.Context, userID string, since time.Time) ([]contractx.Expense, error)
	saveHomeworkFn     func(ctx context.Context, h contractx.HomeworkItem) (contractx.HomeworkItem, error)
	listHomeworkFn     func(ctx context.Context, userID, subject string, includeCompleted bool, limit int) ([]contractx.HomeworkItem, error)
	completeHomeworkFn func(ctx context.Context, userID, subject string) (contractx.HomeworkItem, error)
	snapshotFn         func(ctx context.Context, userID string) (contractx.UserData, error)
}

var _ contractx.Store = (*fakeStore)(nil)

func (f *fakeStore) SaveMemory(ctx context.Context, m contractx.Memory) (contractx.Memory, error) {
	if f.saveMemoryFn != nil {
		return f.saveMemoryFn(ctx, m)
	}
	m.ID = "mem-1"
	return m, nil
}

func (f *fakeStore) RecentMemories(ctx context.Context, userID, category string, limit int) ([]contractx.Memory, error) {
	if f.recentMemoriesFn != nil {
		return f.recentMemoriesFn(ctx, userID, category, limit)
	}
	return nil, nil
}

func (f *fakeStore) SaveEvent(ctx context.Context, e contractx.CalendarEvent) (contractx.CalendarEvent, error) {
	if f.saveEventFn != nil {
		return f.saveEventFn(ctx, e)
	}
	e.ID = "evt-1"
	return e, nil
}

func (f *fakeStore) UpcomingEvents(ctx context.Context, userID string, from time.Time, limit int) ([]contractx.CalendarEvent, error) {
	if f.upcomingEventsFn != nil {
		return f.upcomingEventsFn(ctx, userID, from, limit)
	}
	return nil, nil
}

func (f *fakeStore) ReplaceBudget(ctx context.Context, p contractx.BudgetPeriod) (contractx.BudgetPeriod, error) {
	if f.replaceBudgetFn != nil {
		return f.replaceBudgetFn(ctx, p)
	}
	p.ID = "bp-1"
	return p, nil
}

func (f *fakeStore) ActiveBudget(ctx context.Context, userID string) (contractx.BudgetPeriod, error) {
	if f.activeBudgetFn != nil {
		return f.activeBudgetFn(ctx, userID)
	}
	return contractx.BudgetPeriod{}, contractx.ErrNotFound
}

func (f *fakeStore) SaveExpense(ctx context.Context, e contractx.Expense) (contractx.Expense, error) {
	if f.saveExpenseFn != nil {
		return f.saveExpenseFn(ctx, e)
	}
	e.ID = "exp-1"
	return e, nil
}

func (f *fakeStore) ExpensesSince(ctx context.Context, userID string, since time.Time) ([]contractx.Expense, error) {
	if f.expensesSinceFn != nil {
		return f.expensesSinceFn(ctx, userID, since)
	}
	return nil, nil
}

func (f *fakeStore) SaveHomework(ctx context.Context, h contractx.HomeworkItem) (contractx.HomeworkItem, error) {
	if f.saveHomeworkFn != nil {
		return f.saveHomeworkFn(ctx, h)
	}
	h.ID = "hw-1"
	return h, nil
}

func (f *fakeStore) ListHomework(ctx context.Context, userID, subject string, includeCompleted bool, limit int) ([]contractx.HomeworkItem, error) {
	if f.listHomeworkFn != nil {
		return f.listHomeworkFn(ctx, userID, subject, includeCompleted, limit)
	}
	return nil, nil
}

func (f *fakeStore) CompleteHomework(ctx context.Context, userID, subject string) (contractx.HomeworkItem, error) {
	if f.completeHomeworkFn != nil {
		return f.completeHomeworkFn(ctx, userID, subject)
	}
	return contractx.HomeworkItem{}, contractx.ErrNotFound
}

func (f *fakeStore) Snapshot(ctx context.Context, userID string) (contractx.UserData, error) {
	if f.snapshotFn != nil {
		return f.snapshotFn(ctx, userID)
	}
	return contractx.UserData{UserID: userID}, nil
}
