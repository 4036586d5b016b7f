package handler

import (
	"context"
	"fmt"
	"time"

	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
)

// budgetPeriodDays is the fixed divisor for the daily allowance; periods
// are rolling months, not calendar months.
const budgetPeriodDays = 30

// BudgetHandler owns the single active budget period and its expenses.
type BudgetHandler struct {
	store contractx.Store
	now   func() time.Time
}

func NewBudget(store contractx.Store) (*BudgetHandler, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", contractx.ErrValidation)
	}
	return &BudgetHandler{
		store: store,
		now:   time.Now,
	}, nil
}

// Set replaces the user's budget period. Previous expenses stay on record
// but the new period start resets what counts against the budget.
func (h *BudgetHandler) Set(ctx context.Context, userID string, p contractx.SetBudgetParams) (contractx.Result, error) {
	saved, err := h.store.ReplaceBudget(ctx, contractx.BudgetPeriod{
		UserID:         userID,
		MonthlyAmount:  p.Amount,
		DailyAllowance: p.Amount / budgetPeriodDays,
		PeriodStart:    h.now(),
	})
	if err != nil {
		return contractx.Result{}, err
	}

	return contractx.Result{
		Payload: contractx.BudgetSetPayload{Period: saved},
		Actions: []contractx.Action{{
			Type:        "budget_set",
			Description: fmt.Sprintf("Monthly budget set to %.2f", saved.MonthlyAmount),
		}},
	}, nil
}

func (h *BudgetHandler) LogExpense(ctx context.Context, userID string, p contractx.LogExpenseParams) (contractx.Result, error) {
	spentAt := p.SpentAt
	if spentAt.IsZero() {
		spentAt = h.now()
	}

	saved, err := h.store.SaveExpense(ctx, contractx.Expense{
		UserID:      userID,
		Amount:      p.Amount,
		Description: p.Description,
		Category:    p.Category,
		SpentAt:     spentAt,
	})
	if err != nil {
		return contractx.Result{}, err
	}

	return contractx.Result{
		Payload: contractx.ExpenseLoggedPayload{Expense: saved},
		Actions: []contractx.Action{{
			Type:        "expense_logged",
			Description: fmt.Sprintf("Logged %.2f for %s", saved.Amount, saved.Category),
		}},
	}, nil
}

// Summary reports spend against the active period. A missing budget is a
// conversational miss, not a failure.
func (h *BudgetHandler) Summary(ctx context.Context, userID string) (contractx.Result, error) {
	period, err := h.store.ActiveBudget(ctx, userID)
	if err != nil {
		return contractx.Result{}, err
	}

	expenses, err := h.store.ExpensesSince(ctx, userID, period.PeriodStart)
	if err != nil {
		return contractx.Result{}, err
	}

	spent := 0.0
	for _, e := range expenses {
		spent += e.Amount
	}

	return contractx.Result{
		Payload: contractx.BudgetSummaryPayload{
			Period:    period,
			Spent:     spent,
			Remaining: period.MonthlyAmount - spent,
		},
	}, nil
}
