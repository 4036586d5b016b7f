package dispatch

import (
	"context"
	"fmt"
	"time"

	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
	handlerx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/handler"
)

// Handlers groups the domain handlers bound into the dispatch table.
type Handlers struct {
	Memory     *handlerx.MemoryHandler
	Calendar   *handlerx.CalendarHandler
	Budget     *handlerx.BudgetHandler
	Homework   *handlerx.HomeworkHandler
	Calculator *handlerx.CalculatorHandler
	Chat       *handlerx.ChatHandler
}

func (h Handlers) validate() error {
	if h.Memory == nil {
		return fmt.Errorf("%w: memory handler is required", contractx.ErrValidation)
	}
	if h.Calendar == nil {
		return fmt.Errorf("%w: calendar handler is required", contractx.ErrValidation)
	}
	if h.Budget == nil {
		return fmt.Errorf("%w: budget handler is required", contractx.ErrValidation)
	}
	if h.Homework == nil {
		return fmt.Errorf("%w: homework handler is required", contractx.ErrValidation)
	}
	if h.Calculator == nil {
		return fmt.Errorf("%w: calculator handler is required", contractx.ErrValidation)
	}
	if h.Chat == nil {
		return fmt.Errorf("%w: chat handler is required", contractx.ErrValidation)
	}
	return nil
}

// binding validates one intent's raw parameters and runs its handler.
type binding func(ctx context.Context, userID string, params map[string]any) (contractx.Result, error)

// Dispatcher routes each classification to exactly one handler. The table
// is fixed at construction and must cover the whole intent set; New fails
// fast on any gap so a missing binding can never reach production traffic.
type Dispatcher struct {
	bindings map[contractx.Intent]binding
	now      func() time.Time
}

var _ contractx.Dispatcher = (*Dispatcher)(nil)

func New(handlers Handlers) (*Dispatcher, error) {
	if err := handlers.validate(); err != nil {
		return nil, err
	}

	d := &Dispatcher{now: time.Now}
	d.bindings = map[contractx.Intent]binding{
		contractx.IntentStoreMemory: func(ctx context.Context, userID string, params map[string]any) (contractx.Result, error) {
			p, err := storeMemoryParams(params)
			if err != nil {
				return contractx.Result{}, err
			}
			return handlers.Memory.Store(ctx, userID, p)
		},
		contractx.IntentQueryMemory: func(ctx context.Context, userID string, params map[string]any) (contractx.Result, error) {
			p, err := queryMemoryParams(params)
			if err != nil {
				return contractx.Result{}, err
			}
			return handlers.Memory.Query(ctx, userID, p)
		},
		contractx.IntentScheduleEvent: func(ctx context.Context, userID string, params map[string]any) (contractx.Result, error) {
			p, err := scheduleEventParams(params, d.now())
			if err != nil {
				return contractx.Result{}, err
			}
			return handlers.Calendar.Schedule(ctx, userID, p)
		},
		contractx.IntentQueryEvents: func(ctx context.Context, userID string, params map[string]any) (contractx.Result, error) {
			p, err := queryEventsParams(params, d.now())
			if err != nil {
				return contractx.Result{}, err
			}
			return handlers.Calendar.Upcoming(ctx, userID, p)
		},
		contractx.IntentSetBudget: func(ctx context.Context, userID string, params map[string]any) (contractx.Result, error) {
			p, err := setBudgetParams(params)
			if err != nil {
				return contractx.Result{}, err
			}
			return handlers.Budget.Set(ctx, userID, p)
		},
		contractx.IntentLogExpense: func(ctx context.Context, userID string, params map[string]any) (contractx.Result, error) {
			p, err := logExpenseParams(params, d.now())
			if err != nil {
				return contractx.Result{}, err
			}
			return handlers.Budget.LogExpense(ctx, userID, p)
		},
		contractx.IntentQueryBudget: func(ctx context.Context, userID string, params map[string]any) (contractx.Result, error) {
			return handlers.Budget.Summary(ctx, userID)
		},
		contractx.IntentAddHomework: func(ctx context.Context, userID string, params map[string]any) (contractx.Result, error) {
			p, err := addHomeworkParams(params, d.now())
			if err != nil {
				return contractx.Result{}, err
			}
			return handlers.Homework.Add(ctx, userID, p)
		},
		contractx.IntentQueryHomework: func(ctx context.Context, userID string, params map[string]any) (contractx.Result, error) {
			p, err := queryHomeworkParams(params)
			if err != nil {
				return contractx.Result{}, err
			}
			return handlers.Homework.List(ctx, userID, p)
		},
		contractx.IntentCompleteHomework: func(ctx context.Context, userID string, params map[string]any) (contractx.Result, error) {
			p, err := completeHomeworkParams(params)
			if err != nil {
				return contractx.Result{}, err
			}
			return handlers.Homework.Complete(ctx, userID, p)
		},
		contractx.IntentCalculate: func(ctx context.Context, userID string, params map[string]any) (contractx.Result, error) {
			p, err := calculateParams(params)
			if err != nil {
				return contractx.Result{}, err
			}
			return handlers.Calculator.Evaluate(ctx, p)
		},
		contractx.IntentGeneralChat: func(ctx context.Context, userID string, params map[string]any) (contractx.Result, error) {
			return handlers.Chat.Reply(ctx, userID, generalChatParams(params))
		},
	}

	for _, intent := range contractx.Intents() {
		if _, ok := d.bindings[intent]; !ok {
			return nil, fmt.Errorf("%w: no handler bound for intent %q", contractx.ErrValidation, intent)
		}
	}
	if got, want := len(d.bindings), len(contractx.Intents()); got != want {
		return nil, fmt.Errorf("%w: handler table has %d bindings for %d intents", contractx.ErrValidation, got, want)
	}

	return d, nil
}

// Dispatch runs the one handler bound to the classified intent.
// Conversational failures (missing or invalid parameters, invalid
// expressions, not-found) ride inside the outcome for the composer;
// only persistence and programming errors return as Go errors.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, c contractx.Classification) (contractx.Outcome, error) {
	bind, ok := d.bindings[c.Intent]
	if !ok {
		return contractx.Outcome{}, fmt.Errorf("%w: no handler for intent %q", contractx.ErrValidation, c.Intent)
	}

	result, err := bind(ctx, userID, c.Parameters)
	if err != nil {
		if contractx.Conversational(err) {
			return contractx.Outcome{Intent: c.Intent, Err: err}, nil
		}
		return contractx.Outcome{}, err
	}

	return contractx.Outcome{Intent: c.Intent, Result: result}, nil
}
