package contract

import "fmt"

// Intent is the closed set of actions the classifier may emit. Every member
// has exactly one handler registered at startup; there is no dynamic
// registration.
type Intent string

const (
	IntentStoreMemory      Intent = "store_memory"
	IntentQueryMemory      Intent = "query_memory"
	IntentScheduleEvent    Intent = "schedule_event"
	IntentQueryEvents      Intent = "query_events"
	IntentSetBudget        Intent = "set_budget"
	IntentLogExpense       Intent = "log_expense"
	IntentQueryBudget      Intent = "query_budget"
	IntentAddHomework      Intent = "add_homework"
	IntentQueryHomework    Intent = "query_homework"
	IntentCompleteHomework Intent = "complete_homework"
	IntentCalculate        Intent = "calculate"
	IntentGeneralChat      Intent = "general_chat"
)

// Intents returns every member of the closed set, in dispatch-table order.
func Intents() []Intent {
	return []Intent{
		IntentStoreMemory,
		IntentQueryMemory,
		IntentScheduleEvent,
		IntentQueryEvents,
		IntentSetBudget,
		IntentLogExpense,
		IntentQueryBudget,
		IntentAddHomework,
		IntentQueryHomework,
		IntentCompleteHomework,
		IntentCalculate,
		IntentGeneralChat,
	}
}

func (i Intent) Valid() bool {
	for _, known := range Intents() {
		if i == known {
			return true
		}
	}
	return false
}

// ParseIntent maps a raw classifier label onto the closed set. Labels
// outside the set are a schema violation, not a new intent.
func ParseIntent(raw string) (Intent, error) {
	in := Intent(raw)
	if !in.Valid() {
		return "", fmt.Errorf("%w: unknown intent %q", ErrSchemaViolation, raw)
	}
	return in, nil
}
