package contract

import "time"

// Role selects the model configuration for one of the two LLM surfaces.
type Role string

const (
	RoleClassifier Role = "classifier"
	RoleComposer   Role = "composer"
)

const (
	CategoryGeneral = "general"

	TurnRoleUser      = "user"
	TurnRoleAssistant = "assistant"
)

/* ------------------------------- Entities ------------------------------- */

// Entities are user-scoped documents; ids are opaque UUID strings assigned
// by the store. Nothing here is ever physically deleted by the pipeline,
// except the budget period replaced on set_budget.

type Memory struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

type CalendarEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Start     time.Time `json:"start_time"`
	End       time.Time `json:"end_time,omitzero"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type BudgetPeriod struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	MonthlyAmount  float64   `json:"monthly_amount"`
	DailyAllowance float64   `json:"daily_allowance"`
	PeriodStart    time.Time `json:"period_start"`
	CreatedAt      time.Time `json:"created_at"`
}

type Expense struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	SpentAt     time.Time `json:"spent_at"`
	CreatedAt   time.Time `json:"created_at"`
}

type HomeworkItem struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date,omitzero"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserData is the read-only snapshot served by GET /user-data.
type UserData struct {
	UserID   string          `json:"user_id"`
	Memories []Memory        `json:"memories"`
	Events   []CalendarEvent `json:"events"`
	Budget   *BudgetPeriod   `json:"budget,omitempty"`
	Expenses []Expense       `json:"expenses"`
	Homework []HomeworkItem  `json:"homework"`
}

/* --------------------------- Classifier boundary ------------------------- */

// Turn is one recorded utterance of the rolling conversation context.
type Turn struct {
	Role   string    `json:"role"`
	Text   string    `json:"text"`
	Intent Intent    `json:"intent,omitempty"`
	At     time.Time `json:"at"`
}

type ClassifyRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
	Context []Turn `json:"context,omitempty"`
}

// Classification is the validated classifier output: an intent from the
// closed set plus the raw extracted parameters.
type Classification struct {
	Intent     Intent         `json:"intent"`
	Parameters map[string]any `json:"parameters"`
}

// FallbackClassification routes an utterance to general_chat with the
// verbatim message as the sole parameter. Used whenever classification
// fails; the user still gets a reply.
func FallbackClassification(message string) Classification {
	return Classification{
		Intent:     IntentGeneralChat,
		Parameters: map[string]any{"message": message},
	}
}

/* ------------------------- Validated parameters -------------------------- */

type StoreMemoryParams struct {
	Text     string
	Category string
}

type QueryMemoryParams struct {
	Query    string
	Category string
	Limit    int
}

type ScheduleEventParams struct {
	Title    string
	Start    time.Time
	End      time.Time // zero means unset; handler defaults it
	Location string
}

type QueryEventsParams struct {
	From  time.Time // zero means now
	Limit int
}

type SetBudgetParams struct {
	Amount float64
}

type LogExpenseParams struct {
	Amount      float64
	Description string
	Category    string
	SpentAt     time.Time // zero means now
}

type AddHomeworkParams struct {
	Subject     string
	Description string
	DueDate     time.Time // zero means none
}

type QueryHomeworkParams struct {
	Subject          string
	IncludeCompleted bool
	Limit            int
}

type CompleteHomeworkParams struct {
	Subject string
}

type CalculateParams struct {
	Expression string
}

type GeneralChatParams struct {
	Message string
}

/* ----------------------------- Handler output ---------------------------- */

// Action is the structured record of what a handler did, surfaced to the
// UI alongside the reply.
type Action struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Result carries a handler's typed payload (one of the *Payload types
// below) plus the action records it produced.
type Result struct {
	Payload any
	Actions []Action
}

// Outcome is the dispatcher's answer for one request: the resolved intent
// and either a result or a conversational error. Persistence failures do
// not ride here; Dispatch returns those as Go errors.
type Outcome struct {
	Intent Intent
	Result Result
	Err    error
}

type MemorySavedPayload struct {
	Memory Memory
}

type MemoryListPayload struct {
	Items []Memory
}

type EventScheduledPayload struct {
	Event CalendarEvent
}

type EventListPayload struct {
	Items []CalendarEvent
}

type BudgetSetPayload struct {
	Period BudgetPeriod
}

type ExpenseLoggedPayload struct {
	Expense Expense
}

type BudgetSummaryPayload struct {
	Period    BudgetPeriod
	Spent     float64
	Remaining float64
}

type HomeworkAddedPayload struct {
	Item HomeworkItem
}

type HomeworkListPayload struct {
	Items []HomeworkItem
}

type HomeworkCompletedPayload struct {
	Item HomeworkItem
}

type CalculationPayload struct {
	Expression string
	Value      float64
}

type ChatPayload struct {
	Message string
}

/* ------------------------------- Responses ------------------------------- */

type Reply struct {
	Message string
	Actions []Action
}

// ChatResult is the pipeline's final answer, serialized as the POST /chat
// response body.
type ChatResult struct {
	Message string   `json:"message"`
	Intent  Intent   `json:"intent"`
	UserID  string   `json:"user_id"`
	Actions []Action `json:"actions,omitempty"`
}

// Reminder is the payload published ahead of a calendar event's start.
type Reminder struct {
	EventID string    `json:"event_id"`
	UserID  string    `json:"user_id"`
	Title   string    `json:"title"`
	Start   time.Time `json:"start_time"`
}
