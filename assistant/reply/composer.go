package reply

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
)

const (
	eventTimeLayout = "Mon Jan 2 at 3:04 PM"
	dueDateLayout   = "Monday, January 2"

	chatFallback = "I can help with remembering things, your calendar, budget, homework, and quick math. What would you like to do?"
	genericReply = "Sorry, I didn't catch that. Could you say it again?"
)

// Composer renders one dispatch outcome as the assistant's final reply.
// Every draft is a deterministic template; confirmation drafts may be
// polished by the phraser, and the draft stands whenever polishing fails.
// Compose never produces an empty message.
type Composer struct {
	phraser contractx.Phraser
}

// New builds a composer. The phraser is optional; nil keeps every reply
// on its deterministic template.
func New(phraser contractx.Phraser) *Composer {
	return &Composer{phraser: phraser}
}

var _ contractx.Composer = (*Composer)(nil)

func (c *Composer) Compose(ctx context.Context, out contractx.Outcome) (contractx.Reply, error) {
	if out.Err != nil {
		return contractx.Reply{Message: clarifyingReply(out.Intent, out.Err)}, nil
	}

	draft, polishable := draftReply(out)
	if polishable {
		draft = c.rephrase(ctx, out.Intent, draft)
	}
	return contractx.Reply{Message: draft, Actions: out.Result.Actions}, nil
}

func (c *Composer) rephrase(ctx context.Context, intent contractx.Intent, draft string) string {
	if c.phraser == nil {
		return draft
	}

	polished, err := c.phraser.Rephrase(ctx, intent, draft)
	if err != nil {
		log.Warn().Err(err).Str("intent", string(intent)).Msg("reply rephrase failed")
		return draft
	}
	if polished = strings.TrimSpace(polished); polished == "" {
		return draft
	}
	return polished
}

// draftReply maps a success payload to its template. The second return
// reports whether the phraser may rework the text: short confirmations
// yes, lists and computed numbers no, so stored data is read back exactly
// as persisted.
func draftReply(out contractx.Outcome) (string, bool) {
	switch p := out.Result.Payload.(type) {
	case contractx.MemorySavedPayload:
		return "I've stored that in my memory.", true

	case contractx.MemoryListPayload:
		if len(p.Items) == 0 {
			return "I don't have anything stored for that yet.", false
		}
		texts := make([]string, 0, len(p.Items))
		for _, m := range p.Items {
			texts = append(texts, m.Text)
		}
		return "Here's what I remember: " + strings.Join(texts, "; ") + ".", false

	case contractx.EventScheduledPayload:
		return fmt.Sprintf("Scheduled %q for %s.", p.Event.Title, p.Event.Start.Format(eventTimeLayout)), true

	case contractx.EventListPayload:
		if len(p.Items) == 0 {
			return "You have nothing coming up on your calendar.", false
		}
		lines := make([]string, 0, len(p.Items)+1)
		lines = append(lines, "Here's what's coming up:")
		for _, e := range p.Items {
			line := fmt.Sprintf("- %s on %s", e.Title, e.Start.Format(eventTimeLayout))
			if e.Location != "" {
				line += ", " + e.Location
			}
			lines = append(lines, line)
		}
		return strings.Join(lines, "\n"), false

	case contractx.BudgetSetPayload:
		return fmt.Sprintf("Your monthly budget is set to %s. That gives you about %s a day.",
			money(p.Period.MonthlyAmount), money(p.Period.DailyAllowance)), true

	case contractx.ExpenseLoggedPayload:
		what := p.Expense.Description
		if what == "" {
			what = p.Expense.Category
		}
		if what == "" {
			what = "that"
		}
		return fmt.Sprintf("Logged %s for %s.", money(p.Expense.Amount), what), true

	case contractx.BudgetSummaryPayload:
		if p.Remaining < 0 {
			return fmt.Sprintf("You've spent %s of your %s budget. You're over by %s.",
				money(p.Spent), money(p.Period.MonthlyAmount), money(-p.Remaining)), true
		}
		return fmt.Sprintf("You've spent %s of your %s budget. You have %s left.",
			money(p.Spent), money(p.Period.MonthlyAmount), money(p.Remaining)), true

	case contractx.HomeworkAddedPayload:
		text := fmt.Sprintf("Added %s homework: %s.", p.Item.Subject, p.Item.Description)
		if !p.Item.DueDate.IsZero() {
			text += fmt.Sprintf(" It's due %s.", p.Item.DueDate.Format(dueDateLayout))
		}
		return text, true

	case contractx.HomeworkListPayload:
		if len(p.Items) == 0 {
			return "No pending homework. You're all caught up.", false
		}
		lines := make([]string, 0, len(p.Items)+1)
		lines = append(lines, "Here's your homework:")
		for _, hw := range p.Items {
			line := fmt.Sprintf("- %s: %s", hw.Subject, hw.Description)
			if !hw.DueDate.IsZero() {
				line += fmt.Sprintf(" (due %s)", hw.DueDate.Format(dueDateLayout))
			}
			if hw.Completed {
				line += " (done)"
			}
			lines = append(lines, line)
		}
		return strings.Join(lines, "\n"), false

	case contractx.HomeworkCompletedPayload:
		return fmt.Sprintf("Nice work. I've marked your %s homework as done.", p.Item.Subject), true

	case contractx.CalculationPayload:
		return fmt.Sprintf("The result is %s.", formatNumber(p.Value)), false

	case contractx.ChatPayload:
		if msg := strings.TrimSpace(p.Message); msg != "" {
			return msg, false
		}
		return chatFallback, false

	default:
		return genericReply, false
	}
}

func clarifyingReply(intent contractx.Intent, err error) string {
	switch {
	case errors.Is(err, contractx.ErrInvalidExpression):
		return "I couldn't work that out as a calculation. Try something like 15% of 200 or 25 times 4."

	case errors.Is(err, contractx.ErrNotFound):
		switch intent {
		case contractx.IntentQueryBudget:
			return "You haven't set a budget yet. Tell me a monthly amount to get started."
		case contractx.IntentCompleteHomework:
			return "I couldn't find any pending homework for that subject."
		default:
			return "I couldn't find anything matching that."
		}

	case errors.Is(err, contractx.ErrMissingParameter):
		if detail := missingDetail(err); detail != "" {
			return fmt.Sprintf("I need the %s for that. Could you say it again with that included?", detail)
		}
		return "I'm missing a detail I need for that. Could you say it again with a bit more info?"

	case errors.Is(err, contractx.ErrInvalidParameter):
		return "Part of that didn't make sense to me. Could you say it a different way?"

	default:
		return genericReply
	}
}

// missingDetail recovers the parameter name from a missing-parameter wrap.
// Wraps follow the "%w: <name>" shape; anything else yields "".
func missingDetail(err error) string {
	prefix := contractx.ErrMissingParameter.Error() + ": "
	msg := err.Error()
	if !strings.HasPrefix(msg, prefix) || len(msg) == len(prefix) {
		return ""
	}
	return msg[len(prefix):]
}

func money(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}

// formatNumber prints integral results bare and rounds the rest to two
// places, so float noise never reaches the spoken reply.
func formatNumber(v float64) string {
	if r := math.Round(v); math.Abs(v-r) < 1e-9 {
		return strconv.FormatFloat(r, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
