package quota

import "fmt"

// DefaultDailyBudgetSeconds is the standard tier's daily allowance.
const DefaultDailyBudgetSeconds = 300

// Decision is the outcome of an admission check. It is a plain value and is
// never persisted.
type Decision struct {
	Admitted  bool
	Reason    string
	Remaining int // seconds left after the request; meaningless when Unlimited
	Unlimited bool
}

// Policy decides whether a requested duration fits the user's daily budget.
// It is a pure function of its inputs and holds no state beyond the budget.
type Policy struct {
	BudgetSeconds int
}

// NewPolicy returns a Policy with the given daily budget. Non-positive
// budgets fall back to the default.
func NewPolicy(budgetSeconds int) Policy {
	if budgetSeconds <= 0 {
		budgetSeconds = DefaultDailyBudgetSeconds
	}
	return Policy{BudgetSeconds: budgetSeconds}
}

// Evaluate decides whether requestedSeconds of audio is admissible given the
// user's tier and usage so far today.
func (p Policy) Evaluate(isPro bool, dailyUsage, requestedSeconds int) Decision {
	if isPro {
		return Decision{
			Admitted:  true,
			Unlimited: true,
			Reason:    "PRO user - unlimited access",
		}
	}

	remaining := p.BudgetSeconds - dailyUsage
	if remaining <= 0 {
		return Decision{
			Reason: fmt.Sprintf("Daily limit exceeded (%s). Upgrade to PRO for unlimited access.", FormatSeconds(p.BudgetSeconds)),
		}
	}
	if requestedSeconds > remaining {
		return Decision{
			Remaining: remaining,
			Reason:    fmt.Sprintf("Voice message too long. You have %s remaining today.", FormatSeconds(remaining)),
		}
	}

	left := remaining - requestedSeconds
	return Decision{
		Admitted:  true,
		Remaining: left,
		Reason:    fmt.Sprintf("Processing allowed. %s remaining today.", FormatSeconds(left)),
	}
}

// FormatSeconds renders a duration as "XmYs" for user-facing messages.
func FormatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
