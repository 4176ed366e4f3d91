package quota

import (
	"strings"
	"testing"
)

func TestEvaluateProAlwaysAdmits(t *testing.T) {
	p := NewPolicy(300)
	for _, usage := range []int{0, 299, 300, 100000} {
		dec := p.Evaluate(true, usage, 10000)
		if !dec.Admitted {
			t.Fatalf("pro user denied at usage=%d: %q", usage, dec.Reason)
		}
		if !dec.Unlimited {
			t.Fatalf("pro decision at usage=%d not marked unlimited", usage)
		}
	}
}

func TestEvaluateStandardWithinBudget(t *testing.T) {
	p := NewPolicy(300)
	cases := []struct {
		name      string
		usage     int
		requested int
		remaining int
	}{
		{name: "fresh_day", usage: 0, requested: 60, remaining: 240},
		{name: "exact_fit", usage: 200, requested: 100, remaining: 0},
		{name: "near_limit", usage: 280, requested: 15, remaining: 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dec := p.Evaluate(false, tc.usage, tc.requested)
			if !dec.Admitted {
				t.Fatalf("expected admit, got denial: %q", dec.Reason)
			}
			if dec.Remaining != tc.remaining {
				t.Fatalf("Remaining = %d, want %d", dec.Remaining, tc.remaining)
			}
			if dec.Unlimited {
				t.Fatal("standard tier decision marked unlimited")
			}
		})
	}
}

func TestEvaluateExhaustedBudget(t *testing.T) {
	p := NewPolicy(300)
	for _, usage := range []int{300, 301, 5000} {
		// An exhausted budget denies whatever the requested duration is.
		for _, requested := range []int{0, 1, 500} {
			dec := p.Evaluate(false, usage, requested)
			if dec.Admitted {
				t.Fatalf("expected denial at usage=%d requested=%d", usage, requested)
			}
			if !strings.Contains(dec.Reason, "Daily limit exceeded") {
				t.Fatalf("reason %q does not mention exhausted limit", dec.Reason)
			}
		}
	}
}

func TestEvaluateTooLongMentionsRemaining(t *testing.T) {
	p := NewPolicy(300)
	dec := p.Evaluate(false, 280, 30)
	if dec.Admitted {
		t.Fatal("expected denial for 30s request with 20s remaining")
	}
	if !strings.Contains(dec.Reason, "0m 20s") {
		t.Fatalf("reason %q does not cite the 0m 20s remaining", dec.Reason)
	}
	if dec.Remaining != 20 {
		t.Fatalf("Remaining = %d, want 20", dec.Remaining)
	}
}

func TestEvaluateAdmitsRemainderScenario(t *testing.T) {
	p := NewPolicy(300)
	dec := p.Evaluate(false, 280, 15)
	if !dec.Admitted {
		t.Fatalf("expected admit: %q", dec.Reason)
	}
	if dec.Remaining != 5 {
		t.Fatalf("Remaining = %d, want 5", dec.Remaining)
	}
}

func TestNewPolicyDefaultsBudget(t *testing.T) {
	if p := NewPolicy(0); p.BudgetSeconds != DefaultDailyBudgetSeconds {
		t.Fatalf("BudgetSeconds = %d, want %d", p.BudgetSeconds, DefaultDailyBudgetSeconds)
	}
}

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{in: 0, want: "0m 0s"},
		{in: 20, want: "0m 20s"},
		{in: 61, want: "1m 1s"},
		{in: 300, want: "5m 0s"},
		{in: -5, want: "0m 0s"},
	}
	for _, tc := range cases {
		if got := FormatSeconds(tc.in); got != tc.want {
			t.Fatalf("FormatSeconds(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
