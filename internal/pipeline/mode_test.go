package pipeline

import (
	"strings"
	"testing"
)

func TestParseMode(t *testing.T) {
	for _, m := range AllModes {
		got, ok := ParseMode(m.String())
		if !ok || got != m {
			t.Fatalf("ParseMode(%q) = (%v, %v)", m.String(), got, ok)
		}
	}
	if _, ok := ParseMode("haiku"); ok {
		t.Fatal("ParseMode accepted an unknown mode")
	}
}

func TestModePromptEmbedsTranscript(t *testing.T) {
	for _, m := range AllModes {
		prompt := m.Prompt("the quick brown fox")
		if !strings.Contains(prompt, "the quick brown fox") {
			t.Fatalf("%s prompt does not embed the transcript", m)
		}
		if m.Model() == "" || m.SystemPrompt() == "" {
			t.Fatalf("%s is missing model or system prompt", m)
		}
	}
}

func TestSummaryUsesLargerModel(t *testing.T) {
	if ModeSummary.Model() == ModeBasic.Model() {
		t.Fatal("summary mode should use its own model tier")
	}
}
