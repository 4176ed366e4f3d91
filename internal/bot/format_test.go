package bot

import (
	"strings"
	"testing"
	"time"

	"app/internal/model"
)

func TestFormatExportCSV(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	rows := []model.ExportRow{
		{UserID: 1, IsPro: false, CreatedAt: created, UsageDate: &day, Seconds: 45},
		{UserID: 2, IsPro: true, CreatedAt: created, UsageDate: nil, Seconds: 0},
	}

	out := formatExportCSV(rows)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	if lines[0] != "user_id,is_pro,created_at,usage_date,seconds_used" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "1,false,2026-03-01T10:00:00Z,2026-03-02,45" {
		t.Fatalf("row 1 = %q", lines[1])
	}
	if lines[2] != "2,true,2026-03-01T10:00:00Z,-,0" {
		t.Fatalf("zero-usage row = %q", lines[2])
	}
}

func TestSplitMessage(t *testing.T) {
	short := "hello"
	if got := splitMessage(short, 10); len(got) != 1 || got[0] != short {
		t.Fatalf("short text split = %v", got)
	}

	text := strings.Repeat("line one\n", 3) + "tail"
	chunks := splitMessage(text, 20)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %v", chunks)
	}
	for _, c := range chunks {
		if len(c) > 20 {
			t.Fatalf("chunk %q exceeds limit", c)
		}
	}
	joined := strings.Join(chunks, "\n")
	if !strings.Contains(joined, "tail") {
		t.Fatalf("tail lost: %v", chunks)
	}

	// No newline to break on within the limit.
	solid := strings.Repeat("a", 25)
	chunks = splitMessage(solid, 10)
	if len(chunks) != 3 || chunks[0] != strings.Repeat("a", 10) || chunks[2] != strings.Repeat("a", 5) {
		t.Fatalf("solid split = %v", chunks)
	}
}

func TestFormatUsageSelfCheckPro(t *testing.T) {
	msg := formatUsageSelfCheck(true, 500, 9000, 300)
	if !strings.Contains(msg, "PRO") || !strings.Contains(msg, "unlimited") {
		t.Fatalf("pro usage message = %q", msg)
	}
}

func TestFormatUserDetailIncludesHistory(t *testing.T) {
	detail := model.UserDetail{
		Account:      model.Account{UserID: 42, CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		TodaySeconds: 60,
		TotalSeconds: 240,
		LastDays: []model.DayUsage{
			{Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Seconds: 60},
		},
	}
	msg := formatUserDetail(detail, 300)
	for _, want := range []string{"User 42", "1m 0s", "4m 0s", "2026-03-02"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("detail message %q missing %q", msg, want)
		}
	}
}
