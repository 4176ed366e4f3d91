package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"app/internal/model"

	"github.com/rs/zerolog"
)

type fakeLedger struct {
	rows []model.ExportRow
}

func (l *fakeLedger) OverallStats(ctx context.Context) model.OverallStats {
	return model.OverallStats{TotalAccounts: 5, ProAccounts: 2}
}

func (l *fakeLedger) TodayAggregate(ctx context.Context, day time.Time) model.DailyAggregate {
	return model.DailyAggregate{ActiveUsers: 3, TotalSeconds: 150, NonZeroRecords: 3}
}

func (l *fakeLedger) ExportAll(ctx context.Context) []model.ExportRow { return l.rows }

func TestHealthz(t *testing.T) {
	router := NewRouter(&fakeLedger{}, zerolog.Nop())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestStats(t *testing.T) {
	router := NewRouter(&fakeLedger{}, zerolog.Nop())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp statsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalAccounts != 5 || resp.ProAccounts != 2 || resp.ActiveToday != 3 || resp.SecondsToday != 150 {
		t.Fatalf("stats = %+v", resp)
	}
}

func TestExportCSV(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	ledger := &fakeLedger{rows: []model.ExportRow{
		{UserID: 1, IsPro: false, CreatedAt: created, UsageDate: &day, Seconds: 45},
		{UserID: 2, IsPro: true, CreatedAt: created, UsageDate: nil, Seconds: 0},
	}}

	router := NewRouter(ledger, zerolog.Nop())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("content type = %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), rec.Body.String())
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
