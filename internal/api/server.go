package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"app/internal/middleware"
	"app/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Ledger is the read-only slice of the usage ledger the ops endpoints expose.
type Ledger interface {
	OverallStats(ctx context.Context) model.OverallStats
	TodayAggregate(ctx context.Context, day time.Time) model.DailyAggregate
	ExportAll(ctx context.Context) []model.ExportRow
}

type statsResponse struct {
	TotalAccounts int `json:"total_accounts"`
	ProAccounts   int `json:"pro_accounts"`
	ActiveToday   int `json:"active_today"`
	SecondsToday  int `json:"seconds_today"`
	RecordsToday  int `json:"records_today"`
}

// NewRouter builds the operational HTTP surface: health, stats, and a CSV
// export of the full ledger.
func NewRouter(ledger Ledger, logger zerolog.Logger) http.Handler {
	logger = logger.With().Str("service", "OpsAPI").Logger()

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		stats := ledger.OverallStats(req.Context())
		today := ledger.TodayAggregate(req.Context(), time.Now())
		resp := statsResponse{
			TotalAccounts: stats.TotalAccounts,
			ProAccounts:   stats.ProAccounts,
			ActiveToday:   today.ActiveUsers,
			SecondsToday:  today.TotalSeconds,
			RecordsToday:  today.NonZeroRecords,
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error().Err(err).Msg("Failed to encode stats response")
		}
	})

	r.Get("/export", func(w http.ResponseWriter, req *http.Request) {
		rows := ledger.ExportAll(req.Context())
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="usage_export.csv"`)

		cw := csv.NewWriter(w)
		cw.Write([]string{"user_id", "is_pro", "created_at", "usage_date", "seconds_used"})
		for _, row := range rows {
			date := "-"
			if row.UsageDate != nil {
				date = row.UsageDate.Format("2006-01-02")
			}
			cw.Write([]string{
				strconv.FormatInt(row.UserID, 10),
				strconv.FormatBool(row.IsPro),
				row.CreatedAt.Format(time.RFC3339),
				date,
				strconv.Itoa(row.Seconds),
			})
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			logger.Error().Err(err).Msg("Failed to write export")
		}
	})

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	return c.Handler(r)
}
