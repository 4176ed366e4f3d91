package model

import "time"

// Account is one bot user. Accounts are created lazily on first contact and
// never deleted.
type Account struct {
	UserID    int64     `db:"user_id"`
	IsPro     bool      `db:"is_pro"`
	CreatedAt time.Time `db:"created_at"`
}

// DayUsage is the accumulated audio seconds for one user on one calendar day.
type DayUsage struct {
	Date    time.Time `db:"usage_date"`
	Seconds int       `db:"seconds_used"`
}

// AccountUsage is one row of the top-by-usage report.
type AccountUsage struct {
	UserID       int64
	IsPro        bool
	TotalSeconds int
}

// DailyAggregate summarizes all usage recorded today.
type DailyAggregate struct {
	ActiveUsers    int
	TotalSeconds   int
	NonZeroRecords int
}

// OverallStats is the account-level summary for the admin stats command.
type OverallStats struct {
	TotalAccounts int
	ProAccounts   int
}

// UserDetail is the full per-user report: tier, creation time, today's and
// total usage, and the last seven days of per-day usage, most recent first.
type UserDetail struct {
	Account      Account
	TodaySeconds int
	TotalSeconds int
	LastDays     []DayUsage
}

// ExportRow is one line of the full usage export. Accounts with no usage
// records appear once with a nil UsageDate and zero seconds.
type ExportRow struct {
	UserID    int64
	IsPro     bool
	CreatedAt time.Time
	UsageDate *time.Time
	Seconds   int
}
