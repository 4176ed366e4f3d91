package bot

import (
	"fmt"
	"strings"
	"time"

	"app/internal/model"
	"app/internal/quota"
)

// exportDateSentinel marks export rows for accounts with no usage records.
const exportDateSentinel = "-"

func formatUsageSelfCheck(isPro bool, todaySeconds, totalSeconds, budget int) string {
	var sb strings.Builder
	sb.WriteString("📊 Your usage\n\n")
	if isPro {
		sb.WriteString("Tier: PRO (unlimited)\n")
	} else {
		sb.WriteString("Tier: free\n")
	}
	fmt.Fprintf(&sb, "Today: %s\n", quota.FormatSeconds(todaySeconds))
	fmt.Fprintf(&sb, "Total: %s\n", quota.FormatSeconds(totalSeconds))
	if isPro {
		sb.WriteString("Remaining today: unlimited")
	} else {
		fmt.Fprintf(&sb, "Remaining today: %s", quota.FormatSeconds(budget-todaySeconds))
	}
	return sb.String()
}

func formatOverallStats(stats model.OverallStats) string {
	return fmt.Sprintf("📈 Accounts: %d\nPRO accounts: %d", stats.TotalAccounts, stats.ProAccounts)
}

func formatTopUsage(rows []model.AccountUsage) string {
	if len(rows) == 0 {
		return "No accounts yet."
	}
	var sb strings.Builder
	sb.WriteString("🏆 Top users by total usage\n")
	for i, row := range rows {
		tier := ""
		if row.IsPro {
			tier = " [PRO]"
		}
		fmt.Fprintf(&sb, "%d. %d%s - %s\n", i+1, row.UserID, tier, quota.FormatSeconds(row.TotalSeconds))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatTodayAggregate(agg model.DailyAggregate) string {
	return fmt.Sprintf(
		"📅 Today\nActive users: %d\nTotal audio: %s\nRecords with usage: %d",
		agg.ActiveUsers,
		quota.FormatSeconds(agg.TotalSeconds),
		agg.NonZeroRecords,
	)
}

func formatUserDetail(detail model.UserDetail, budget int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "👤 User %d\n", detail.Account.UserID)
	if detail.Account.IsPro {
		sb.WriteString("Tier: PRO\n")
	} else {
		sb.WriteString("Tier: free\n")
	}
	fmt.Fprintf(&sb, "Created: %s\n", detail.Account.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Today: %s\n", quota.FormatSeconds(detail.TodaySeconds))
	fmt.Fprintf(&sb, "Total: %s\n", quota.FormatSeconds(detail.TotalSeconds))
	if detail.Account.IsPro {
		sb.WriteString("Remaining today: unlimited\n")
	} else {
		fmt.Fprintf(&sb, "Remaining today: %s\n", quota.FormatSeconds(budget-detail.TodaySeconds))
	}
	if len(detail.LastDays) > 0 {
		sb.WriteString("\nLast 7 days:\n")
		for _, day := range detail.LastDays {
			fmt.Fprintf(&sb, "%s - %s\n", day.Date.Format("2006-01-02"), quota.FormatSeconds(day.Seconds))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatExportCSV(rows []model.ExportRow) string {
	var sb strings.Builder
	sb.WriteString("user_id,is_pro,created_at,usage_date,seconds_used\n")
	for _, row := range rows {
		date := exportDateSentinel
		if row.UsageDate != nil {
			date = row.UsageDate.Format("2006-01-02")
		}
		fmt.Fprintf(&sb, "%d,%t,%s,%s,%d\n",
			row.UserID,
			row.IsPro,
			row.CreatedAt.Format(time.RFC3339),
			date,
			row.Seconds,
		)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// splitMessage breaks text into chunks of at most limit characters,
// preferring newline boundaries.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
		}
		chunks = append(chunks, strings.TrimRight(text[:cut], "\n"))
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
