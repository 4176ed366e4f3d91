package bot

import (
	"context"
	"strconv"
)

const (
	defaultTopLimit = 10
	maxTopLimit     = 50
)

func (b *Bot) handleAdmin(ctx context.Context, chatID int64, cmd string, args []string) {
	switch cmd {
	case "/setpro":
		b.handleSetPro(ctx, chatID, args)
	case "/stats":
		stats := b.ledger.OverallStats(ctx)
		b.reply(ctx, chatID, formatOverallStats(stats))
	case "/top":
		limit := defaultTopLimit
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 || n > maxTopLimit {
				b.reply(ctx, chatID, "Usage: /top [n], with n between 1 and 50")
				return
			}
			limit = n
		}
		b.reply(ctx, chatID, formatTopUsage(b.ledger.TopByUsage(ctx, limit)))
	case "/today":
		agg := b.ledger.TodayAggregate(ctx, b.now())
		b.reply(ctx, chatID, formatTodayAggregate(agg))
	case "/user":
		if len(args) != 1 {
			b.reply(ctx, chatID, "Usage: /user <user_id>")
			return
		}
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			b.reply(ctx, chatID, "Usage: /user <user_id>")
			return
		}
		detail, found := b.ledger.UserDetail(ctx, userID, b.now())
		if !found {
			b.reply(ctx, chatID, "No account found for user "+args[0])
			return
		}
		b.reply(ctx, chatID, formatUserDetail(detail, b.policy.BudgetSeconds))
	case "/export":
		rows := b.ledger.ExportAll(ctx)
		if len(rows) == 0 {
			b.reply(ctx, chatID, "No usage data recorded yet.")
			return
		}
		b.reply(ctx, chatID, formatExportCSV(rows))
	}
}

func (b *Bot) handleSetPro(ctx context.Context, chatID int64, args []string) {
	if len(args) != 2 {
		b.reply(ctx, chatID, "Usage: /setpro <user_id> <on|off>")
		return
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.reply(ctx, chatID, "Usage: /setpro <user_id> <on|off>")
		return
	}
	var isPro bool
	switch args[1] {
	case "on", "true", "1":
		isPro = true
	case "off", "false", "0":
		isPro = false
	default:
		b.reply(ctx, chatID, "Usage: /setpro <user_id> <on|off>")
		return
	}

	if err := b.ledger.SetTier(ctx, userID, isPro); err != nil {
		b.logger.Error().Err(err).Int64("target_user", userID).Msg("Failed to set tier")
		b.reply(ctx, chatID, "❌ Failed to update tier, please check the logs.")
		return
	}
	status := "regular"
	if isPro {
		status = "PRO"
	}
	b.reply(ctx, chatID, "✅ User "+args[0]+" is now "+status+".")
}
