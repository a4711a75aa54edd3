package digest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"

	"moodtrack/internal/config"
	"moodtrack/internal/domain"
	"moodtrack/internal/report"
	"moodtrack/internal/storage/sqlite"
)

// MessagePoster is the slice of the Slack client the digest needs.
type MessagePoster interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}

// Start runs a cron-based scheduler that posts last month's emotion digest
// for every active user to the configured Slack channel. The schedule is a
// standard 5-field cron expression.
func Start(cfg config.Config, store *sqlite.EventStore, api MessagePoster) {
	if !cfg.DigestConfigured() {
		log.Println("Monthly digest disabled (digest_schedule, digest_channel_id or slack_bot_token not set)")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(cfg.DigestSchedule)
	if err != nil {
		log.Printf("Invalid digest_schedule '%s': %v (digest disabled)", cfg.DigestSchedule, err)
		return
	}

	log.Printf("Monthly digest scheduled (cron: %s) to channel %s", cfg.DigestSchedule, cfg.DigestChannelID)

	go func() {
		for {
			now := time.Now().In(cfg.Location)
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next digest at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			if err := RunOnce(context.Background(), store, api, cfg.DigestChannelID, time.Now()); err != nil {
				log.Printf("Digest run error: %v", err)
			}
		}
	}()
}

// RunOnce posts one digest per user active in the month before now.
func RunOnce(ctx context.Context, store *sqlite.EventStore, api MessagePoster, channelID string, now time.Time) error {
	period := previousPeriod(now)
	start, end := period.Bounds()

	users, err := store.ActiveUserIDs(ctx, start, end)
	if err != nil {
		return fmt.Errorf("listing active users: %w", err)
	}
	if len(users) == 0 {
		log.Printf("Digest %s: no active users", period)
		return nil
	}

	posted := 0
	for _, userID := range users {
		events, err := store.FindByUserAndPeriod(ctx, userID, start, end)
		if err != nil {
			log.Printf("digest load error user=%s err=%v", userID[:8], err)
			continue
		}
		stats, err := report.Aggregate(events, period)
		if err != nil {
			if !errors.Is(err, domain.ErrNoData) {
				log.Printf("digest aggregate error user=%s err=%v", userID[:8], err)
			}
			continue
		}
		stats.UserID = userID[:16]

		if _, _, err := api.PostMessage(channelID, slack.MsgOptionText(FormatDigest(stats), false)); err != nil {
			log.Printf("digest post error user=%s err=%v", userID[:8], err)
			continue
		}
		posted++
	}
	log.Printf("Digest %s complete: users=%d posted=%d", period, len(users), posted)
	return nil
}

// previousPeriod returns the calendar month before now (UTC, matching how
// events are stored).
func previousPeriod(now time.Time) domain.Period {
	firstOfMonth := time.Date(now.UTC().Year(), now.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := firstOfMonth.AddDate(0, -1, 0)
	return domain.Period{Year: prev.Year(), Month: prev.Month()}
}

// FormatDigest renders one user's monthly aggregate as a Slack message.
func FormatDigest(stats *report.MonthlyStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Report emotivo %s* (utente %s)\n", stats.Period, stats.UserID)
	fmt.Fprintf(&b, "Messaggi: %d · Giorni attivi: %d\n", stats.TotalMessages, stats.ActiveDays)
	fmt.Fprintf(&b, "Emozione dominante: %s %s\n", stats.DominantEmotion, stats.DominantEmotion.Emoji())

	// Stable output: emotions sorted by count desc, then label.
	type row struct {
		emotion domain.Emotion
		stat    report.EmotionStat
	}
	rows := make([]row, 0, len(stats.Emotions))
	for emotion, stat := range stats.Emotions {
		rows = append(rows, row{emotion, stat})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].stat.Count != rows[j].stat.Count {
			return rows[i].stat.Count > rows[j].stat.Count
		}
		return rows[i].emotion < rows[j].emotion
	})
	for _, r := range rows {
		fmt.Fprintf(&b, "• %s %s: %d (%.1f%%, media %.2f)\n", r.emotion.Emoji(), r.emotion, r.stat.Count, r.stat.Percentage, r.stat.AvgScore)
	}

	for _, insight := range stats.Insights {
		b.WriteString(insight.Message)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
