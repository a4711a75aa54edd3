package report

import (
	"fmt"
	"strconv"
	"strings"

	"moodtrack/internal/domain"
)

var italianMonths = [...]string{
	"Gennaio", "Febbraio", "Marzo", "Aprile", "Maggio", "Giugno",
	"Luglio", "Agosto", "Settembre", "Ottobre", "Novembre", "Dicembre",
}

// monthName turns a YYYY-MM period string into its Italian month name.
// Anything not of that shape comes back unchanged.
func monthName(period string) string {
	parts := strings.Split(period, "-")
	if len(parts) != 2 {
		return period
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return period
	}
	return italianMonths[month-1]
}

// generateInsights evaluates the insight rules in fixed order. Rules may
// each add at most one entry; the dominant-emotion rule always adds one.
func generateInsights(emotions map[domain.Emotion]EmotionStat, order []domain.Emotion, sentiment SentimentDistribution, activeDays int, period domain.Period) []Insight {
	var insights []Insight
	month := monthName(period.String())

	// Overall tone of the month.
	switch {
	case sentiment.Positive > 60:
		insights = append(insights, Insight{
			Type:    "positive_month",
			Message: fmt.Sprintf("🎉 %s è stato un mese positivo! (%.0f%% emozioni positive)", month, sentiment.Positive),
			Icon:    "🎉",
		})
	case sentiment.Negative > 50:
		insights = append(insights, Insight{
			Type:    "challenging_month",
			Message: fmt.Sprintf("💙 %s è stato un mese difficile. Sii gentile con te stesso.", month),
			Icon:    "💙",
		})
	default:
		insights = append(insights, Insight{
			Type:    "balanced_month",
			Message: fmt.Sprintf("⚖️ %s è stato un mese equilibrato.", month),
			Icon:    "⚖️",
		})
	}

	// Dominant emotion by rounded percentage. This can diverge from the
	// count-based DominantEmotion field and does so intentionally.
	top := order[0]
	for _, emotion := range order[1:] {
		if emotions[emotion].Percentage > emotions[top].Percentage {
			top = emotion
		}
	}
	insights = append(insights, Insight{
		Type:    "dominant_emotion",
		Message: fmt.Sprintf("%s L'emozione più frequente è stata %s (%.1f%%)", top.Emoji(), top, emotions[top].Percentage),
		Icon:    top.Emoji(),
	})

	// Tracking consistency.
	daysInMonth := period.Days()
	consistency := round1(float64(activeDays) / float64(daysInMonth) * 100)
	switch {
	case consistency >= 80:
		insights = append(insights, Insight{
			Type:    "high_consistency",
			Message: fmt.Sprintf("🌟 Fantastico! Hai registrato le tue emozioni %d/%d giorni", activeDays, daysInMonth),
			Icon:    "🌟",
		})
	case consistency >= 50:
		insights = append(insights, Insight{
			Type:    "good_consistency",
			Message: fmt.Sprintf("📅 Buona costanza! Hai registrato le tue emozioni %d/%d giorni", activeDays, daysInMonth),
			Icon:    "📅",
		})
	}

	// Emotional variety.
	if len(emotions) >= 5 {
		insights = append(insights, Insight{
			Type:    "emotional_variety",
			Message: fmt.Sprintf("🌈 Hai provato %d emozioni diverse questo mese", len(emotions)),
			Icon:    "🌈",
		})
	}

	return insights
}
