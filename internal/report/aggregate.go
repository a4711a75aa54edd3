package report

import (
	"fmt"
	"math"

	"moodtrack/internal/domain"
)

// EmotionStat is the per-emotion breakdown within a month.
type EmotionStat struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	AvgScore   float64 `json:"avg_score"`
}

// SentimentDistribution holds sentiment percentages over the events that
// carry a sentiment. All zero when none do.
type SentimentDistribution struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// Insight is one human-readable observation about the month.
type Insight struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Icon    string `json:"icon"`
}

// MonthlyStats is the derived monthly aggregate. It is computed fresh per
// request and never persisted.
type MonthlyStats struct {
	UserID          string                         `json:"user_id,omitempty"`
	Period          string                         `json:"period"`
	TotalMessages   int                            `json:"total_messages"`
	ActiveDays      int                            `json:"active_days"`
	Emotions        map[domain.Emotion]EmotionStat `json:"emotions"`
	Sentiment       SentimentDistribution          `json:"sentiment"`
	DominantEmotion domain.Emotion                 `json:"dominant_emotion"`
	Insights        []Insight                      `json:"insights"`
}

// Aggregate computes the monthly aggregate for a set of events. Pure
// function of its input: same events, same output, insights included.
// Empty input fails with ErrNoData; the caller must not fabricate a
// zero-valued report.
//
// Dominance is decided twice on purpose: the DominantEmotion field uses
// raw counts while the dominant-emotion insight uses rounded percentages.
// Ties resolve to the emotion seen first in the input.
func Aggregate(events []domain.EmotionEvent, period domain.Period) (*MonthlyStats, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoData, period)
	}

	total := len(events)
	days := make(map[string]struct{})
	counts := make(map[domain.Emotion]int)
	scoreSums := make(map[domain.Emotion]float64)
	var order []domain.Emotion

	var posCount, negCount, neuCount int

	for _, ev := range events {
		days[ev.CreatedAt.UTC().Format("2006-01-02")] = struct{}{}

		if _, seen := counts[ev.Emotion]; !seen {
			order = append(order, ev.Emotion)
		}
		counts[ev.Emotion]++
		scoreSums[ev.Emotion] += ev.Score

		switch ev.Sentiment {
		case domain.SentimentPositive:
			posCount++
		case domain.SentimentNegative:
			negCount++
		case domain.SentimentNeutral:
			neuCount++
		}
	}

	emotions := make(map[domain.Emotion]EmotionStat, len(counts))
	for emotion, count := range counts {
		emotions[emotion] = EmotionStat{
			Count:      count,
			Percentage: round1(float64(count) / float64(total) * 100),
			AvgScore:   round2(scoreSums[emotion] / float64(count)),
		}
	}

	var sentiment SentimentDistribution
	if withSentiment := posCount + negCount + neuCount; withSentiment > 0 {
		sentiment = SentimentDistribution{
			Positive: round1(float64(posCount) / float64(withSentiment) * 100),
			Negative: round1(float64(negCount) / float64(withSentiment) * 100),
			Neutral:  round1(float64(neuCount) / float64(withSentiment) * 100),
		}
	}

	dominant := order[0]
	for _, emotion := range order[1:] {
		if counts[emotion] > counts[dominant] {
			dominant = emotion
		}
	}

	stats := &MonthlyStats{
		Period:          period.String(),
		TotalMessages:   total,
		ActiveDays:      len(days),
		Emotions:        emotions,
		Sentiment:       sentiment,
		DominantEmotion: dominant,
	}
	stats.Insights = generateInsights(emotions, order, sentiment, len(days), period)
	return stats, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
