package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Emotion is the closed set of emotion labels the pipeline understands.
// Provider output outside this set maps to EmotionUnknown, never to an error.
type Emotion string

const (
	EmotionAnger    Emotion = "anger"
	EmotionJoy      Emotion = "joy"
	EmotionSadness  Emotion = "sadness"
	EmotionFear     Emotion = "fear"
	EmotionLove     Emotion = "love"
	EmotionSurprise Emotion = "surprise"
	EmotionDisgust  Emotion = "disgust"
	EmotionNeutral  Emotion = "neutral"
	EmotionUnknown  Emotion = "unknown"
)

var knownEmotions = map[Emotion]bool{
	EmotionAnger:    true,
	EmotionJoy:      true,
	EmotionSadness:  true,
	EmotionFear:     true,
	EmotionLove:     true,
	EmotionSurprise: true,
	EmotionDisgust:  true,
	EmotionNeutral:  true,
}

// EmotionFromLabel normalizes a raw provider label into the closed set.
func EmotionFromLabel(label string) Emotion {
	e := Emotion(strings.ToLower(strings.TrimSpace(label)))
	if knownEmotions[e] {
		return e
	}
	return EmotionUnknown
}

// Emoji returns the display emoji for an emotion.
func (e Emotion) Emoji() string {
	switch e {
	case EmotionJoy:
		return "😊"
	case EmotionSadness:
		return "😢"
	case EmotionAnger:
		return "😠"
	case EmotionFear:
		return "😰"
	case EmotionLove:
		return "❤️"
	case EmotionSurprise:
		return "😲"
	case EmotionDisgust:
		return "🤢"
	case EmotionNeutral:
		return "😐"
	}
	return "❓"
}

// Sentiment is the closed set of sentiment labels. The empty string means
// the record carries no sentiment at all.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentUnknown  Sentiment = "unknown"
)

// SentimentFromLabel normalizes a raw provider label into the closed set.
func SentimentFromLabel(label string) Sentiment {
	switch s := Sentiment(strings.ToLower(strings.TrimSpace(label))); s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return s
	}
	return SentimentUnknown
}

// ClassificationResult is the canonical outcome of one classification
// request. Immutable once produced; this is also the cache payload shape.
type ClassificationResult struct {
	Emotion        Emotion   `json:"emotion"`
	Sentiment      Sentiment `json:"sentiment,omitempty"`
	Score          float64   `json:"score"`
	SentimentScore float64   `json:"sentiment_score,omitempty"`
	ProviderModel  string    `json:"provider_model"`
}

// EmotionEvent is one persisted classification outcome. Events are
// append-only: created exactly once per successful classification and
// never updated in place.
type EmotionEvent struct {
	ID            string
	UserID        string
	Text          string
	Emotion       Emotion
	Sentiment     Sentiment
	Score         float64
	ProviderModel string
	CreatedAt     time.Time
	Extra         map[string]string
}

// NewEventID returns a fresh event identifier.
func NewEventID() string {
	return uuid.NewString()
}

// HashUserKey derives the internal user reference from an opaque external
// user key. The raw key is never stored.
func HashUserKey(userKey string) string {
	sum := sha256.Sum256([]byte(userKey))
	return hex.EncodeToString(sum[:])[:32]
}

// RoundScore normalizes a confidence score to the stored 4-decimal
// precision, clamped into [0,1].
func RoundScore(score float64) float64 {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return math.Round(score*10000) / 10000
}
