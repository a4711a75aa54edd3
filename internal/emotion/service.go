package emotion

import (
	"context"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"moodtrack/internal/cache"
	"moodtrack/internal/domain"
	"moodtrack/internal/report"
	"moodtrack/internal/storage/sqlite"
)

const maxTextLen = 500

// Classifier is the remote classification surface the service depends on.
// Both sub-calls are independent remote calls and may run concurrently.
type Classifier interface {
	ClassifyEmotion(ctx context.Context, text string) (domain.Emotion, float64, string, error)
	ClassifySentiment(ctx context.Context, text string) (domain.Sentiment, float64, string, error)
}

// AnalysisResult is what the inbound layer gets back for one text.
type AnalysisResult struct {
	Emotion       domain.Emotion   `json:"emotion"`
	Sentiment     domain.Sentiment `json:"sentiment,omitempty"`
	Score         float64          `json:"score"`
	Confidence    string           `json:"confidence"`
	ProviderModel string           `json:"provider_model"`
}

// Service orchestrates the analysis pipeline: cache probe, classification,
// encryption-backed persistence, and monthly reporting.
type Service struct {
	classifier Classifier
	cache      *cache.ResultCache
	store      *sqlite.EventStore
	now        func() time.Time
}

func NewService(classifier Classifier, resultCache *cache.ResultCache, store *sqlite.EventStore) *Service {
	return &Service{
		classifier: classifier,
		cache:      resultCache,
		store:      store,
		now:        time.Now,
	}
}

// Analyze classifies one text for one user. Identical (userKey, text)
// pairs within the cache TTL return the cached result without a second
// remote call; cached reads are never persisted as new events.
func (s *Service) Analyze(ctx context.Context, userKey, text string) (AnalysisResult, error) {
	if userKey == "" {
		return AnalysisResult{}, fmt.Errorf("%w: empty user key", domain.ErrValidation)
	}
	if n := utf8.RuneCountInString(text); n < 1 || n > maxTextLen {
		return AnalysisResult{}, fmt.Errorf("%w: text must be 1-%d characters, got %d", domain.ErrValidation, maxTextLen, n)
	}

	if cached, ok := s.cache.Lookup(userKey, text); ok {
		log.Printf("emotion analyze cache hit user=%s", domain.HashUserKey(userKey)[:8])
		return toAnalysisResult(cached), nil
	}

	var (
		result         domain.ClassificationResult
		sentimentScore float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		emotion, score, model, err := s.classifier.ClassifyEmotion(gctx, text)
		if err != nil {
			return err
		}
		result.Emotion = emotion
		result.Score = domain.RoundScore(score)
		result.ProviderModel = model
		return nil
	})
	g.Go(func() error {
		sentiment, score, _, err := s.classifier.ClassifySentiment(gctx, text)
		if err != nil {
			return err
		}
		result.Sentiment = sentiment
		sentimentScore = domain.RoundScore(score)
		return nil
	})
	if err := g.Wait(); err != nil {
		return AnalysisResult{}, err
	}
	result.SentimentScore = sentimentScore

	// A cancelled request must not leave a partial event behind.
	if err := ctx.Err(); err != nil {
		return AnalysisResult{}, err
	}

	userID := domain.HashUserKey(userKey)
	ev := domain.EmotionEvent{
		ID:            domain.NewEventID(),
		UserID:        userID,
		Text:          text,
		Emotion:       result.Emotion,
		Sentiment:     result.Sentiment,
		Score:         result.Score,
		ProviderModel: result.ProviderModel,
		CreatedAt:     s.now().UTC(),
		Extra: map[string]string{
			"sentiment_score": fmt.Sprintf("%.4f", sentimentScore),
		},
	}
	if err := s.store.Save(ctx, ev); err != nil {
		return AnalysisResult{}, fmt.Errorf("persisting event: %w", err)
	}

	// Cache only after the event is durable. A cached result with no
	// backing event would turn every retry into a false success.
	s.cache.Store(userKey, text, result)

	log.Printf("emotion analyzed user=%s emotion=%s score=%.4f model=%s", userID[:8], result.Emotion, result.Score, result.ProviderModel)
	return toAnalysisResult(result), nil
}

// MonthlyStatistics aggregates the user's events for one YYYY-MM period.
func (s *Service) MonthlyStatistics(ctx context.Context, userKey, period string) (*report.MonthlyStats, error) {
	p, err := domain.ParsePeriod(period)
	if err != nil {
		return nil, err
	}

	userID := domain.HashUserKey(userKey)
	start, end := p.Bounds()
	events, err := s.store.FindByUserAndPeriod(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}

	stats, err := report.Aggregate(events, p)
	if err != nil {
		return nil, err
	}
	stats.UserID = userID[:16]
	return stats, nil
}

func toAnalysisResult(r domain.ClassificationResult) AnalysisResult {
	return AnalysisResult{
		Emotion:       r.Emotion,
		Sentiment:     r.Sentiment,
		Score:         r.Score,
		Confidence:    fmt.Sprintf("%.0f%%", r.Score*100),
		ProviderModel: r.ProviderModel,
	}
}
