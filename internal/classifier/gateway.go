package classifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"moodtrack/internal/cache"
	"moodtrack/internal/domain"
)

// generativeConfidence is the fixed conservative score assigned to results
// from providers that expose no numeric confidence.
const generativeConfidence = 0.85

// SelectProvider picks the provider for a given input text.
type SelectProvider func(text string) Provider

// PreferPrimary is the default strategy: use the primary (free) provider,
// fall back to the secondary (paid) one only when the primary is
// unconfigured.
func PreferPrimary(primary, secondary Provider) SelectProvider {
	return func(string) Provider {
		if primary != nil {
			return primary
		}
		return secondary
	}
}

// Options tunes the gateway's retry behavior and budget enforcement.
type Options struct {
	MaxAttempts int
	BackoffUnit time.Duration
	Budget      *cache.Budget
}

// Gateway issues remote classification calls, applying retry/backoff and
// normalizing heterogeneous provider responses into (label, score) pairs.
type Gateway struct {
	selectProvider SelectProvider
	budget         *cache.Budget
	maxAttempts    int
	backoffUnit    time.Duration
	now            func() time.Time
}

func NewGateway(selectProvider SelectProvider, opts Options) *Gateway {
	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	backoffUnit := opts.BackoffUnit
	if backoffUnit <= 0 {
		backoffUnit = defaultBackoffUnit
	}
	return &Gateway{
		selectProvider: selectProvider,
		budget:         opts.Budget,
		maxAttempts:    maxAttempts,
		backoffUnit:    backoffUnit,
		now:            time.Now,
	}
}

// ClassifyEmotion returns the emotion label, its confidence score and the
// provider model that produced it.
func (g *Gateway) ClassifyEmotion(ctx context.Context, text string) (domain.Emotion, float64, string, error) {
	label, model, err := g.classify(ctx, TaskEmotion, text)
	if err != nil {
		return domain.EmotionUnknown, 0, "", err
	}
	emotion := domain.EmotionFromLabel(label.Text)
	if emotion == domain.EmotionUnknown {
		log.Printf("classifier emotion unknown label=%q model=%s", label.Text, model)
	}
	return emotion, g.score(label), model, nil
}

// ClassifySentiment returns the sentiment label, its confidence score and
// the provider model that produced it.
func (g *Gateway) ClassifySentiment(ctx context.Context, text string) (domain.Sentiment, float64, string, error) {
	label, model, err := g.classify(ctx, TaskSentiment, text)
	if err != nil {
		return domain.SentimentUnknown, 0, "", err
	}
	sentiment := domain.SentimentFromLabel(label.Text)
	if sentiment == domain.SentimentUnknown {
		log.Printf("classifier sentiment unknown label=%q model=%s", label.Text, model)
	}
	return sentiment, g.score(label), model, nil
}

func (g *Gateway) classify(ctx context.Context, task Task, text string) (Label, string, error) {
	provider := g.selectProvider(text)
	if provider == nil {
		return Label{}, "", fmt.Errorf("%w: no provider configured", domain.ErrClassifierUnavailable)
	}

	// One budget charge per classification call, never per retry attempt.
	if err := g.budget.Spend(provider.Name(), g.now()); err != nil {
		return Label{}, "", err
	}

	var label Label
	err := runWithRetry(ctx, task.String(), g.maxAttempts, g.backoffUnit, func() error {
		var callErr error
		label, callErr = provider.Classify(ctx, task, text)
		return callErr
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Label{}, "", err
		}
		log.Printf("classifier %s failed provider=%s model=%s err=%v", task, provider.Name(), provider.Model(), err)
		return Label{}, "", fmt.Errorf("%w: %v", domain.ErrClassifierUnavailable, err)
	}
	log.Printf("classifier %s provider=%s model=%s label=%q", task, provider.Name(), provider.Model(), label.Text)
	return label, provider.Model(), nil
}

func (g *Gateway) score(label Label) float64 {
	if label.Native {
		return domain.RoundScore(label.Score)
	}
	return generativeConfidence
}
