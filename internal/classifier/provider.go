package classifier

import "context"

// Task selects which classification a provider call performs.
type Task int

const (
	TaskEmotion Task = iota
	TaskSentiment
)

func (t Task) String() string {
	if t == TaskSentiment {
		return "sentiment"
	}
	return "emotion"
}

// Label is one normalized provider answer. Native is true when the
// provider reported a real per-label confidence; generative providers
// leave it false and the gateway substitutes a fixed conservative score.
type Label struct {
	Text   string
	Score  float64
	Native bool
}

// Provider is an opaque remote classification service.
type Provider interface {
	Name() string
	Model() string
	Classify(ctx context.Context, task Task, text string) (Label, error)
}

// Single-word prompts for generative providers, mirroring the closed
// vocabulary the rest of the pipeline normalizes against.
func promptFor(task Task, text string) string {
	if task == TaskSentiment {
		return "Analyze the sentiment in this text. Respond with ONLY one word: positive, negative, or neutral\n\nText: " + text + "\n\nSentiment:"
	}
	return "Analyze the emotion in this text. Respond with ONLY one word from: anger, joy, fear, sadness, love, surprise, neutral\n\nText: " + text + "\n\nEmotion:"
}
