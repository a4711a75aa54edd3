package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"moodtrack/internal/httpx"
)

const (
	defaultGroqURL   = "https://api.groq.com/openai/v1/chat/completions"
	defaultGroqModel = "llama-3.3-70b-versatile"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GroqProvider classifies via Groq's OpenAI-compatible chat completions
// endpoint. Generative: no native confidence.
type GroqProvider struct {
	apiKey string
	model  string
	url    string
}

func NewGroqProvider(apiKey, model string) *GroqProvider {
	if model == "" {
		model = defaultGroqModel
	}
	return &GroqProvider{apiKey: apiKey, model: model, url: defaultGroqURL}
}

func (p *GroqProvider) Name() string  { return "groq" }
func (p *GroqProvider) Model() string { return p.model }

func (p *GroqProvider) Classify(ctx context.Context, task Task, text string) (Label, error) {
	reqBody := chatRequest{
		Model:       p.model,
		Messages:    []chatMessage{{Role: "user", Content: promptFor(task, text)}},
		MaxTokens:   10,
		Temperature: 0,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return Label{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return Label{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := httpx.ExternalHTTPClient().Do(req)
	if err != nil {
		return Label{}, fmt.Errorf("groq API error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Label{}, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Label{}, &httpStatusError{status: resp.StatusCode, body: truncateBody(respBody)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Label{}, fmt.Errorf("parsing groq response: %w", err)
	}
	if parsed.Error != nil {
		return Label{}, fmt.Errorf("groq API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return Label{}, fmt.Errorf("no choices in groq response")
	}
	return Label{Text: parsed.Choices[0].Message.Content}, nil
}

func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}
