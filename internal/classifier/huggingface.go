package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"moodtrack/internal/httpx"
)

const defaultHFAPIURL = "https://api-inference.huggingface.co/models"

// HFProvider classifies via HuggingFace's inference API. Unlike the
// generative providers it returns a structured label/score array, so the
// top score is passed through as a native confidence.
type HFProvider struct {
	token          string
	emotionModel   string
	sentimentModel string
	baseURL        string
}

func NewHFProvider(token, emotionModel, sentimentModel string) *HFProvider {
	return &HFProvider{
		token:          token,
		emotionModel:   emotionModel,
		sentimentModel: sentimentModel,
		baseURL:        defaultHFAPIURL,
	}
}

func (p *HFProvider) Name() string { return "huggingface" }

func (p *HFProvider) Model() string { return p.emotionModel }

func (p *HFProvider) modelFor(task Task) string {
	if task == TaskSentiment {
		return p.sentimentModel
	}
	return p.emotionModel
}

func (p *HFProvider) Classify(ctx context.Context, task Task, text string) (Label, error) {
	bodyBytes, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return Label{}, fmt.Errorf("marshaling request: %w", err)
	}

	url := p.baseURL + "/" + p.modelFor(task)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return Label{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := httpx.ExternalHTTPClient().Do(req)
	if err != nil {
		return Label{}, fmt.Errorf("huggingface API error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Label{}, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Label{}, &httpStatusError{status: resp.StatusCode, body: truncateBody(respBody)}
	}

	// Response shape: [[{"label": "...", "score": 0.98}, ...]] with the
	// top-scoring prediction first.
	top := gjson.GetBytes(respBody, "0.0")
	if !top.Exists() {
		// Some models skip the outer batch array.
		top = gjson.GetBytes(respBody, "0")
	}
	label := top.Get("label")
	if !label.Exists() {
		return Label{}, fmt.Errorf("no predictions in huggingface response")
	}
	return Label{
		Text:   label.String(),
		Score:  top.Get("score").Float(),
		Native: true,
	}, nil
}
