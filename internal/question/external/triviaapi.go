package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gokatarajesh/brainwave/internal/question"
	"github.com/gokatarajesh/brainwave/internal/quiz"
)

var triviaAPICategories = map[string]string{
	"tech":          "science",
	"science":       "science",
	"history":       "history",
	"geography":     "geography",
	"entertainment": "film_and_tv",
}

// TriviaAPIClient integrates with The Trivia API (optional key in TRIVIA_API_KEY).
type TriviaAPIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	shuffle    func([]string)
}

var _ question.Provider = (*TriviaAPIClient)(nil)

func NewTriviaAPIClient(baseURL, apiKey string, httpClient *http.Client) *TriviaAPIClient {
	if baseURL == "" {
		baseURL = "https://the-trivia-api.com/v2"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &TriviaAPIClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		shuffle:    shuffleOptions,
	}
}

type TriviaAPIQuestion struct {
	ID         string          `json:"id"`
	Category   string          `json:"category"`
	Question   triviaAPIPrompt `json:"question"`
	Difficulty string          `json:"difficulty"`
	Type       string          `json:"type"`
	Correct    string          `json:"correctAnswer"`
	Incorrect  []string        `json:"incorrectAnswers"`
}

// triviaAPIPrompt accepts both the v1 string form and the v2 {"text": ...} form.
type triviaAPIPrompt string

func (p *triviaAPIPrompt) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*p = triviaAPIPrompt(text)
		return nil
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*p = triviaAPIPrompt(obj.Text)
	return nil
}

// Generate maps the request onto a Trivia API category and difficulty.
func (c *TriviaAPIClient) Generate(ctx context.Context, req question.Request) ([]quiz.Question, error) {
	category, ok := lookupCategory(triviaAPICategories, req.Topic)
	if !ok {
		return nil, UnsupportedTopicError{Source: "triviaapi", Topic: req.Topic}
	}

	raw, err := c.Fetch(ctx, req.Count, category, difficultyFor(req.Level))
	if err != nil {
		return nil, err
	}

	out := make([]quiz.Question, 0, len(raw))
	for _, q := range raw {
		out = append(out, toQuestion(string(q.Question), q.Correct, q.Incorrect, c.shuffle))
	}
	return out, nil
}

func (c *TriviaAPIClient) Fetch(ctx context.Context, amount int, category, difficulty string) ([]TriviaAPIQuestion, error) {
	values := url.Values{}
	values.Set("limit", fmt.Sprint(amount))
	values.Set("categories", category)
	values.Set("difficulties", difficulty)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/questions?%s", c.baseURL, values.Encode()), nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("triviaapi non-200: %d", resp.StatusCode)
	}

	var payload []TriviaAPIQuestion
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, quiz.NewGenerationError(quiz.FailureMalformed, fmt.Errorf("decode triviaapi payload: %w", err))
	}
	return payload, nil
}
