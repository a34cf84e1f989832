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

var openTDBCategories = map[string]int{
	"tech":          18,
	"science":       17,
	"history":       23,
	"geography":     22,
	"entertainment": 11,
}

// OpenTDBClient fetches questions from the Open Trivia DB (no API key).
type OpenTDBClient struct {
	baseURL    string
	httpClient *http.Client
	shuffle    func([]string)
}

var _ question.Provider = (*OpenTDBClient)(nil)

func NewOpenTDBClient(baseURL string, httpClient *http.Client) *OpenTDBClient {
	if baseURL == "" {
		baseURL = "https://opentdb.com"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &OpenTDBClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		shuffle:    shuffleOptions,
	}
}

type OpenTDBQuestion struct {
	Category        string   `json:"category"`
	Type            string   `json:"type"`
	Difficulty      string   `json:"difficulty"`
	Question        string   `json:"question"`
	CorrectAnswer   string   `json:"correct_answer"`
	IncorrectAnswer []string `json:"incorrect_answers"`
}

type openTDBResponse struct {
	ResponseCode int               `json:"response_code"`
	Results      []OpenTDBQuestion `json:"results"`
}

// Generate maps the request onto an Open Trivia DB category and difficulty.
func (c *OpenTDBClient) Generate(ctx context.Context, req question.Request) ([]quiz.Question, error) {
	category, ok := lookupCategory(openTDBCategories, req.Topic)
	if !ok {
		return nil, UnsupportedTopicError{Source: "opentdb", Topic: req.Topic}
	}

	raw, err := c.Fetch(ctx, req.Count, category, difficultyFor(req.Level))
	if err != nil {
		return nil, err
	}

	out := make([]quiz.Question, 0, len(raw))
	for _, q := range raw {
		out = append(out, toQuestion(q.Question, q.CorrectAnswer, q.IncorrectAnswer, c.shuffle))
	}
	return out, nil
}

func (c *OpenTDBClient) Fetch(ctx context.Context, amount, category int, difficulty string) ([]OpenTDBQuestion, error) {
	values := url.Values{}
	values.Set("amount", fmt.Sprint(amount))
	values.Set("type", "multiple")
	if category > 0 {
		values.Set("category", fmt.Sprint(category))
	}
	if difficulty != "" {
		values.Set("difficulty", difficulty)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api.php?%s", c.baseURL, values.Encode()), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("opentdb non-200: %d", resp.StatusCode)
	}

	var payload openTDBResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, quiz.NewGenerationError(quiz.FailureMalformed, fmt.Errorf("decode opentdb payload: %w", err))
	}
	switch payload.ResponseCode {
	case 0:
		return payload.Results, nil
	case 1:
		return nil, quiz.NewGenerationError(quiz.FailureEmpty, quiz.ErrEmptyQuestionSet)
	default:
		return nil, fmt.Errorf("opentdb response code %d", payload.ResponseCode)
	}
}
