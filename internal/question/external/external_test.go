package external

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/brainwave/internal/question"
	"github.com/gokatarajesh/brainwave/internal/quiz"
)

func TestOpenTDBGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api.php", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "5", q.Get("amount"))
		assert.Equal(t, "17", q.Get("category"))
		assert.Equal(t, "hard", q.Get("difficulty"))
		assert.Equal(t, "multiple", q.Get("type"))
		_, _ = w.Write([]byte(`{"response_code":0,"results":[
			{"category":"Science","type":"multiple","difficulty":"hard",
			 "question":"What is &quot;Au&quot;?","correct_answer":"Gold",
			 "incorrect_answers":["Silver","Copper","Iron"]}]}`))
	}))
	defer srv.Close()

	c := NewOpenTDBClient(srv.URL, srv.Client())
	qs, err := c.Generate(context.Background(), question.Request{Topic: "science", Level: 5, Count: 5})
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, `What is "Au"?`, qs[0].Prompt)
	assert.ElementsMatch(t, []string{"Gold", "Silver", "Copper", "Iron"}, qs[0].Options)
	assert.Equal(t, "Gold", qs[0].Options[qs[0].CorrectIndex()])
}

func TestOpenTDBNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response_code":1,"results":[]}`))
	}))
	defer srv.Close()

	c := NewOpenTDBClient(srv.URL, srv.Client())
	_, err := c.Generate(context.Background(), question.Request{Topic: "History", Level: 1, Count: 20})
	assert.ErrorIs(t, err, quiz.ErrEmptyQuestionSet)
}

func TestUnsupportedTopic(t *testing.T) {
	_, err := NewOpenTDBClient("", nil).Generate(context.Background(), question.Request{Topic: "Volcanoes", Count: 5})
	var unsupported UnsupportedTopicError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "opentdb", unsupported.Source)

	_, err = NewTriviaAPIClient("", "", nil).Generate(context.Background(), question.Request{Topic: "Volcanoes", Count: 5})
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "triviaapi", unsupported.Source)
}

func TestTriviaAPIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/questions", r.URL.Path)
		assert.Equal(t, "film_and_tv", r.URL.Query().Get("categories"))
		assert.Equal(t, "medium", r.URL.Query().Get("difficulties"))
		assert.Equal(t, "key", r.Header.Get("X-API-Key"))
		_, _ = w.Write([]byte(`[
			{"id":"1","question":{"text":"Who directed Jaws?"},"correctAnswer":"Spielberg","incorrectAnswers":["Lucas","Scott","Cameron"]},
			{"id":"2","question":"Old format?","correctAnswer":"Yes","incorrectAnswers":["No","Maybe","Never"]}]`))
	}))
	defer srv.Close()

	c := NewTriviaAPIClient(srv.URL, "key", srv.Client())
	c.shuffle = nil
	qs, err := c.Generate(context.Background(), question.Request{Topic: "Entertainment", Level: 2, Count: 2})
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "Who directed Jaws?", qs[0].Prompt)
	assert.Equal(t, []string{"Spielberg", "Lucas", "Scott", "Cameron"}, qs[0].Options)
	assert.Equal(t, "Old format?", qs[1].Prompt)
}

func TestDifficultyFor(t *testing.T) {
	assert.Equal(t, "easy", difficultyFor(1))
	assert.Equal(t, "medium", difficultyFor(2))
	assert.Equal(t, "medium", difficultyFor(3))
	assert.Equal(t, "hard", difficultyFor(4))
	assert.Equal(t, "hard", difficultyFor(5))
}
