package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/profile"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/pkg/timeutil"
)

// candidateJSON wraps text in the generateContent response envelope.
func candidateJSON(text string) string {
	encoded, _ := json.Marshal(text)
	return `{"candidates":[{"content":{"parts":[{"text":` + string(encoded) + `}]}}]}`
}

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultClientConfig("test-key")
	cfg.BaseURL = server.URL
	client, err := NewClient(cfg)
	require.NoError(t, err)
	return client, server
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	assert.ErrorIs(t, err, shared.ErrConfiguration)
}

func TestBreakdownTask_ParsesProposals(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Contains(t, r.URL.Path, ":generateContent")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(candidateJSON("```json\n[{\"title\":\"Baca materi\",\"daysFromNow\":0,\"description\":\"Mulai hari ini\"}]\n```")))
	})

	proposals, err := client.BreakdownTask(context.Background(), "belajar untuk ujian kalkulus", "Rina")
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.Equal(t, "Baca materi", proposals[0].Title)
	assert.Equal(t, 0, proposals[0].DaysFromNow)
}

func TestGenerateQuiz_ParsesQuestions(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(candidateJSON(`[{"question":"Apa ibukota Indonesia?","options":["Jakarta","Bandung","Surabaya","Medan"],"correctAnswer":0}]`)))
	})

	p, err := profile.NewProfile("user-1", "Rina")
	require.NoError(t, err)

	questions, err := client.GenerateQuiz(context.Background(), "catatan geografi", p)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Apa ibukota Indonesia?", questions[0].Question)
	assert.Equal(t, 0, questions[0].CorrectAnswer)
}

func TestFixGrammar_ReturnsText(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(candidateJSON("Saya sedang belajar bahasa Go.")))
	})

	fixed, err := client.FixGrammar(context.Background(), "saya sedang belajar bahasa go")
	require.NoError(t, err)
	assert.Equal(t, "Saya sedang belajar bahasa Go.", fixed)
}

func TestGenerate_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(candidateJSON("Tetap semangat!")))
	})

	quote, err := client.Motivate(context.Background(), timeutil.Morning, "Rina")
	require.NoError(t, err)
	assert.Equal(t, "Tetap semangat!", quote)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGenerate_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.FixGrammar(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, shared.IsExternalService(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestBreakdownTask_NoArrayInResponse(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(candidateJSON("Maaf, saya tidak mengerti.")))
	})

	_, err := client.BreakdownTask(context.Background(), "apa saja", "Rina")
	assert.ErrorIs(t, err, shared.ErrContentGeneration)
}

func TestMotivator_FallbackWithoutClient(t *testing.T) {
	m := NewMotivator(nil, nil)

	quote := m.DailyQuote(context.Background(), nil)
	assert.NotEmpty(t, quote)
}

func TestMotivator_FallbackOnClientError(t *testing.T) {
	client, server := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	server.Close()

	m := NewMotivator(client, nil)
	quote := m.DailyQuote(context.Background(), nil)
	assert.NotEmpty(t, quote)
}

func TestFallbackQuote_CoversAllBuckets(t *testing.T) {
	for _, bucket := range []timeutil.TimeOfDay{timeutil.Morning, timeutil.Afternoon, timeutil.Evening, timeutil.Night} {
		assert.NotEmpty(t, FallbackQuote(bucket))
	}
}
