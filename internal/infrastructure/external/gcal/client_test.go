package gcal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) AccessToken(_ context.Context, _ string) (string, error) {
	return s.token, s.err
}

func testGcalClient(t *testing.T, tokens TokenProvider, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{BaseURL: server.URL, Tokens: tokens})
	require.NoError(t, err)
	return client
}

func TestExportAllDayEvent_PostsEvent(t *testing.T) {
	var captured eventRequest
	var gotAuth string
	client := testGcalClient(t, staticTokens{token: "ya29.token"}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/calendar/v3/calendars/primary/events", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"evt1"}`))
	})

	due := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	err := client.ExportAllDayEvent(context.Background(), "user-1", "Kumpulkan esai", due)
	require.NoError(t, err)

	assert.Equal(t, "Bearer ya29.token", gotAuth)
	assert.Equal(t, "Kumpulkan esai", captured.Summary)
	assert.Equal(t, "2026-03-09", captured.Start.Date)
	// All-day end dates are exclusive.
	assert.Equal(t, "2026-03-10", captured.End.Date)
}

func TestExportAllDayEvent_NoToken(t *testing.T) {
	client := testGcalClient(t, staticTokens{err: shared.ErrCalendarTokenMissing}, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected without a token")
	})

	err := client.ExportAllDayEvent(context.Background(), "user-1", "Tugas", time.Now())
	assert.ErrorIs(t, err, shared.ErrCalendarTokenMissing)
}

func TestExportAllDayEvent_RevokedToken(t *testing.T) {
	client := testGcalClient(t, staticTokens{token: "stale"}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := client.ExportAllDayEvent(context.Background(), "user-1", "Tugas", time.Now())
	assert.ErrorIs(t, err, shared.ErrCalendarTokenMissing)
}

func TestExportAllDayEvent_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := testGcalClient(t, staticTokens{token: "ya29.token"}, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	err := client.ExportAllDayEvent(context.Background(), "user-1", "Tugas", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestExportAllDayEvent_BadRequestSurfacesMessage(t *testing.T) {
	client := testGcalClient(t, staticTokens{token: "ya29.token"}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid start date"}}`))
	})

	err := client.ExportAllDayEvent(context.Background(), "user-1", "Tugas", time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrExternalService)
	assert.Contains(t, err.Error(), "Invalid start date")
}
