package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/RodrigoCastroMoura/trackerbot/internal/errors"
)

func newTrackingForTest(t *testing.T, handler http.HandlerFunc) *TrackingService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewTrackingService(TrackingConfig{
		BaseURL: server.URL,
		APIKey:  "tracking-key",
		Timeout: time.Second,
	}, nil)
}

func TestTrackingService_SetBlock(t *testing.T) {
	tests := []struct {
		name    string
		blocked bool
		command string
	}{
		{"block", true, "bloquear"},
		{"unblock", false, "desbloquear"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTrackingForTest(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/vehicles/v-1/block", r.URL.Path)
				assert.Equal(t, "Bearer tracking-key", r.Header.Get("Authorization"))

				var body blockRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, tt.command, body.Command)
				w.WriteHeader(http.StatusOK)
			})

			assert.NoError(t, svc.SetBlock(context.Background(), "v-1", tt.blocked))
		})
	}

	t.Run("non-200 is a rejected command", func(t *testing.T) {
		svc := newTrackingForTest(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
		})

		err := svc.SetBlock(context.Background(), "v-1", true)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCommandRejected))
		assert.Equal(t, apperrors.ErrCodeCommandRejected, apperrors.GetCode(err))
	})

	t.Run("escapes vehicle id", func(t *testing.T) {
		svc := newTrackingForTest(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/vehicles/a%2Fb/block", r.URL.EscapedPath())
			w.WriteHeader(http.StatusOK)
		})

		assert.NoError(t, svc.SetBlock(context.Background(), "a/b", true))
	})
}

func TestTrackingService_Location(t *testing.T) {
	t.Run("parses location", func(t *testing.T) {
		svc := newTrackingForTest(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/tracking/vehicles/v-1/location", r.URL.Path)
			_, _ = w.Write([]byte(`{"location":{"lat":-23.55,"lng":-46.63,"address":"Av. Paulista, 1000","speed":42.5,"timestamp":"2024-01-01T12:00:00Z"}}`))
		})

		loc, err := svc.Location(context.Background(), "v-1")
		require.NoError(t, err)
		assert.Equal(t, -23.55, loc.Lat)
		assert.Equal(t, -46.63, loc.Lng)
		assert.Equal(t, "Av. Paulista, 1000", loc.Address)
		assert.Equal(t, 42.5, loc.Speed)
		assert.Equal(t, "2024-01-01T12:00:00Z", loc.LastUpdate)
	})

	t.Run("fills missing fields", func(t *testing.T) {
		svc := newTrackingForTest(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"location":{"lat":1,"lng":2}}`))
		})

		loc, err := svc.Location(context.Background(), "v-1")
		require.NoError(t, err)
		assert.Equal(t, "N/A", loc.Address)
		assert.Equal(t, "N/A", loc.LastUpdate)
	})

	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"not found", http.StatusNotFound, `{}`},
		{"missing location", http.StatusOK, `{}`},
		{"malformed body", http.StatusOK, `{"location":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTrackingForTest(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.payload))
			})

			loc, err := svc.Location(context.Background(), "v-1")
			assert.Nil(t, loc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrLocationUnavailable))
			assert.Equal(t, apperrors.ErrCodeLocationUnavailable, apperrors.GetCode(err))
		})
	}

	t.Run("deadline is a timeout", func(t *testing.T) {
		svc := newTrackingForTest(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := svc.Location(ctx, "v-1")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeTimeout, apperrors.GetCode(err))
	})
}
