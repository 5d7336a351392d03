package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestLog(t *testing.T) {
	buf := captureLogs(t)

	Log(context.Background(), Event{
		Type:       EventCredentialAuthFailure,
		Phone:      "*********9999",
		CustomerID: "c1",
		Details:    map[string]interface{}{"reason": "bad_password", "attempt": 2},
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "security", entry["audit"])
	assert.Equal(t, "credential_auth_failure", entry["event_type"])
	assert.Equal(t, "*********9999", entry["phone"])
	assert.Equal(t, "c1", entry["customer_id"])
	assert.Equal(t, "bad_password", entry["reason"])
	assert.Equal(t, float64(2), entry["attempt"])
}

func TestLogFromRequest(t *testing.T) {
	buf := captureLogs(t)

	req := httptest.NewRequest("DELETE", "/v1/sessions/5511999999999", nil)
	req.Header.Set("X-Real-IP", "10.0.0.7")
	req.Header.Set("User-Agent", "ops-cli")

	LogFromRequest(req, Event{Type: EventSessionRemoved})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "10.0.0.7", entry["ip"])
	assert.Equal(t, "ops-cli", entry["user_agent"])
	assert.NotContains(t, entry, "phone")
}
