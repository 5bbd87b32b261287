package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-agent/internal/action"
	"github.com/i474232898/weather-agent/internal/decision"
	"github.com/i474232898/weather-agent/internal/store"
	"github.com/i474232898/weather-agent/internal/weather"
)

func newApp(mem *store.Memory) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, mem)
	return app
}

func get(t *testing.T, app *fiber.App, target string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	return resp
}

func seeded(n int) *store.Memory {
	mem := store.New("Chennai", time.UTC)
	for i := 0; i < n; i++ {
		code := 60 + i
		obs := weather.Observation{
			Date:        time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC).Format(time.DateOnly),
			WeatherCode: &code,
			Source:      weather.SourceOpenMeteo,
		}
		d := decision.Decision{Umbrella: true, Reason: "rain"}
		mem.RecordObservation(obs)
		mem.Remember(obs, d, action.Simulate(d))
	}
	return mem
}

func TestLatest_EmptyMemory(t *testing.T) {
	resp := get(t, newApp(store.New("Chennai", time.UTC)), "/api/v1/memory/latest")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLatest_ReturnsLastRecord(t *testing.T) {
	resp := get(t, newApp(seeded(3)), "/api/v1/memory/latest")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rec store.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	assert.Equal(t, "2024-01-03", rec.Observation.Date)
	assert.Equal(t, []string{action.UmbrellaReminder}, rec.Actions.Actions)
}

func TestSnapshot(t *testing.T) {
	resp := get(t, newApp(seeded(2)), "/api/v1/memory")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap store.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, "Chennai", snap.City)
	assert.Len(t, snap.Observations, 2)
	assert.Len(t, snap.Decisions, 2)
}

func TestDecisions(t *testing.T) {
	resp := get(t, newApp(seeded(2)), "/api/v1/memory/decisions")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		City      string         `json:"city"`
		Decisions []store.Record `json:"decisions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Chennai", body.City)
	assert.Len(t, body.Decisions, 2)
}

func TestObservationsLimit(t *testing.T) {
	app := newApp(seeded(5))

	resp := get(t, app, "/api/v1/memory/observations?limit=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Limit        int                   `json:"limit"`
		Observations []weather.Observation `json:"observations"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Limit)
	require.Len(t, body.Observations, 2)
	assert.Equal(t, "2024-01-04", body.Observations[0].Date)
	assert.Equal(t, "2024-01-05", body.Observations[1].Date)

	resp = get(t, app, "/api/v1/memory/observations")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestObservationsLimitValidation(t *testing.T) {
	app := newApp(seeded(1))

	for _, q := range []string{"limit=0", "limit=1001", "limit=abc", "limit=-3"} {
		resp := get(t, app, "/api/v1/memory/observations?"+q)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}
