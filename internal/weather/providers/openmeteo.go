package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-agent/internal/weather"
)

const (
	openMeteoForecastURL = "https://api.open-meteo.com/v1/forecast"
	isoDate              = "2006-01-02"
)

// OpenMeteoProvider implements the weather.Provider interface for the
// Open-Meteo daily forecast.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    weather.SourceOpenMeteo,
		baseURL: openMeteoForecastURL,
		client:  client,
		circuit: newCircuitBreaker("openmeteo"),
		now:     time.Now,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoDaily struct {
	Daily struct {
		Time             []string   `json:"time"`
		WeatherCode      []*float64 `json:"weathercode"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// Fetch returns today's daily weather code and precipitation sum. When the
// returned series does not contain today's date the first entry is used.
func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Observation, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
		values.Set("daily", "weathercode,precipitation_sum")
		values.Set("timezone", loc.Timezone)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return weather.Observation{}, fmt.Errorf("%w: %s: %v", weather.ErrFetch, p.name, err)
	}
	defer resp.Body.Close()

	var payload openMeteoDaily
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Observation{}, fmt.Errorf("%w: %s: decode: %v", weather.ErrFetch, p.name, err)
	}

	today := p.now().In(loc.TimeLocation()).Format(isoDate)
	return todayObservation(p.name, today, payload), nil
}

func todayObservation(source, today string, payload openMeteoDaily) weather.Observation {
	daily := payload.Daily

	idx := 0
	for i, d := range daily.Time {
		if d == today {
			idx = i
			break
		}
	}

	obs := weather.Observation{
		Date:   today,
		Source: source,
	}
	if len(daily.Time) > 0 {
		obs.Date = daily.Time[idx]
	}
	if v := valueAt(daily.WeatherCode, idx); v != nil {
		code := int(*v)
		obs.WeatherCode = &code
	}
	if v := valueAt(daily.PrecipitationSum, idx); v != nil {
		obs.PrecipitationSumMM = *v
	}
	return obs
}

func valueAt(series []*float64, idx int) *float64 {
	if idx < 0 || idx >= len(series) {
		return nil
	}
	return series[idx]
}
