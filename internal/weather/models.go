package weather

import (
	"log/slog"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// SourceOpenMeteo tags observations fetched from Open-Meteo.
const SourceOpenMeteo = "open-meteo"

// Location is the single place the agent watches.
type Location struct {
	City      string  `json:"city"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

// TimeLocation resolves the IANA timezone of the location, falling back to
// the process local zone when the name cannot be loaded.
func (l Location) TimeLocation() *time.Location {
	if l.Timezone == "" {
		return time.Local
	}
	tz, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return time.Local
	}
	return tz
}

// Observation is today's daily weather snapshot for the location.
// It is never modified once the fetcher returns it.
type Observation struct {
	Date               string  `json:"date"`
	WeatherCode        *int    `json:"weathercode"`
	PrecipitationSumMM float64 `json:"precipitation_sum_mm"`
	Source             string  `json:"source"`
}

// Condition maps the observation's weather code, if any.
func (o Observation) Condition() Condition {
	if o.WeatherCode == nil {
		return ConditionUnknown
	}
	return ConditionForCode(*o.WeatherCode)
}

// LogValue renders the observation for structured logging.
func (o Observation) LogValue() slog.Value {
	code := slog.StringValue("null")
	if o.WeatherCode != nil {
		code = slog.IntValue(*o.WeatherCode)
	}
	return slog.GroupValue(
		slog.String("date", o.Date),
		slog.Attr{Key: "weathercode", Value: code},
		slog.Float64("precipitation_sum_mm", o.PrecipitationSumMM),
		slog.String("source", o.Source),
		slog.String("condition", string(o.Condition())),
	)
}

// RequiresUmbrella reports whether the observation calls for an umbrella:
// any precipitation, or a drizzle/rain/snow code (51-77) or a shower/storm
// code (80 and above).
func RequiresUmbrella(o Observation) bool {
	if o.PrecipitationSumMM > 0 {
		return true
	}
	if o.WeatherCode == nil {
		return false
	}
	code := *o.WeatherCode
	return (code >= 51 && code <= 77) || code >= 80
}

// ConditionForCode maps a WMO weather code as used by Open-Meteo.
func ConditionForCode(code int) Condition {
	switch {
	case code == 0:
		return ConditionClear
	case code >= 1 && code <= 3:
		return ConditionCloudy
	case code == 45 || code == 48:
		return ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return ConditionSnow
	case code >= 95:
		return ConditionStorm
	default:
		return ConditionUnknown
	}
}
