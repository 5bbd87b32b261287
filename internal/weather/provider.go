package weather

import (
	"context"
	"errors"
)

// ErrFetch marks transport and HTTP failures talking to a weather provider.
var ErrFetch = errors.New("weather fetch failed")

// Provider abstracts a daily weather source (Open-Meteo today).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (Observation, error)
}
