package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-agent/internal/action"
	"github.com/i474232898/weather-agent/internal/decision"
	"github.com/i474232898/weather-agent/internal/weather"
)

var (
	// ErrNotFound is returned when no decision has been recorded yet.
	ErrNotFound = errors.New("no decisions recorded")
)

// Record is one completed perceive-think-act iteration.
type Record struct {
	ID          string              `json:"id"`
	Timestamp   time.Time           `json:"ts"`
	Observation weather.Observation `json:"observation"`
	Decision    decision.Decision   `json:"decision"`
	Actions     action.Result       `json:"actions"`
}

// Snapshot is a point-in-time copy of the agent's memory.
type Snapshot struct {
	City         string                `json:"city"`
	Timezone     string                `json:"timezone"`
	LastAPI      *string               `json:"last_api"`
	Observations []weather.Observation `json:"observations"`
	Decisions    []Record              `json:"decisions"`
	Log          []string              `json:"log"`
	LastUmbrella *bool                 `json:"last_umbrella,omitempty"`
}

// Memory is the agent's append-only, process-lifetime memory. Entries are
// never removed or modified once appended; readers get copies.
type Memory struct {
	mu sync.RWMutex

	city     string
	tz       *time.Location
	lastAPI  *string
	lastUmb  *bool
	obs      []weather.Observation
	records  []Record
	logLines []string

	now   func() time.Time
	newID func() string
}

// New creates an empty memory for city. Timestamps are rendered in tz.
func New(city string, tz *time.Location) *Memory {
	if tz == nil {
		tz = time.Local
	}
	return &Memory{
		city:     city,
		tz:       tz,
		obs:      make([]weather.Observation, 0, 8),
		records:  make([]Record, 0, 8),
		logLines: make([]string, 0, 64),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// RecordObservation appends obs and remembers which API produced it.
func (m *Memory) RecordObservation(obs weather.Observation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	src := obs.Source
	m.lastAPI = &src
	m.obs = append(m.obs, obs)
}

// Remember appends a record for a completed iteration and updates the
// latest umbrella flag.
func (m *Memory) Remember(obs weather.Observation, d decision.Decision, actions action.Result) Record {
	rec := Record{
		ID:          m.newID(),
		Timestamp:   m.now().In(m.tz),
		Observation: obs,
		Decision:    d,
		Actions:     action.Result{Actions: append([]string(nil), actions.Actions...)},
	}
	if rec.Actions.Actions == nil {
		rec.Actions.Actions = []string{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, rec)
	umbrella := d.Umbrella
	m.lastUmb = &umbrella
	return rec
}

// Log appends a timestamped line to the memory log.
func (m *Memory) Log(line string) {
	ts := m.now().Format(time.RFC3339Nano)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.logLines = append(m.logLines, ts+" "+line)
}

// Observations returns all observations in the order they were recorded.
func (m *Memory) Observations() []weather.Observation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]weather.Observation{}, m.obs...)
}

// Decisions returns the full decision history, oldest first.
func (m *Memory) Decisions() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyRecords(m.records)
}

// Latest returns the most recent record.
func (m *Memory) Latest() (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.records) == 0 {
		return Record{}, ErrNotFound
	}
	return copyRecord(m.records[len(m.records)-1]), nil
}

// Logs returns the log lines.
func (m *Memory) Logs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.logLines...)
}

// Snapshot copies the whole memory.
func (m *Memory) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{
		City:         m.city,
		Timezone:     m.tz.String(),
		Observations: append([]weather.Observation{}, m.obs...),
		Decisions:    copyRecords(m.records),
		Log:          append([]string{}, m.logLines...),
	}
	if m.lastAPI != nil {
		v := *m.lastAPI
		s.LastAPI = &v
	}
	if m.lastUmb != nil {
		v := *m.lastUmb
		s.LastUmbrella = &v
	}
	return s
}

func copyRecords(in []Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = copyRecord(r)
	}
	return out
}

func copyRecord(r Record) Record {
	r.Actions.Actions = append([]string{}, r.Actions.Actions...)
	return r
}
