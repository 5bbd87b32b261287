// Package agent drives the perceive-think-act-remember loop.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/i474232898/weather-agent/internal/action"
	"github.com/i474232898/weather-agent/internal/decision"
	"github.com/i474232898/weather-agent/internal/store"
	"github.com/i474232898/weather-agent/internal/weather"
)

const tracerName = "weather-agent"

type Fetcher interface {
	Fetch(ctx context.Context, loc weather.Location) (weather.Observation, error)
}

type Decider interface {
	Decide(ctx context.Context, obs weather.Observation) (decision.Decision, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, rec store.Record) (string, error)
}

// Agent runs iterations against a single location and memory.
type Agent struct {
	loc        weather.Location
	fetcher    Fetcher
	decider    Decider
	summarizer Summarizer
	memory     *store.Memory
	logger     *slog.Logger
	out        io.Writer
	tracer     trace.Tracer

	mu    sync.Mutex
	phase Phase

	sleep func(ctx context.Context, d time.Duration) error
}

// Config bundles the collaborators of an Agent.
type Config struct {
	Location   weather.Location
	Fetcher    Fetcher
	Decider    Decider
	Summarizer Summarizer
	Memory     *store.Memory
	Logger     *slog.Logger
	// Out receives the user summaries and the final snapshot.
	Out io.Writer
}

func New(cfg Config) *Agent {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	out := cfg.Out
	if out == nil {
		out = io.Discard
	}
	return &Agent{
		loc:        cfg.Location,
		fetcher:    cfg.Fetcher,
		decider:    cfg.Decider,
		summarizer: cfg.Summarizer,
		memory:     cfg.Memory,
		logger:     logger,
		out:        out,
		tracer:     otel.Tracer(tracerName),
		sleep:      sleepContext,
	}
}

// Phase returns the step the loop is currently in.
func (a *Agent) Phase() Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase
}

func (a *Agent) setPhase(p Phase) {
	a.mu.Lock()
	a.phase = p
	a.mu.Unlock()
	a.logger.Debug("phase", "phase", p.String())
}

// Run executes iterations sequentially, sleeping between them when sleep is
// positive, then prints the memory snapshot. The first error aborts the run.
func (a *Agent) Run(ctx context.Context, iterations int, sleep time.Duration) error {
	ctx, span := a.tracer.Start(ctx, "agent.run", trace.WithAttributes(
		attribute.Int("agent.iterations", iterations),
		attribute.String("agent.city", a.loc.City),
	))
	defer span.End()

	for i := 0; i < iterations; i++ {
		if err := a.iterate(ctx, i+1); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		if sleep > 0 && i < iterations-1 {
			a.setPhase(PhaseSleeping)
			if err := a.sleep(ctx, sleep); err != nil {
				return fmt.Errorf("%s: %w", PhaseSleeping, err)
			}
		}
	}

	a.setPhase(PhaseDone)
	return a.PrintSnapshot()
}

func (a *Agent) iterate(ctx context.Context, n int) error {
	a.setPhase(PhaseIdle)
	a.logger.Info(fmt.Sprintf("--- Iteration %d ---", n))

	var obs weather.Observation
	err := a.step(ctx, PhaseFetching, func(ctx context.Context) error {
		var err error
		obs, err = a.fetcher.Fetch(ctx, a.loc)
		if err != nil {
			return err
		}
		a.memory.RecordObservation(obs)
		a.logger.Info("Observed weather", "observation", obs)
		return nil
	})
	if err != nil {
		return err
	}

	var d decision.Decision
	err = a.step(ctx, PhaseDeciding, func(ctx context.Context) error {
		var err error
		d, err = a.decider.Decide(ctx, obs)
		if err != nil {
			return err
		}
		a.logger.Info("Decision", "umbrella", d.Umbrella, "outfit_hint", d.OutfitHint,
			"activity", d.Activity, "reason", d.Reason)
		if !decision.Consistent(obs, d) {
			a.logger.Warn("decision skips umbrella despite rain indicators",
				"precipitation_sum_mm", obs.PrecipitationSumMM, "condition", string(obs.Condition()))
		}
		return nil
	})
	if err != nil {
		return err
	}

	var actions action.Result
	err = a.step(ctx, PhaseActing, func(context.Context) error {
		actions = action.Simulate(d)
		a.logger.Info("Actions taken", "actions", actions.Actions)
		return nil
	})
	if err != nil {
		return err
	}

	var rec store.Record
	err = a.step(ctx, PhaseRecording, func(context.Context) error {
		rec = a.memory.Remember(obs, d, actions)
		return nil
	})
	if err != nil {
		return err
	}

	return a.step(ctx, PhaseSummarizing, func(ctx context.Context) error {
		msg, err := a.summarizer.Summarize(ctx, rec)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(a.out, "\n=== USER SUMMARY ===\n%s\n====================\n\n", msg)
		return err
	})
}

// step runs fn inside a span for phase and tags any error with the phase.
func (a *Agent) step(ctx context.Context, phase Phase, fn func(ctx context.Context) error) error {
	a.setPhase(phase)

	ctx, span := a.tracer.Start(ctx, "agent."+phase.String())
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s: %w", phase, err)
	}
	return nil
}

// PrintSnapshot writes the whole memory as indented JSON.
func (a *Agent) PrintSnapshot() error {
	b, err := json.MarshalIndent(a.memory.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal memory: %w", err)
	}
	_, err = fmt.Fprintf(a.out, "\n--- FINAL MEMORY SNAPSHOT ---\n%s\n------------------------------\n", b)
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
