package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	"github.com/i474232898/weather-agent/internal/agent"
	httpapi "github.com/i474232898/weather-agent/internal/api/http"
	"github.com/i474232898/weather-agent/internal/config"
	"github.com/i474232898/weather-agent/internal/decision"
	"github.com/i474232898/weather-agent/internal/llm"
	"github.com/i474232898/weather-agent/internal/scheduler"
	"github.com/i474232898/weather-agent/internal/store"
	"github.com/i474232898/weather-agent/internal/summary"
	"github.com/i474232898/weather-agent/internal/weather"
	"github.com/i474232898/weather-agent/internal/weather/providers"
)

const serviceName = "weather-agent"

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Fetch today's weather, ask an LLM what to do about it, and remember the outcome",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := applyFlags(cmd, cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	root.Flags().Int("iterations", 1, "number of iterations to run (overrides AGENT_ITERATIONS)")
	root.Flags().Duration("sleep", 0, "pause between iterations (overrides AGENT_SLEEP)")
	root.Flags().String("schedule", "", "cron expression for repeated runs (overrides AGENT_SCHEDULE)")
	root.Flags().String("http-addr", "", "serve the memory API on this address (overrides AGENT_HTTP_ADDR)")
	return root
}

// applyFlags copies explicitly set flags over the environment config and
// re-validates the result.
func applyFlags(cmd *cobra.Command, cfg *config.AppConfig) error {
	flags := cmd.Flags()
	if flags.Changed("iterations") {
		cfg.Iterations, _ = flags.GetInt("iterations")
	}
	if flags.Changed("sleep") {
		cfg.Sleep, _ = flags.GetDuration("sleep")
	}
	if flags.Changed("schedule") {
		cfg.Schedule, _ = flags.GetString("schedule")
	}
	if flags.Changed("http-addr") {
		cfg.HTTPAddr, _ = flags.GetString("http-addr")
	}
	return cfg.Validate()
}

func run(ctx context.Context, cfg *config.AppConfig) error {
	loc := cfg.Location()
	mem := store.New(loc.City, loc.TimeLocation())

	log := slog.New(agent.NewMirrorHandler(slog.NewTextHandler(os.Stdout, nil), mem))
	slog.SetDefault(log)

	if !cfg.HasCoordinates && cfg.GeocoderAPIKey != "" {
		geo, err := weather.Geocode(cfg.GeocoderAPIKey, loc)
		if err != nil {
			log.Warn("geocoding failed; using default coordinates", "city", loc.City, "err", err)
		} else {
			loc = geo
		}
	}

	// Outbound client for the weather provider.
	httpClient := &http.Client{Timeout: cfg.WeatherTimeout}
	fetcher := providers.NewOpenMeteoProvider(httpClient)

	chat := llm.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.LLMTimeout)
	if cfg.OpenAIAPIKey == "" {
		log.Warn("OPENAI_API_KEY is not set; requests are sent without authorization", "base_url", cfg.OpenAIBaseURL)
	}

	a := agent.New(agent.Config{
		Location:   loc,
		Fetcher:    fetcher,
		Decider:    decision.NewRequester(chat, cfg.LLMTemperature, cfg.ValidateDecision, log),
		Summarizer: summary.NewSummarizer(chat, cfg.LLMTemperature),
		Memory:     mem,
		Logger:     log,
		Out:        os.Stdout,
	})

	log.Info("agent starting", "city", loc.City, "lat", loc.Latitude, "lon", loc.Longitude,
		"timezone", loc.Timezone, "model", chat.Model())

	if cfg.HTTPAddr != "" {
		app := newHTTPApp(mem)
		go func() {
			if err := app.Listen(cfg.HTTPAddr); err != nil {
				log.Error("fiber server stopped", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := app.ShutdownWithContext(shutdownCtx); err != nil {
				log.Error("error during shutdown", "err", err)
			}
		}()
	}

	if cfg.Schedule == "" {
		return a.Run(ctx, cfg.Iterations, cfg.Sleep)
	}

	sched := scheduler.New(cfg.Schedule, loc.TimeLocation(), func(ctx context.Context) error {
		return a.Run(ctx, cfg.Iterations, cfg.Sleep)
	}, log)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()
	log.Info("waiting for schedule", "next_run", sched.NextRun())

	<-ctx.Done()
	return nil
}

func newHTTPApp(mem *store.Memory) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
		})
	})

	httpapi.RegisterRoutes(app, mem)
	return app
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
