package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/philtems/colorwarm/internal/display"
	"github.com/philtems/colorwarm/internal/location"
	"github.com/philtems/colorwarm/internal/schedule"
	"github.com/philtems/colorwarm/internal/solar"
	"github.com/philtems/colorwarm/internal/status"
	"github.com/philtems/colorwarm/pkg/config"
	"github.com/philtems/colorwarm/pkg/mqtt"
	"github.com/philtems/colorwarm/pkg/postgres"
	"github.com/philtems/colorwarm/pkg/redis"
)

// loadConfig builds and validates the configuration for cmd
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)
	return logger
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// place is a resolved observer position
type place struct {
	Zone     *time.Location
	ZoneName string
	Name     string
	Location location.Location
	Fallback string
}

// resolvePlace determines the zone and location. Explicit coordinates win over
// the timezone lookup; out of range coordinates are clamped with a warning.
func resolvePlace(cfg *config.Config, logger *slog.Logger) place {
	zoneName := cfg.Timezone
	if zoneName == "" {
		zoneName = location.DetectZone()
	}

	zone, err := time.LoadLocation(zoneName)
	if err != nil {
		logger.Warn("Unknown timezone, using local time", "timezone", zoneName, "error", err)
		zone = time.Local
	}

	p := place{Zone: zone, ZoneName: zoneName}
	if cfg.Latitude != nil && cfg.Longitude != nil {
		p.Name = "configured coordinates"
		p.Location = location.Location{Latitude: *cfg.Latitude, Longitude: *cfg.Longitude}
	} else {
		res := location.NewResolver(nil).Resolve(zoneName)
		p.Name = res.Name
		p.Location = res.Location
		p.Fallback = res.Fallback
		if !res.Exact {
			logger.Info("No exact location for timezone, using fallback",
				"timezone", zoneName,
				"fallback", res.Fallback,
				"location", res.Name)
		}
	}

	normalized, err := solar.Normalize(p.Location)
	if err != nil {
		logger.Warn("Location adjusted", "error", err, "location", normalized.String())
	}
	p.Location = normalized
	return p
}

func newCalculator(cfg *config.Config, p place) (*solar.Calculator, error) {
	source, err := solar.NewSource(cfg.SolarSource)
	if err != nil {
		return nil, err
	}
	return solar.NewCalculator(source, p.Zone), nil
}

func newScheduler(cfg *config.Config) (*schedule.Scheduler, error) {
	curve, err := schedule.ParseCurve(cfg.Curve)
	if err != nil {
		return nil, err
	}
	return schedule.NewScheduler(schedule.Config{
		MorningWindow: time.Duration(cfg.MorningWindowMin) * time.Minute,
		EveningWindow: time.Duration(cfg.EveningWindowMin) * time.Minute,
		NightKelvin:   cfg.NightKelvin,
		DayKelvin:     cfg.DayKelvin,
		Curve:         curve,
	}), nil
}

func openDisplay(cfg *config.Config, logger *slog.Logger) (display.Controller, error) {
	return display.Open(display.Options{
		Driver:  cfg.Driver,
		Display: cfg.Display,
		Timeout: cfg.DisplayTimeout(),
		Logger:  logger,
	})
}

func outputFilter(cfg *config.Config) display.Filter {
	return display.Filter{Screen: cfg.Screen, CRTC: cfg.CRTC, Name: cfg.Output}
}

// sinks are the optional status sinks and the clients behind them
type sinks struct {
	fanout   *status.Fanout
	mqtt     mqtt.Client
	redis    redis.Client
	postgres postgres.Client
}

// statusTTL is how long the Redis status hash outlives the last update
func statusTTL(cfg *config.Config) time.Duration {
	ttl := 4 * cfg.Interval()
	if ttl < 2*time.Minute {
		ttl = 2 * time.Minute
	}
	return ttl
}

// buildSinks connects the configured sinks. A sink that cannot connect is
// logged and left out; status reporting never stops the agent.
func buildSinks(ctx context.Context, cfg *config.Config, logger *slog.Logger) sinks {
	s := sinks{fanout: status.NewFanout(logger, status.NewLogSink(logger, cfg.Verbose))}

	if cfg.MQTTBroker != "" {
		client := mqtt.NewClient(cfg, logger)
		if err := client.Connect(ctx); err != nil {
			logger.Warn("MQTT sink disabled", "broker", cfg.MQTTAddress(), "error", err)
		} else {
			s.mqtt = client
			s.fanout.Add(status.NewMQTTSink(client, cfg.Hostname))
		}
	}

	if cfg.RedisHost != "" {
		client := redis.NewClient(cfg, logger)
		if err := client.Ping(ctx); err != nil {
			logger.Warn("Redis sink disabled", "redis", cfg.RedisAddress(), "error", err)
			client.Close()
		} else {
			s.redis = client
			s.fanout.Add(status.NewRedisSink(client, cfg.Hostname, statusTTL(cfg)))
		}
	}

	if cfg.PostgresDSN != "" {
		client := postgres.NewClient(cfg, logger)
		if err := client.Connect(ctx); err != nil {
			logger.Warn("Postgres sink disabled", "error", err)
		} else if sink, err := status.NewPostgresSink(ctx, client); err != nil {
			logger.Warn("Postgres sink disabled", "error", err)
			client.Disconnect()
		} else {
			if health, err := client.HealthCheck(ctx); err == nil && health.Connected {
				logger.Info("History sink ready", "database", health.Database, "server", health.ServerVersion)
			}
			s.postgres = client
			s.fanout.Add(sink)
		}
	}

	return s
}
