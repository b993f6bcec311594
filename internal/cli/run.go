package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/philtems/colorwarm/internal/api"
	"github.com/philtems/colorwarm/internal/colortemp"
	"github.com/philtems/colorwarm/internal/daemon"
	"github.com/philtems/colorwarm/pkg/health"
)

func init() {
	flagDefaults.BindRunFlags(runCmd.Flags())
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the automatic mode (default)",
	Long: `Follow the solar schedule until interrupted. On exit every display
output is reset to neutral.`,
	Args: cobra.NoArgs,
	RunE: runAgent,
}

func runAgent(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.Daemon && !daemon.IsChild() {
		pid, err := daemon.Detach(os.Args[1:], cfg.PIDFile, cfg.LogFile)
		if err != nil {
			return err
		}
		fmt.Printf("colorwarm started in background (pid %d, log %s)\n", pid, cfg.LogFile)
		return nil
	}

	logger := newLogger(cfg, os.Stdout)
	background := daemon.IsChild()

	if background {
		release, err := daemon.WritePID(cfg.PIDFile)
		if err != nil {
			return err
		}
		defer release()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	p := resolvePlace(cfg, logger)
	calc, err := newCalculator(cfg, p)
	if err != nil {
		return err
	}
	scheduler, err := newScheduler(cfg)
	if err != nil {
		return err
	}
	ctrl, err := openDisplay(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("Starting colorwarm",
		"version", cmd.Root().Version,
		"host", cfg.Hostname,
		"timezone", p.ZoneName,
		"location", p.Name,
		"driver", cfg.Driver,
		"background", background)

	s := buildSinks(ctx, cfg, logger)

	agent := colortemp.NewAgent(cfg, colortemp.Deps{
		Display:    ctrl,
		Filter:     outputFilter(cfg),
		Calculator: calc,
		Scheduler:  scheduler,
		Location:   p.Location,
		Sink:       s.fanout,
		Logger:     logger,
	})

	if s.mqtt != nil {
		if err := colortemp.SubscribeCommands(s.mqtt, cfg.Hostname, agent, logger); err != nil {
			logger.Warn("MQTT commands disabled", "error", err)
		}
	}

	var server *api.Server
	if cfg.APIAddr != "" {
		checker := health.NewChecker(agent.DisplayHealth, s.mqtt, s.redis, logger)
		server = api.NewServer(agent, checker, logger)
		if cfg.MetricsEnabled {
			server.EnableMetrics()
		}
		if err := server.Start(cfg.APIAddr); err != nil {
			logger.Warn("Control API disabled", "error", err)
			server = nil
		}
	}

	if cfg.KeyboardControls && !background {
		stopKeys, err := colortemp.StartKeyboard(ctx, os.Stdin, agent, stop, logger)
		if err != nil {
			logger.Debug("Key controls disabled", "error", err)
		} else {
			defer stopKeys()
		}
	}

	runErr := agentExit(agent.Start(ctx))
	if runErr != nil {
		logger.Error("Agent failed", "error", runErr)
	}
	stop()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down control API", "error", err)
		}
		cancel()
	}

	if err := agent.Stop(); err != nil {
		logger.Error("Error stopping agent", "error", err)
	}

	logger.Info("colorwarm shutdown complete")
	return runErr
}

// agentExit maps the agent's return to the command's. A signal that lands
// while startup is still retrying is a normal shutdown.
func agentExit(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
