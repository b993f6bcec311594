package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/philtems/colorwarm/internal/status"
	"github.com/philtems/colorwarm/pkg/postgres"
	"github.com/philtems/colorwarm/pkg/redis"
)

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of changes to show")
	historyCmd.Flags().String("redis-host", flagDefaults.RedisHost, "Redis hostname")
	historyCmd.Flags().String("postgres-dsn", flagDefaults.PostgresDSN, "Postgres DSN")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent temperature changes recorded by the status sinks",
	Long: `Read the change history of this host from Postgres when a DSN is
configured, otherwise from Redis.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)
	limit, _ := cmd.Flags().GetInt("limit")
	ctx := cmd.Context()

	var entries []status.HistoryEntry
	switch {
	case cfg.PostgresDSN != "":
		client := postgres.NewClient(cfg, logger)
		if err := client.Connect(ctx); err != nil {
			return err
		}
		defer client.Disconnect()
		entries, err = status.PostgresHistory(ctx, client, cfg.Hostname, limit)
	case cfg.RedisHost != "":
		client := redis.NewClient(cfg, logger)
		defer client.Close()
		entries, err = status.RedisHistory(ctx, client, cfg.Hostname, limit)
	default:
		return fmt.Errorf("no history store configured (set postgres-dsn or redis-host)")
	}
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No recorded changes for %s.\n", cfg.Hostname)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tTRIGGER\tPHASE\tMODE\tTEMPERATURE\tBRIGHTNESS\tFAILED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dK\t%.0f%%\t%d/%d\n",
			e.Time.Local().Format("2006-01-02 15:04:05"),
			e.Trigger, e.Phase, e.Mode, e.Kelvin, e.Brightness*100, e.Failed, e.Outputs)
	}
	return w.Flush()
}
