package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/philtems/colorwarm/internal/api"
	"github.com/philtems/colorwarm/internal/schedule"
	"github.com/philtems/colorwarm/internal/solar"
)

func init() {
	flagDefaults.BindScheduleFlags(locateCmd.Flags())
	flagDefaults.BindScheduleFlags(sunCmd.Flags())
	sunCmd.Flags().String("date", "", "Day to show (YYYY-MM-DD, default today)")
	sunCmd.Flags().Duration("step", time.Hour, "Interval between schedule samples")
	rootCmd.AddCommand(locateCmd, sunCmd, statusCmd)
}

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Show the timezone and location used for sunrise and sunset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		p := resolvePlace(cfg, newLogger(cfg, os.Stderr))

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Timezone:\t%s\n", p.ZoneName)
		fmt.Fprintf(w, "Location:\t%s\n", p.Name)
		fmt.Fprintf(w, "Coordinates:\t%s\n", p.Location)
		if p.Fallback != "" {
			fmt.Fprintf(w, "Fallback:\t%s\n", p.Fallback)
		}
		return w.Flush()
	},
}

var sunCmd = &cobra.Command{
	Use:   "sun",
	Short: "Show sunrise, sunset and the temperature schedule for a day",
	Args:  cobra.NoArgs,
	RunE:  runSun,
}

func runSun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p := resolvePlace(cfg, newLogger(cfg, os.Stderr))

	calc, err := newCalculator(cfg, p)
	if err != nil {
		return err
	}
	scheduler, err := newScheduler(cfg)
	if err != nil {
		return err
	}

	day := time.Now().In(p.Zone)
	if s, _ := cmd.Flags().GetString("date"); s != "" {
		day, err = time.ParseInLocation("2006-01-02", s, p.Zone)
		if err != nil {
			return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
		}
	}
	step, _ := cmd.Flags().GetDuration("step")
	if step < time.Minute {
		return fmt.Errorf("step must be at least one minute")
	}

	ev := calc.Compute(p.Location, day)
	wm, we := scheduler.Windows(ev)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Date:\t%s\n", ev.Date.Format("Mon 2006-01-02"))
	fmt.Fprintf(w, "Location:\t%s (%s)\n", p.Name, p.Location)
	fmt.Fprintf(w, "Source:\t%s\n", calc.Source())
	fmt.Fprintf(w, "Sunrise:\t%s\n", ev.Sunrise.Format("15:04 MST"))
	fmt.Fprintf(w, "Sunset:\t%s\n", ev.Sunset.Format("15:04 MST"))
	fmt.Fprintf(w, "Daylight:\t%s\n", ev.Daylight().Round(time.Minute))
	fmt.Fprintf(w, "Transitions:\t%s to %s, %s to %s\n",
		ev.Sunrise.Add(-wm).Format("15:04"), ev.Sunrise.Add(wm).Format("15:04"),
		ev.Sunset.Add(-we).Format("15:04"), ev.Sunset.Add(we).Format("15:04"))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "TIME\tPHASE\tTEMPERATURE")
	for _, row := range sampleDay(scheduler, ev.Date, step, ev) {
		fmt.Fprintf(w, "%s\t%s\t%dK\n", row.At.Format("15:04"), row.Phase, row.Kelvin)
	}
	return w.Flush()
}

type sample struct {
	At     time.Time
	Phase  schedule.Phase
	Kelvin int
}

// sampleDay evaluates the schedule every step from midnight to midnight
func sampleDay(s *schedule.Scheduler, midnight time.Time, step time.Duration, ev solar.Events) []sample {
	var rows []sample
	end := midnight.AddDate(0, 0, 1)
	for at := midnight; at.Before(end); at = at.Add(step) {
		phase, target := s.Evaluate(at, ev)
		rows = append(rows, sample{At: at, Phase: phase, Kelvin: target.Kelvin})
	}
	return rows
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the running agent",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.APIAddr == "" {
			return fmt.Errorf("the control API is disabled (api-addr is empty)")
		}

		snap, err := api.NewClient(cfg.APIAddr, newLogger(cfg, os.Stderr)).Status(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Host:\t%s\n", snap.Host)
		fmt.Fprintf(w, "Mode:\t%s\n", snap.Mode)
		fmt.Fprintf(w, "Phase:\t%s\n", snap.Phase)
		fmt.Fprintf(w, "Target:\t%dK %.0f%%\n", snap.Kelvin, snap.Brightness*100)
		fmt.Fprintf(w, "Location:\t%s\n", snap.Location)
		fmt.Fprintf(w, "Sunrise/Sunset:\t%s / %s\n", snap.Sunrise.Local().Format("15:04"), snap.Sunset.Local().Format("15:04"))
		if snap.OverrideExpires != nil {
			fmt.Fprintf(w, "Override until:\t%s\n", snap.OverrideExpires.Local().Format("15:04"))
		}
		fmt.Fprintf(w, "Updated:\t%s (%s)\n", snap.Time.Local().Format("15:04:05"), snap.Trigger)
		for _, o := range snap.Outputs {
			state := "unchanged"
			switch {
			case o.Error != "":
				state = o.Error
			case o.Written:
				state = "written"
			case o.Skipped != "":
				state = o.Skipped
			}
			fmt.Fprintf(w, "Output %s:\t%s\n", o.Name, state)
		}
		return w.Flush()
	},
}
