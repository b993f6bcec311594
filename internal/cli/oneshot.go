package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/philtems/colorwarm/internal/api"
	"github.com/philtems/colorwarm/internal/colortemp"
	"github.com/philtems/colorwarm/internal/display"
	"github.com/philtems/colorwarm/internal/gamma"
	"github.com/philtems/colorwarm/pkg/config"
)

// oneShotTimeout bounds a one-shot command, display round trips included
const oneShotTimeout = 30 * time.Second

var errAutoNeedsAgent = errors.New("automatic mode needs a running agent (start one with 'colorwarm run -d')")

func init() {
	for _, c := range []*cobra.Command{setCmd, getCmd, toggleCmd, resetCmd, autoCmd, xsctCmd} {
		c.Flags().Bool("direct", false, "Act on the display even if an agent is running")
		rootCmd.AddCommand(c)
	}
	setCmd.Flags().BoolP("delta", "d", false, "Treat temperature and brightness as relative shifts")
	xsctCmd.Flags().BoolP("delta", "d", false, "Treat temperature and brightness as relative shifts")
	xsctCmd.Flags().BoolP("toggle", "t", false, "Toggle between day and night temperature")
}

var setCmd = &cobra.Command{
	Use:   "set KELVIN [BRIGHTNESS]",
	Short: "Set a manual color temperature",
	Long: `Set a manual temperature (1000-10000K) and brightness (0-1, default 1).
A temperature of 0 resets to 6500K. A running agent keeps the override until
'colorwarm auto' or until override-minutes elapse.`,
	Example: `  colorwarm set 4000
  colorwarm set 5000 0.8
  colorwarm set --delta -- -250 0`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSet,
}

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Estimate the current temperature and brightness of each output",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(cmd, colortemp.Request{Action: string(colortemp.CmdQuery)})
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle between day (6500K) and night (4500K)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(cmd, colortemp.Request{Action: string(colortemp.CmdToggle)})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the neutral gamma ramp",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(cmd, colortemp.Request{Action: string(colortemp.CmdReset)})
	},
}

var autoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Return a running agent to the solar schedule",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(cmd, colortemp.Request{Action: string(colortemp.CmdAuto)})
	},
}

var xsctCmd = &cobra.Command{
	Use:   "xsct [TEMPERATURE] [BRIGHTNESS]",
	Short: "xsct compatible interface",
	Long: `Without arguments, estimate the current temperature and brightness.
A temperature of 0 resets the display to 6500K.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runXsct,
}

func runSet(cmd *cobra.Command, args []string) error {
	delta, _ := cmd.Flags().GetBool("delta")
	req, err := parseSetArgs(args, delta)
	if err != nil {
		return err
	}
	return execute(cmd, req)
}

func runXsct(cmd *cobra.Command, args []string) error {
	if toggle, _ := cmd.Flags().GetBool("toggle"); toggle {
		return execute(cmd, colortemp.Request{Action: string(colortemp.CmdToggle)})
	}
	if len(args) == 0 {
		return execute(cmd, colortemp.Request{Action: string(colortemp.CmdQuery)})
	}
	delta, _ := cmd.Flags().GetBool("delta")
	req, err := parseSetArgs(args, delta)
	if err != nil {
		return err
	}
	return execute(cmd, req)
}

// parseSetArgs builds a set request. Relative requests need both values.
func parseSetArgs(args []string, delta bool) (colortemp.Request, error) {
	if delta && len(args) != 2 {
		return colortemp.Request{}, fmt.Errorf("--delta needs both a temperature and a brightness shift")
	}

	kelvin, err := strconv.Atoi(args[0])
	if err != nil {
		return colortemp.Request{}, fmt.Errorf("invalid temperature %q", args[0])
	}

	req := colortemp.Request{Action: string(colortemp.CmdSet), Kelvin: kelvin, Relative: delta}
	if len(args) == 2 {
		b, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return colortemp.Request{}, fmt.Errorf("invalid brightness %q", args[1])
		}
		req.Brightness = &b
	}
	return req, nil
}

// execute runs req and prints the outcome
func execute(cmd *cobra.Command, req colortemp.Request) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)

	ctx, cancel := context.WithTimeout(cmd.Context(), oneShotTimeout)
	defer cancel()

	direct, _ := cmd.Flags().GetBool("direct")
	res, forwarded, err := dispatch(ctx, cfg, logger, req, direct)
	printResult(cmd.OutOrStdout(), req, res, forwarded)
	return err
}

// dispatch forwards req to a running agent, falling back to the display when
// no agent answers
func dispatch(ctx context.Context, cfg *config.Config, logger *slog.Logger, req colortemp.Request, direct bool) (colortemp.Result, bool, error) {
	if !direct && cfg.APIAddr != "" {
		res, err := api.NewClient(cfg.APIAddr, logger).Do(ctx, req)
		if !errors.Is(err, api.ErrNoAgent) {
			return res, true, err
		}
		logger.Debug("No running agent, using the display directly", "addr", cfg.APIAddr)
	}

	if req.Action == string(colortemp.CmdAuto) {
		return colortemp.Result{}, false, errAutoNeedsAgent
	}

	ctrl, err := openDisplay(cfg, logger)
	if err != nil {
		return colortemp.Result{}, false, err
	}
	defer ctrl.Close()

	res, err := runDirect(ctx, ctrl, outputFilter(cfg), req)
	return res, false, err
}

// runDirect executes req against the display without an agent
func runDirect(ctx context.Context, ctrl display.Controller, filter display.Filter, req colortemp.Request) (colortemp.Result, error) {
	cmd, err := req.Command()
	if err != nil {
		return colortemp.Result{}, err
	}

	all, err := ctrl.ListOutputs(ctx)
	if err != nil {
		return colortemp.Result{}, err
	}
	outputs := display.Select(all, filter)
	if len(outputs) == 0 {
		return colortemp.Result{}, fmt.Errorf("%w: no output matches the selection", display.ErrDisplayUnavailable)
	}

	res := colortemp.Result{Mode: colortemp.ModeState{Mode: colortemp.ModeManual}}
	readings := display.Query(ctx, ctrl, outputs)
	current := display.Current(readings)

	switch cmd.Kind {
	case colortemp.CmdQuery:
		res.Readings = readings
		res.Target = current
		res.Mode = colortemp.ModeState{}
		return res, nil
	case colortemp.CmdReset:
		res.Target = gamma.Neutral()
		return res, display.ResetAll(ctx, ctrl, outputs)
	case colortemp.CmdToggle:
		res.Target = display.ToggleTarget(current)
	case colortemp.CmdSet:
		res.Target, err = colortemp.ResolveSet(current, cmd.Kelvin, cmd.Brightness, cmd.Relative)
		if err != nil {
			return colortemp.Result{}, err
		}
	default:
		return colortemp.Result{}, fmt.Errorf("%s needs a running agent", cmd.Kind)
	}

	res.Mode.Target = res.Target
	return res, display.Apply(ctx, ctrl, outputs, res.Target)
}

func printResult(w io.Writer, req colortemp.Request, res colortemp.Result, forwarded bool) {
	if req.Action == string(colortemp.CmdQuery) {
		for _, r := range res.Readings {
			if r.Error != "" {
				fmt.Fprintf(w, "%s: %s\n", r.Output, r.Error)
				continue
			}
			fmt.Fprintf(w, "%s: temperature ~ %d brightness ~ %.2f\n", r.Output, r.Target.Kelvin, r.Target.Brightness)
		}
		if forwarded && res.Mode.Mode != "" {
			fmt.Fprintf(w, "mode: %s\n", res.Mode.Mode)
		}
		return
	}

	if res.Target.Kelvin == 0 {
		return
	}
	fmt.Fprintf(w, "%s applied\n", res.Target)
	for _, o := range res.Outputs {
		if o.Error != "" {
			fmt.Fprintf(w, "  %s: %s\n", o.Name, o.Error)
		}
	}
	if forwarded {
		switch {
		case res.Mode.Mode == colortemp.ModeAuto:
			fmt.Fprintln(w, "mode: auto")
		case !res.Mode.ExpiresAt.IsZero():
			fmt.Fprintf(w, "mode: manual until %s\n", res.Mode.ExpiresAt.Local().Format("15:04"))
		default:
			fmt.Fprintln(w, "mode: manual until 'colorwarm auto'")
		}
	}
}
