// Package cli implements the colorwarm command-line interface using Cobra.
// Without a subcommand colorwarm runs the automatic agent.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/philtems/colorwarm/pkg/config"
)

// flagDefaults only supplies defaults for help output. Commands build their
// configuration with config.Load from the flags actually set.
var flagDefaults = config.NewConfig()

var rootCmd = &cobra.Command{
	Use:   "colorwarm",
	Short: "colorwarm: display color temperature that follows the sun",
	Long: `colorwarm warms the display color temperature after sunset and cools it
back to neutral during the day, using the sunrise and sunset of a location
derived from the system timezone.

Run without a subcommand to start the automatic mode. One-shot commands
(set, get, toggle, reset, auto) talk to a running agent when there is one.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAgent,
}

func init() {
	flagDefaults.BindFlags(rootCmd.PersistentFlags())
	flagDefaults.BindRunFlags(rootCmd.Flags())
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
