package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/srg/blekeep/internal/profile"
	"github.com/srg/blekeep/internal/session"
)

// heartRateCmd represents the heartrate command
var heartRateCmd = &cobra.Command{
	Use:     "heartrate <device-address>",
	Aliases: []string{"hr"},
	Short:   "Stream heart rate and battery level from a heart rate monitor",
	Long: fmt.Sprintf(`Connects to a heart rate monitor, reads its battery level, then streams
heart rate measurements until interrupted or the --until condition holds.

Stop-condition variables: bpm, battery, energy, rr, contact, elapsed.

Examples:
  # Stream until Ctrl+C
  blekeep heartrate %s

  # Stop after ten minutes or on a heart rate spike, JSON output
  blekeep heartrate %s --until 'bpm > 180 or elapsed > 600' --format json

%s`, exampleDeviceAddress, exampleDeviceAddress, deviceAddressNote),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSupervised(cmd, args[0], func(_ *cobra.Command, opts profile.Options) (session.Callback, error) {
			return profile.NewHeartRateMonitor(opts), nil
		})
	},
}

func init() {
	addSessionFlags(heartRateCmd)
}
