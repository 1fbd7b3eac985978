package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/srg/blekeep/internal/profile"
	"github.com/srg/blekeep/internal/session"
)

// cadenceCmd represents the cadence command
var cadenceCmd = &cobra.Command{
	Use:     "cadence <device-address>",
	Aliases: []string{"csc"},
	Short:   "Stream wheel speed and crank cadence from a cycling sensor",
	Long: fmt.Sprintf(`Connects to a cycling speed and cadence sensor and streams wheel rpm,
speed and crank cadence computed over a sliding window of measurements.

Stop-condition variables: wheel_rpm, speed, cadence, battery, elapsed.

Examples:
  # 700x25c wheel
  blekeep cadence %s --wheel-mm 2105

  # Publish to NATS while printing text
  blekeep cadence %s --nats-url nats://localhost:4222

%s`, exampleDeviceAddress, exampleDeviceAddress, deviceAddressNote),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSupervised(cmd, args[0], func(_ *cobra.Command, opts profile.Options) (session.Callback, error) {
			return profile.NewCadenceSensor(opts), nil
		})
	},
}

func init() {
	addSessionFlags(cadenceCmd)
	cadenceCmd.Flags().Float64("wheel-mm", profile.DefaultWheelCircumferenceMM, "Wheel circumference in millimeters")
}
