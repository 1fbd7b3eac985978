package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/srg/blekeep/internal/profile"
	"github.com/srg/blekeep/internal/session"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <device-address>",
	Short: "Stream raw values of arbitrary characteristics",
	Long: fmt.Sprintf(`Subscribes to (or reads, when notifications are unsupported) each
service/characteristic pair and prints every value as hex.

Stop-condition variables: updates, last, elapsed.

Examples:
  # Heart rate measurement and battery level
  blekeep watch %s --char 180d/2a37,180f/2a19

  # Stop after 100 updates
  blekeep watch %s --char 1816/2a5b --until 'updates >= 100'

%s`, exampleDeviceAddress, exampleDeviceAddress, deviceAddressNote),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		specs, _ := cmd.Flags().GetStringSlice("char")
		if len(specs) == 0 {
			return ErrNoCharacteristics
		}
		refs, err := profile.ParseCharRefs(specs)
		if err != nil {
			return err
		}
		return runSupervised(cmd, args[0], func(_ *cobra.Command, opts profile.Options) (session.Callback, error) {
			return profile.NewRawWatcher(refs, opts), nil
		})
	},
}

func init() {
	addSessionFlags(watchCmd)
	watchCmd.Flags().StringSlice("char", nil, "service/characteristic pairs, comma-separated (e.g. 180d/2a37)")
}
