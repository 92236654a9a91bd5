package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/owlbox/owlcap/internal/session"
)

var timelapseCmd = &cobra.Command{
	Use:   "timelapse",
	Short: "Capture a numbered image series on a fixed interval",
	Long: `Capture images on a fixed interval into a numbered series
(img0000, img0001, ...). Runs until the requested count is reached, or
until interrupted when no count is given. Remote publishing is batched:
frames are uploaded together when the series finishes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(session.ModeTimelapse)
	},
}

func init() {
	rootCmd.AddCommand(timelapseCmd)
	timelapseCmd.Flags().StringP("interval", "i", "5s", "delay between captures (e.g. 5s, 2m, 1d)")
	timelapseCmd.Flags().IntP("count", "n", 0, "number of frames to capture (0 = until interrupted)")
	bindings := map[string]string{
		"timelapse.interval": "interval",
		"timelapse.count":    "count",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, timelapseCmd.Flags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
}
