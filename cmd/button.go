package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/owlbox/owlcap/internal/session"
)

var buttonCmd = &cobra.Command{
	Use:   "button",
	Short: "Capture an image on each GPIO button press",
	Long: `Wait for presses of a button wired to a GPIO pin (pull-up, active
low) and capture one image per press. Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(session.ModeButton)
	},
}

func init() {
	rootCmd.AddCommand(buttonCmd)
	buttonCmd.Flags().Int("pin", 17, "BCM pin number the button is wired to")
	buttonCmd.Flags().String("debounce", "300ms", "minimum delay between accepted presses")
	bindings := map[string]string{
		"button.pin":      "pin",
		"button.debounce": "debounce",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, buttonCmd.Flags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
}
