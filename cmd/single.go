package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/owlbox/owlcap/internal/naming"
	"github.com/owlbox/owlcap/internal/session"
)

var singleCmd = &cobra.Command{
	Use:   "single",
	Short: "Capture a single image",
	Long: `Capture one still image, stamp it with the capture time and, when
publishing is enabled, mirror it to the remote host.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(session.ModeSingle)
	},
}

func init() {
	rootCmd.AddCommand(singleCmd)
	singleCmd.Flags().String("prefix", naming.DefaultPrefix, "filename prefix for the capture")
	if err := viper.BindPFlag("capture.prefix", singleCmd.Flags().Lookup("prefix")); err != nil {
		panic(err)
	}
}
