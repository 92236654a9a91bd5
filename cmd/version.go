package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	ver "github.com/owlbox/owlcap/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display the owlcap version, commit hash, and build date.`,
	Run: func(cmd *cobra.Command, args []string) {
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Println(ver.Version())
			return
		}
		fmt.Printf("owlcap %s\n", ver.Version())
		fmt.Printf("Commit: %s\n", ver.Commit())
		fmt.Printf("Built: %s\n", ver.BuildDate())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("short", "s", false, "Show only version number")
}
