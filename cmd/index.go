package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/owlbox/owlcap/internal/config"
	"github.com/owlbox/owlcap/internal/mirror"
	"github.com/owlbox/owlcap/internal/webindex"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the image index page",
	Long: `Scan the output directory and regenerate index.html without
capturing anything. When publishing is enabled the rebuilt page is
uploaded to the remote host.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}

		path, err := webindex.Build(cfg.Capture.OutDir, cfg.Index.Title)
		if err != nil {
			return err
		}
		color.Green("Built %s", path)

		if !cfg.Remote.Enabled {
			return nil
		}
		publisher, err := mirror.New(cfg.Remote.Target())
		if err != nil {
			return err
		}
		defer publisher.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := publisher.Publish(ctx, path); err != nil {
			return err
		}
		color.Green("Published %s to %s", webindex.IndexFileName, cfg.Remote.Host)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
