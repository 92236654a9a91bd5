// the root command is the entrypoint for the owlcap cli
package cmd

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/owlbox/owlcap/internal/config"
	"github.com/owlbox/owlcap/pkg/logger"
	"github.com/owlbox/owlcap/pkg/version"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "owlcap",
	Short: "Owlcap - owl box camera capture & publish tool",
	Long: `Owlcap captures still images from a Raspberry Pi camera on a timer,
on a button press or on demand, stamps each frame with its capture
time, and mirrors the image directory plus a browsable index page to a
remote host over SSH.`,
	SilenceUsage: true,
}

// Execute runs the CLI. Build info comes from main's ldflags.
func Execute(v, commit, date string) {
	version.Set(v, commit, date)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./owlcap.yaml)")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")

	pf.String("outdir", "./images", "output directory for images")
	pf.Int("width", 0, "requested image width (set together with --height)")
	pf.Int("height", 0, "requested image height (set together with --width)")
	pf.Int("rotate", 0, "rotate captures counter-clockwise (0, 90, 180 or 270 degrees)")
	pf.Bool("annotate", true, "stamp the capture time onto each image")
	pf.String("font", "", "TTF font for the timestamp overlay (optional)")

	pf.Bool("publish", false, "mirror captures to a remote host over SSH")
	pf.String("remote-host", "", "remote host to publish to")
	pf.String("remote-user", "", "remote SSH user")
	pf.String("remote-dir", "", "remote directory to upload files into")
	pf.String("ssh-key", "", "path to SSH private key (optional)")
	pf.Int("ssh-port", 22, "SSH port on the remote host")

	pf.Bool("build-index", false, "build an index.html listing captured images")
	pf.String("index-title", "Image Index", "title for the generated index page")

	bindings := map[string]string{
		"capture.outdir":   "outdir",
		"capture.width":    "width",
		"capture.height":   "height",
		"capture.rotate":   "rotate",
		"annotate.enabled": "annotate",
		"annotate.font":    "font",
		"remote.enabled":   "publish",
		"remote.host":      "remote-host",
		"remote.user":      "remote-user",
		"remote.dir":       "remote-dir",
		"remote.key":       "ssh-key",
		"remote.port":      "ssh-port",
		"index.enabled":    "build-index",
		"index.title":      "index-title",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, pf.Lookup(flag)); err != nil {
			logger.Fatal("Flag binding failed", "flag", flag, "error", err)
		}
	}
}

func initConfig() {
	// Field units keep SSH credentials in a .env next to the binary.
	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded .env file")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("owlcap")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if homeDir, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".owlcap"))
		}
		viper.AddConfigPath("/etc/owlcap")
	}

	viper.SetEnvPrefix("OWLCAP")
	viper.SetEnvKeyReplacer(config.KeyReplacer())
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Debug("Using config file", "path", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		// An explicitly requested config file must exist.
		logger.Fatalf("cannot read config file %s: %v", cfgFile, err)
	}

	logger.GetLogger().ConfigureFromEnv()
	if debug {
		logger.GetLogger().SetLogLevel("debug")
	}
}
