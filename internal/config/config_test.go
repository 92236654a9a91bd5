package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/owlbox/owlcap/internal/naming"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "./images", cfg.Capture.OutDir)
	assert.Equal(t, naming.DefaultPrefix, cfg.Capture.Prefix)
	assert.Equal(t, 0, cfg.Capture.Rotate)
	assert.Equal(t, 1500*time.Millisecond, cfg.Capture.SettleDelay)
	assert.Equal(t, 5*time.Second, cfg.Capture.GraceDelay)
	assert.Equal(t, 5*time.Second, cfg.Timelapse.Interval)
	assert.Equal(t, 0, cfg.Timelapse.Count)
	assert.Equal(t, 17, cfg.Button.Pin)
	assert.Equal(t, 300*time.Millisecond, cfg.Button.Debounce)
	assert.False(t, cfg.Remote.Enabled)
	assert.Equal(t, 22, cfg.Remote.Port)
	assert.Equal(t, 30*time.Second, cfg.Remote.DialTimeout)
	assert.False(t, cfg.Index.Enabled)
	assert.Equal(t, "Image Index", cfg.Index.Title)
	assert.True(t, cfg.Annotate.Enabled)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("capture.outdir", "/data/owlbox")
	v.Set("capture.rotate", 270)
	v.Set("timelapse.interval", "10s")
	v.Set("timelapse.count", 100)
	v.Set("index.enabled", true)
	v.Set("index.title", "Owl Box Timelapse Image Index")

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/data/owlbox", cfg.Capture.OutDir)
	assert.Equal(t, 270, cfg.Capture.Rotate)
	assert.Equal(t, 10*time.Second, cfg.Timelapse.Interval)
	assert.Equal(t, 100, cfg.Timelapse.Count)
	assert.True(t, cfg.Index.Enabled)
	assert.Equal(t, "Owl Box Timelapse Image Index", cfg.Index.Title)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("OWLCAP_CAPTURE_OUTDIR", "/mnt/usb/images")

	v := viper.New()
	v.SetEnvPrefix("OWLCAP")
	v.SetEnvKeyReplacer(KeyReplacer())
	v.AutomaticEnv()

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/mnt/usb/images", cfg.Capture.OutDir)
}

func TestLoad_HumanFriendlyInterval(t *testing.T) {
	v := viper.New()
	v.Set("timelapse.interval", "1d")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.Timelapse.Interval)
}

func TestLoad_InvalidDuration(t *testing.T) {
	v := viper.New()
	v.Set("timelapse.interval", "soon")

	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timelapse interval")
}

func TestValidate_Rotation(t *testing.T) {
	for _, ok := range []int{0, 90, 180, 270} {
		v := viper.New()
		v.Set("capture.rotate", ok)
		_, err := Load(v)
		assert.NoError(t, err, "rotate %d", ok)
	}

	v := viper.New()
	v.Set("capture.rotate", 45)
	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rotation")
}

func TestValidate_ResolutionPairing(t *testing.T) {
	v := viper.New()
	v.Set("capture.width", 1920)

	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "width and height")

	v.Set("capture.height", 1080)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 1920, cfg.Capture.Width)
	assert.Equal(t, 1080, cfg.Capture.Height)
}

func TestValidate_RemoteRequiresConnectionParams(t *testing.T) {
	v := viper.New()
	v.Set("remote.enabled", true)
	v.Set("remote.host", "uploads.example.com")

	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote user")
	assert.Contains(t, err.Error(), "remote directory")
}

func TestValidate_NegativeCount(t *testing.T) {
	v := viper.New()
	v.Set("timelapse.count", -1)

	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count")
}

func TestRemoteConfig_Target(t *testing.T) {
	v := viper.New()
	v.Set("remote.enabled", true)
	v.Set("remote.host", "uploads.example.com")
	v.Set("remote.user", "pi")
	v.Set("remote.dir", "/srv/www")
	v.Set("remote.key", "/home/pi/.ssh/owlcap.pem")
	v.Set("remote.port", 2222)

	cfg, err := Load(v)
	require.NoError(t, err)

	tgt := cfg.Remote.Target()
	assert.Equal(t, "pi", tgt.User)
	assert.Equal(t, "uploads.example.com:2222", tgt.Addr())
	assert.Equal(t, "/home/pi/.ssh/owlcap.pem", tgt.KeyPath)
	assert.Equal(t, 30*time.Second, tgt.DialTimeout)
}
