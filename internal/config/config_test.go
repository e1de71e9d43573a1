package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/frogkill/pkg/terminate"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Empty(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frogkill.yaml")
	content := `refresh_interval: 2s
proc_root: /host/proc
broker: sudo
broker_args: ["-n"]
log_level: debug
top_limit: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.RefreshInterval)
	assert.Equal(t, "/host/proc", cfg.ProcRoot)
	assert.Equal(t, "sudo", cfg.Broker)
	assert.Equal(t, []string{"-n"}, cfg.BrokerArgs)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 10, cfg.TopLimit)
	assert.Equal(t, "text", cfg.LogFormat, "unset keys keep defaults")
}

func TestLoad_BrokerFlagGetsNoPkexecArgs(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("broker", terminate.DefaultBroker, "")
	require.NoError(t, fs.Parse([]string{"--broker", "sudo"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "sudo", cfg.Broker)
	assert.Nil(t, cfg.BrokerArgs)

	argv, err := terminate.NewBrokerEscalator(cfg.Broker, cfg.BrokerArgs, "/bin/true").
		Command(terminate.Request{Target: 42})
	require.NoError(t, err)
	assert.NotContains(t, argv, "--disable-internal-agent")
	assert.Equal(t, []string{"sudo", "/bin/true", "--pid", "42", "--sig", "TERM"}, argv)
}

func TestLoad_BrokerArgsFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FROGKILL_BROKER_ARGS", "-n")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"-n"}, cfg.BrokerArgs)
}

func TestLoad_XDGSearchPath(t *testing.T) {
	chdir(t, t.TempDir())
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "frogkill"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "frogkill", "frogkill.yaml"), []byte("log_format: json\n"), 0o600))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frogkill.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o600))
	t.Setenv("FROGKILL_LOG_LEVEL", "error")
	t.Setenv("FROGKILL_REFRESH_INTERVAL", "500ms")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, 500*time.Millisecond, cfg.RefreshInterval)
}

func TestLoad_FlagsOverrideAll(t *testing.T) {
	t.Setenv("FROGKILL_LOG_LEVEL", "error")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("log-level", "info", "")
	fs.Duration("interval", time.Second, "")
	require.NoError(t, fs.Parse([]string{"--log-level", "warn"}))

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"), fs)
	// an explicit file that does not exist is an error
	require.Error(t, err)
	assert.Nil(t, cfg)

	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err = Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.RefreshInterval, "unset flag keeps lower layers")
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frogkill.yaml")
	require.NoError(t, os.WriteFile(path, []byte("refresh_interval: [\n"), 0o600))
	_, err := Load(path, nil)
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir on older toolchains).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
