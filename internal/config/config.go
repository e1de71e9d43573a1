package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "FROGKILL"
	FileName  = "frogkill"
)

type Config struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	ProcRoot        string        `mapstructure:"proc_root"`
	HelperPath      string        `mapstructure:"helper_path"`
	Broker          string        `mapstructure:"broker"`
	BrokerArgs      []string      `mapstructure:"broker_args"` // nil: broker defaults
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	TopLimit        int           `mapstructure:"top_limit"`
	TreeLimit       int           `mapstructure:"tree_limit"` // 0: tree.DefaultLimit
}

func Default() *Config {
	return &Config{
		RefreshInterval: time.Second,
		ProcRoot:        "/proc",
		HelperPath:      "/usr/libexec/frogkill/frogkill-helper",
		Broker:          "pkexec",
		LogLevel:        "info",
		LogFormat:       "text",
		TopLimit:        25,
	}
}

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"interval":     "refresh_interval",
	"proc-root":    "proc_root",
	"helper":       "helper_path",
	"broker":       "broker",
	"log-level":    "log_level",
	"log-format":   "log_format",
	"metrics-addr": "metrics_addr",
	"limit":        "top_limit",
}

// Load reads cfgFile, or frogkill.yaml from the usual places when empty,
// then FROGKILL_* environment variables, then any flags in fs that were set
// on the command line. A missing config file is not an error.
func Load(cfgFile string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("refresh_interval", def.RefreshInterval)
	v.SetDefault("proc_root", def.ProcRoot)
	v.SetDefault("helper_path", def.HelperPath)
	v.SetDefault("broker", def.Broker)
	// no default: the broker decides its own arguments unless set
	if err := v.BindEnv("broker_args"); err != nil {
		return nil, err
	}
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
	v.SetDefault("metrics_addr", def.MetricsAddr)
	v.SetDefault("top_limit", def.TopLimit)
	v.SetDefault("tree_limit", def.TreeLimit)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		for _, dir := range configDirs() {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configDirs() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "frogkill"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "frogkill"))
	}
	return append(dirs, "/etc/frogkill", ".")
}
