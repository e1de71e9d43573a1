package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"time"

	"github.com/ja7ad/frogkill/internal/logging"
)

const (
	MinRefreshInterval = 100 * time.Millisecond
	MaxRefreshInterval = time.Minute
)

// Validate checks the config and returns all problems found. Values that
// would break the refresh loop are clamped or reset to defaults; the rest
// are reported only.
func (c *Config) Validate() []error {
	var errs []error
	def := Default()

	if c.RefreshInterval < MinRefreshInterval {
		errs = append(errs, fmt.Errorf("refresh_interval %s is below minimum %s, clamping", c.RefreshInterval, MinRefreshInterval))
		c.RefreshInterval = MinRefreshInterval
	} else if c.RefreshInterval > MaxRefreshInterval {
		errs = append(errs, fmt.Errorf("refresh_interval %s exceeds maximum %s, clamping", c.RefreshInterval, MaxRefreshInterval))
		c.RefreshInterval = MaxRefreshInterval
	}

	if strings.TrimSpace(c.ProcRoot) == "" {
		errs = append(errs, fmt.Errorf("proc_root is empty, using %s", def.ProcRoot))
		c.ProcRoot = def.ProcRoot
	}

	if strings.TrimSpace(c.Broker) == "" {
		errs = append(errs, fmt.Errorf("broker is empty, using %s", def.Broker))
		c.Broker = def.Broker
		c.BrokerArgs = nil
	}

	if c.HelperPath == "" {
		errs = append(errs, fmt.Errorf("helper_path is empty, using %s", def.HelperPath))
		c.HelperPath = def.HelperPath
	} else if !filepath.IsAbs(c.HelperPath) {
		errs = append(errs, fmt.Errorf("helper_path %q is relative; the broker receives it resolved against the working directory", c.HelperPath))
	}

	if !logging.ValidLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}

	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}

	if c.TopLimit < 0 {
		errs = append(errs, fmt.Errorf("top_limit %d is negative, showing all", c.TopLimit))
		c.TopLimit = 0
	}

	if c.TreeLimit < 0 {
		errs = append(errs, fmt.Errorf("tree_limit %d is negative, using the built-in cap", c.TreeLimit))
		c.TreeLimit = 0
	}

	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			errs = append(errs, fmt.Errorf("metrics_addr %q: %w", c.MetricsAddr, err))
		}
	}

	return errs
}
