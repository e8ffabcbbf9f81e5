package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Engine.BaseURL) == "" {
		problems = append(problems, "engine.base_url is required")
	} else if parsed, err := url.Parse(c.Engine.BaseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		problems = append(problems, fmt.Sprintf("engine.base_url %q is not a valid URL", c.Engine.BaseURL))
	}
	if c.Engine.Scope == "" {
		problems = append(problems, "engine.scope is required")
	}
	if c.Engine.RequestTimeout <= 0 {
		problems = append(problems, "engine.request_timeout must be positive")
	}

	if c.Paths.DataDir == "" {
		problems = append(problems, "paths.data_dir is required")
	}
	if c.Paths.LogDir == "" {
		problems = append(problems, "paths.log_dir is required")
	}

	if c.Watch.JobPollInterval <= 0 {
		problems = append(problems, "watch.job_poll_interval must be positive")
	}
	if c.Watch.ActivePollInterval <= 0 {
		problems = append(problems, "watch.active_poll_interval must be positive")
	}
	if c.Watch.ErrorRetryInterval <= 0 {
		problems = append(problems, "watch.error_retry_interval must be positive")
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported (console, json)", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not supported (debug, info, warn, error)", c.Logging.Level))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
