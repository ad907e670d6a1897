package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrUnknownDriver   = errors.New("unknown database driver")
	ErrMissingPath     = errors.New("database path is required for the sqlite driver")
	ErrInvalidBaseURL  = errors.New("grammar base_url must be an absolute http(s) URL")
	ErrInvalidPort     = errors.New("server port must be a number between 1 and 65535")
	ErrInvalidDuration = errors.New("durations must be positive")
	ErrInvalidLength   = errors.New("preview lengths must be positive")
	ErrInvalidRate     = errors.New("grammar requests_per_second must not be negative")
	ErrInvalidLevel    = errors.New("unknown logging level")
	ErrInvalidFormat   = errors.New("logging format must be console or json")
)

// Validate reports every problem with c at once.
func (c *Config) Validate() error {
	var errs []error

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidPort, c.Server.Port))
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, ErrMissingPath)
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownDriver, c.Database.Driver))
	}

	if u, err := url.Parse(c.Grammar.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.Grammar.BaseURL))
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"server.session_ttl", c.Server.SessionTTL},
		{"grammar.connect_timeout", c.Grammar.ConnectTimeout},
		{"grammar.read_timeout", c.Grammar.ReadTimeout},
		{"grammar.write_timeout", c.Grammar.WriteTimeout},
		{"grammar.request_timeout", c.Grammar.RequestTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidDuration, d.name))
		}
	}

	if c.Grammar.RequestsPerSecond < 0 {
		errs = append(errs, ErrInvalidRate)
	}

	if c.Drafts.SavePreviewLength <= 0 || c.Drafts.ListPreviewLength <= 0 {
		errs = append(errs, ErrInvalidLength)
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("drafts timezone: %w", err))
	}

	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLevel, c.Logging.Level))
	}
	if c.Logging.Format != FormatConsole && c.Logging.Format != FormatJSON {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidFormat, c.Logging.Format))
	}

	return errors.Join(errs...)
}
