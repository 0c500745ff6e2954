// Package config loads the planner configuration from YAML, applies
// PLANNER_* environment overrides and validates the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"dailyplanner/internal/ics"
)

var ErrInvalid = errors.New("invalid config")

// CalDAVConfig describes one CalDAV account.
type CalDAVConfig struct {
	URL      string `yaml:"url" json:"url"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
	// Calendars holds collection URLs (entries starting with "http") and
	// display-name filters. Empty means every discovered calendar.
	Calendars []string `yaml:"calendars" json:"calendars"`
}

// Enabled reports whether a server is configured.
func (c CalDAVConfig) Enabled() bool { return strings.TrimSpace(c.URL) != "" }

// TracksConfig describes a Tracks GTD account.
type TracksConfig struct {
	URL      string `yaml:"url" json:"url"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

func (c TracksConfig) Enabled() bool { return strings.TrimSpace(c.URL) != "" }

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint, a file:// URL or a local path.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for logging.
	ID string `yaml:"id" json:"id"`
	// Name is the calendar name shown on the page.
	Name string `yaml:"name" json:"name"`
}

// RemarkableConfig controls the upload to a reMarkable tablet.
type RemarkableConfig struct {
	// Upload enables uploading after each generation.
	Upload bool `yaml:"upload" json:"upload"`
	// Folder is the destination folder on the device.
	Folder string `yaml:"folder" json:"folder"`
	// Command is the rmapi invocation, split with shell quoting rules.
	Command string `yaml:"command" json:"command"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the HTTP API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA zone all times are displayed in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// DayStartHour and DayEndHour bound the schedule grid.
	DayStartHour int `yaml:"day_start_hour" json:"day_start_hour"`
	DayEndHour   int `yaml:"day_end_hour" json:"day_end_hour"`

	// RecurrenceFailure is "keep" or "drop": what happens to a recurring
	// event whose rule cannot be evaluated.
	RecurrenceFailure string `yaml:"recurrence_failure" json:"recurrence_failure"`

	// OutputDir is where generated PDFs are written.
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// Listen is the HTTP listen address for serve mode.
	Listen string `yaml:"listen" json:"listen"`

	// Schedule is a standard 5-field cron spec for serve mode generation.
	Schedule string `yaml:"schedule" json:"schedule"`

	CalDAV     CalDAVConfig     `yaml:"caldav" json:"caldav"`
	Tracks     TracksConfig     `yaml:"tracks" json:"tracks"`
	ICS        []ICSConfig      `yaml:"ics" json:"ics"`
	Remarkable RemarkableConfig `yaml:"remarkable" json:"remarkable"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone:          "Europe/Helsinki",
		DayStartHour:      7,
		DayEndHour:        21,
		RecurrenceFailure: "keep",
		OutputDir:         ".",
		Listen:            "127.0.0.1:8080",
		Schedule:          "0 5 * * *",
		CalDAV:            CalDAVConfig{Calendars: []string{}},
		ICS:               []ICSConfig{},
		Remarkable: RemarkableConfig{
			Upload:  true,
			Folder:  "Daily Planner",
			Command: "rmapi",
		},
	}
}

// DefaultConfigPath is $XDG_CONFIG_HOME/dailyplanner/config.yaml or its
// platform equivalent.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "dailyplanner", "config.yaml")
}

// Normalize fills in empty string fields so that partially-filled configs
// still behave correctly. Hours are left alone; 0 is a valid start hour.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.RecurrenceFailure == "" {
		c.RecurrenceFailure = d.RecurrenceFailure
	}
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.Schedule == "" {
		c.Schedule = d.Schedule
	}
	if c.Remarkable.Folder == "" {
		c.Remarkable.Folder = d.Remarkable.Folder
	}
	if c.Remarkable.Command == "" {
		c.Remarkable.Command = d.Remarkable.Command
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.CalDAV.Calendars == nil {
		c.CalDAV.Calendars = []string{}
	}
}

// Load reads configuration from path, applies environment overrides and
// validates the result.
//
// If the file does not exist, a default config is written there with 0600
// permissions first, so a first run leaves an editable template behind.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	cfg.Normalize()

	if err := applyEnvOverrides(cfg, os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets PLANNER_* variables take precedence over the file.
func applyEnvOverrides(cfg *Config, getenv func(string) string) error {
	str := map[string]*string{
		"PLANNER_TIMEZONE":           &cfg.Timezone,
		"PLANNER_CALDAV_URL":         &cfg.CalDAV.URL,
		"PLANNER_CALDAV_USERNAME":    &cfg.CalDAV.Username,
		"PLANNER_CALDAV_PASSWORD":    &cfg.CalDAV.Password,
		"PLANNER_TRACKS_URL":         &cfg.Tracks.URL,
		"PLANNER_TRACKS_USERNAME":    &cfg.Tracks.Username,
		"PLANNER_TRACKS_PASSWORD":    &cfg.Tracks.Password,
		"PLANNER_REMARKABLE_FOLDER":  &cfg.Remarkable.Folder,
		"PLANNER_RECURRENCE_FAILURE": &cfg.RecurrenceFailure,
		"PLANNER_LISTEN":             &cfg.Listen,
		"PLANNER_SCHEDULE":           &cfg.Schedule,
		"PLANNER_OUTPUT_DIR":         &cfg.OutputDir,
	}
	for key, dst := range str {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PLANNER_DAY_START_HOUR": &cfg.DayStartHour,
		"PLANNER_DAY_END_HOUR":   &cfg.DayEndHour,
	}
	for key, dst := range ints {
		v := getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, key, v)
		}
		*dst = n
	}

	if v := getenv("PLANNER_CALDAV_CALENDARS"); v != "" {
		var cals []string
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cals = append(cals, c)
			}
		}
		cfg.CalDAV.Calendars = cals
	}
	return nil
}

// Validate checks the fields that would otherwise fail at generation time.
func (c *Config) Validate() error {
	var errs []error
	if c.DayStartHour < 0 || c.DayStartHour > 23 {
		errs = append(errs, fmt.Errorf("day_start_hour must be within 0..23, got %d", c.DayStartHour))
	}
	if c.DayEndHour < 1 || c.DayEndHour > 24 {
		errs = append(errs, fmt.Errorf("day_end_hour must be within 1..24, got %d", c.DayEndHour))
	}
	if c.DayStartHour >= c.DayEndHour {
		errs = append(errs, fmt.Errorf("day_start_hour (%d) must be before day_end_hour (%d)", c.DayStartHour, c.DayEndHour))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if _, err := ics.ParseRecurrencePolicy(c.RecurrenceFailure); err != nil {
		errs = append(errs, err)
	}
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("schedule %q: %w", c.Schedule, err))
	}
	for i, s := range c.ICS {
		if strings.TrimSpace(s.URL) == "" {
			errs = append(errs, fmt.Errorf("ics[%d]: url is empty", i))
		}
	}
	if c.BasicAuth != nil && c.BasicAuth.Username == "" {
		errs = append(errs, errors.New("basic_auth.username is empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Policy returns the parsed recurrence failure policy. Call after Validate.
func (c *Config) Policy() ics.RecurrencePolicy {
	p, err := ics.ParseRecurrencePolicy(c.RecurrenceFailure)
	if err != nil {
		return ics.KeepOnFailure
	}
	return p
}

// Save writes cfg to path atomically via a temp file and rename, with the
// final file at 0600 since it holds credentials.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".dailyplanner-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method that delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
