package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DateLayout is the wire format for analysis dates in config and flags.
const DateLayout = "2006-01-02"

// DefaultFeedName is the schedule zip the Ministry of Transport publishes;
// the loader also accepts an http(s) URL here.
const DefaultFeedName = "israel-public-transportation.zip"

// Config holds the construction-time parameters of a station-access run.
// Values merge in order: defaults, YAML file, environment, command-line flags.
type Config struct {
	ScheduleDir string `yaml:"scheduleDir" validate:"required"`
	FeedName    string `yaml:"feedName" validate:"required"`
	OutputDir   string `yaml:"outputDir" validate:"required"`

	StartDate string `yaml:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `yaml:"endDate" validate:"omitempty,datetime=2006-01-02"`

	// StationStopDistance is the stage-1 threshold in meters: a stop within
	// this straight-line distance of a rail station counts as serving it.
	StationStopDistance float64 `yaml:"stationStopDistance" validate:"gt=0"`

	// ToStation selects the projector direction: true measures time from each
	// stop to the next station, false from the preceding station to the stop.
	ToStation bool `yaml:"toStation"`

	// IncludeTrains keeps rows where a stop is its own nearest station
	// (rail platforms); off by default so only surface stops are reported.
	IncludeTrains bool `yaml:"includeTrains"`

	// WeekendDays classifies analysis dates for the frequency counter.
	// Friday and Saturday are the weekend in the source network.
	WeekendDays []string `yaml:"weekendDays" validate:"min=1,dive,oneof=sunday monday tuesday wednesday thursday friday saturday"`

	LogLevel  string `yaml:"logLevel" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"logFormat" validate:"oneof=text json"`
}

// Default returns the built-in configuration: 300m threshold, toward-station
// projection, Friday+Saturday weekend, one-week window (end date derived).
func Default() Config {
	return Config{
		FeedName:            DefaultFeedName,
		StationStopDistance: 300,
		ToStation:           true,
		IncludeTrains:       false,
		WeekendDays:         []string{"friday", "saturday"},
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

// Load builds a Config from defaults, an optional YAML file and the
// environment. An empty path tries station-access.yml in the working
// directory and silently skips it when absent; a named path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := readConfigFile(path)
	if err != nil {
		return Config{}, err
	}
	if data != nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile("station-access.yml")
	if err != nil {
		return nil, nil
	}
	return data, nil
}

func (c *Config) applyEnv() {
	c.ScheduleDir = getEnv("SCHEDULE_DIR", c.ScheduleDir)
	c.FeedName = getEnv("FEED_NAME", c.FeedName)
	c.OutputDir = getEnv("OUTPUT_DIR", c.OutputDir)
	c.StartDate = getEnv("START_DATE", c.StartDate)
	c.EndDate = getEnv("END_DATE", c.EndDate)
	c.StationStopDistance = getEnvFloat("STATION_STOP_DISTANCE", c.StationStopDistance)
	c.ToStation = getEnvBool("TO_STATION", c.ToStation)
	c.IncludeTrains = getEnvBool("INCLUDE_TRAINS", c.IncludeTrains)
	if v := os.Getenv("WEEKEND_DAYS"); v != "" {
		c.WeekendDays = splitList(v)
	}
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

// Validate checks tag constraints and cross-field rules.
func (c Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}
	start, end, err := c.Window()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("end date %s precedes start date %s", end.Format(DateLayout), start.Format(DateLayout))
	}
	return nil
}

// Window returns the inclusive analysis date range. A missing end date
// defaults to one week after the start date.
func (c Config) Window() (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout, c.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing start date: %w", err)
	}
	if c.EndDate == "" {
		return start, start.AddDate(0, 0, 7), nil
	}
	end, err := time.Parse(DateLayout, c.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing end date: %w", err)
	}
	return start, end, nil
}

var dayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// WeekendSet resolves the configured weekend day names.
func (c Config) WeekendSet() (map[time.Weekday]bool, error) {
	set := make(map[time.Weekday]bool, len(c.WeekendDays))
	for _, name := range c.WeekendDays {
		day, ok := dayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown weekend day %q", name)
		}
		set[day] = true
	}
	return set, nil
}

// FeedSource resolves the schedule feed location: URLs pass through, plain
// names resolve inside the schedule directory.
func (c Config) FeedSource() string {
	if strings.HasPrefix(c.FeedName, "http://") || strings.HasPrefix(c.FeedName, "https://") {
		return c.FeedName
	}
	return filepath.Join(c.ScheduleDir, c.FeedName)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
