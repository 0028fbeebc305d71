package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultFeedName, cfg.FeedName)
	assert.Equal(t, 300.0, cfg.StationStopDistance)
	assert.True(t, cfg.ToStation)
	assert.False(t, cfg.IncludeTrains)
	assert.Equal(t, []string{"friday", "saturday"}, cfg.WeekendDays)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yml")
	yml := `
scheduleDir: /data/gtfs_2016_05_25
outputDir: /data/train_access
startDate: 2016-06-01
stationStopDistance: 500
toStation: false
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/gtfs_2016_05_25", cfg.ScheduleDir)
	assert.Equal(t, "/data/train_access", cfg.OutputDir)
	assert.Equal(t, "2016-06-01", cfg.StartDate)
	assert.Equal(t, 500.0, cfg.StationStopDistance)
	assert.False(t, cfg.ToStation)
	// untouched fields keep their defaults
	assert.Equal(t, DefaultFeedName, cfg.FeedName)
	assert.Equal(t, []string{"friday", "saturday"}, cfg.WeekendDays)
}

func TestLoadMissingNamedFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SCHEDULE_DIR", "/env/gtfs")
	t.Setenv("START_DATE", "2016-06-01")
	t.Setenv("STATION_STOP_DISTANCE", "250")
	t.Setenv("TO_STATION", "false")
	t.Setenv("WEEKEND_DAYS", "saturday,sunday")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/env/gtfs", cfg.ScheduleDir)
	assert.Equal(t, "2016-06-01", cfg.StartDate)
	assert.Equal(t, 250.0, cfg.StationStopDistance)
	assert.False(t, cfg.ToStation)
	assert.Equal(t, []string{"saturday", "sunday"}, cfg.WeekendDays)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.ScheduleDir = "/data/gtfs"
	valid.OutputDir = "/data/out"
	valid.StartDate = "2016-06-01"

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("missing schedule dir fails", func(t *testing.T) {
		cfg := valid
		cfg.ScheduleDir = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("malformed start date fails", func(t *testing.T) {
		cfg := valid
		cfg.StartDate = "01/06/2016"
		assert.Error(t, cfg.Validate())
	})

	t.Run("end before start fails", func(t *testing.T) {
		cfg := valid
		cfg.EndDate = "2016-05-01"
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown weekend day fails", func(t *testing.T) {
		cfg := valid
		cfg.WeekendDays = []string{"friturday"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("nonpositive distance fails", func(t *testing.T) {
		cfg := valid
		cfg.StationStopDistance = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestWindow(t *testing.T) {
	cfg := Default()
	cfg.StartDate = "2016-06-01"

	t.Run("end defaults to one week after start", func(t *testing.T) {
		start, end, err := cfg.Window()
		require.NoError(t, err)
		assert.Equal(t, time.Date(2016, 6, 1, 0, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2016, 6, 8, 0, 0, 0, 0, time.UTC), end)
	})

	t.Run("explicit end date honored", func(t *testing.T) {
		withEnd := cfg
		withEnd.EndDate = "2016-06-14"
		_, end, err := withEnd.Window()
		require.NoError(t, err)
		assert.Equal(t, time.Date(2016, 6, 14, 0, 0, 0, 0, time.UTC), end)
	})
}

func TestWeekendSet(t *testing.T) {
	cfg := Default()
	set, err := cfg.WeekendSet()
	require.NoError(t, err)

	assert.True(t, set[time.Friday])
	assert.True(t, set[time.Saturday])
	assert.False(t, set[time.Sunday])
	assert.False(t, set[time.Monday])
}

func TestFeedSource(t *testing.T) {
	cfg := Default()
	cfg.ScheduleDir = "/data/gtfs"

	assert.Equal(t, filepath.Join("/data/gtfs", DefaultFeedName), cfg.FeedSource())

	cfg.FeedName = "https://gtfs.mot.gov.il/israel-public-transportation.zip"
	assert.Equal(t, "https://gtfs.mot.gov.il/israel-public-transportation.zip", cfg.FeedSource())
}
