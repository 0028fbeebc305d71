package access

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stationaccess.openbus.org.il/internal/gtfs"
	"stationaccess.openbus.org.il/internal/models"
)

func runFixturePipeline(t *testing.T) (*gtfs.Schedule, *Result) {
	t.Helper()
	schedule := accessSchedule()
	f := NewFinder(schedule, accessDistances(), accessOptions(), nil)
	result, err := f.Run()
	require.NoError(t, err)
	return schedule, result
}

func TestWriteResults(t *testing.T) {
	schedule, result := runFixturePipeline(t)
	dir := t.TempDir()
	e := &Exporter{OutputDir: dir, Schedule: schedule}

	require.NoError(t, e.WriteResults(result))

	data, err := os.ReadFile(filepath.Join(dir, models.AccessTableName))
	require.NoError(t, err)

	expected := "stop_id,station_id,stop_code,station_code,travel_time,weekday_trips,weekend_trips,latitude,longitude,station_name,line_numbers,route_ids,parent_stop\n" +
		"1001,37358,20001,17038,5,12,4,32.088,34.781,Tel Aviv Center,61,7023,\n" +
		"1002,37358,20002,17038,2,18,6,32.0871,34.7935,Tel Aviv Center,480 61,7023 8552,\n" +
		"1003,37358,20003,17038,0,18,6,32.0839,34.797,Tel Aviv Center,480 61,7023 8552,38000\n"
	assert.Equal(t, expected, string(data))
}

func TestWriteResultsCreatesOutputDir(t *testing.T) {
	schedule, result := runFixturePipeline(t)
	dir := filepath.Join(t.TempDir(), "nested", "train_access")
	e := &Exporter{OutputDir: dir, Schedule: schedule}

	require.NoError(t, e.WriteResults(result))
	assert.FileExists(t, filepath.Join(dir, models.AccessTableName))
}

// Re-running the pipeline over unchanged inputs must reproduce the table
// byte for byte.
func TestWriteResultsIdempotent(t *testing.T) {
	read := func(t *testing.T) []byte {
		schedule, result := runFixturePipeline(t)
		dir := t.TempDir()
		e := &Exporter{OutputDir: dir, Schedule: schedule}
		require.NoError(t, e.WriteResults(result))
		data, err := os.ReadFile(filepath.Join(dir, models.AccessTableName))
		require.NoError(t, err)
		return data
	}

	assert.Equal(t, read(t), read(t))
}

func TestRowsTravelTimeFloorDivision(t *testing.T) {
	schedule := accessSchedule()
	e := &Exporter{Schedule: schedule}

	tests := []struct {
		seconds float64
		minutes int
	}{
		{0, 0},
		{59, 0},
		{119, 1},
		{300, 5},
		// from-station times floor away from zero
		{-60, -1},
		{-90, -2},
		{-120, -2},
	}

	for _, tt := range tests {
		rows, err := e.rows(&Result{StopStations: []*StopStation{{
			StopID:     "1001",
			StationID:  "37358",
			TravelTime: tt.seconds,
		}}})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equalf(t, tt.minutes, rows[0].TravelTime, "%v seconds", tt.seconds)
	}
}

func TestRowsUnknownStopFails(t *testing.T) {
	schedule, result := runFixturePipeline(t)
	result.StopStations = append(result.StopStations, &StopStation{StopID: "ghost", StationID: "37358"})
	dir := t.TempDir()
	e := &Exporter{OutputDir: dir, Schedule: schedule}

	err := e.WriteResults(result)

	require.Error(t, err)
	// a failed run leaves no partial table behind
	assert.NoFileExists(t, filepath.Join(dir, models.AccessTableName))
}

func TestLineNumbers(t *testing.T) {
	routes := []*gtfs.Route{
		{ID: "1", ShortName: "61"},
		{ID: "2", ShortName: "480"},
		{ID: "3", ShortName: "61"},
	}
	assert.Equal(t, "480 61", lineNumbers(routes))
}

func TestRouteIDs(t *testing.T) {
	routes := []*gtfs.Route{
		{ID: "8552", ShortName: "480"},
		{ID: "7023", ShortName: "61"},
		{ID: "8552", ShortName: "480"},
	}
	// aggregation order, not deduplicated
	assert.Equal(t, "8552 7023 8552", routeIDs(routes))
}

func TestFormatCoordinate(t *testing.T) {
	assert.Equal(t, "32.0871", formatCoordinate(f64(32.0871)))
	assert.Equal(t, "", formatCoordinate(nil))
}

func TestWriteReadme(t *testing.T) {
	schedule, result := runFixturePipeline(t)
	dir := t.TempDir()
	e := &Exporter{OutputDir: dir, Schedule: schedule}

	run := RunInfo{
		RunID:       "0c32c434-15d5-4c0b-94fd-43f41e822907",
		ExecutedAt:  time.Date(2016, time.June, 1, 13, 4, 5, 0, time.UTC),
		ScheduleDir: "/data/gtfs_2016_05_25",
		StartDate:   date(2016, time.June, 1),
		Threshold:   300,
	}
	require.NoError(t, e.WriteReadme(result, run))

	data, err := os.ReadFile(filepath.Join(dir, ReadmeFileName))
	require.NoError(t, err)

	expected := `Results of StationAccessFinder
Run id: 0c32c434-15d5-4c0b-94fd-43f41e822907
Time of execution: 2016-06-01 13:04:05
Execution parameters:
  gtfs_folder: /data/gtfs_2016_05_25
  start_date: 2016-06-01
  bus stop is considered to be serving a train station if it's up to 300m from it (straight line)

Results:
  number of bus stops near stations: 1
  number of bus routes calling at stations: 2
`
	assert.Equal(t, expected, string(data))
}

func TestWriteReadmeOmitsEmptyRunID(t *testing.T) {
	schedule, result := runFixturePipeline(t)
	dir := t.TempDir()
	e := &Exporter{OutputDir: dir, Schedule: schedule}

	require.NoError(t, e.WriteReadme(result, RunInfo{ExecutedAt: time.Now(), StartDate: date(2016, time.June, 1)}))

	data, err := os.ReadFile(filepath.Join(dir, ReadmeFileName))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Run id:")
}
