package access

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"stationaccess.openbus.org.il/internal/gtfs"
	"stationaccess.openbus.org.il/internal/models"
)

// ReadmeFileName is the name of the companion run summary. The results
// table itself is named by models.AccessTableName.
const ReadmeFileName = "readme.txt"

// RunInfo documents one pipeline run for the summary file.
type RunInfo struct {
	RunID       string
	ExecutedAt  time.Time
	ScheduleDir string
	StartDate   time.Time
	Threshold   float64
}

// Exporter writes pipeline results into the output folder.
type Exporter struct {
	OutputDir string
	Schedule  *gtfs.Schedule
}

// WriteResults serializes the aggregates as the station access table.
// Travel times are floored to whole minutes, so from-station results
// round away from zero.
func (e *Exporter) WriteResults(result *Result) error {
	rows, err := e.rows(result)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return fmt.Errorf("error creating output folder: %w", err)
	}
	f, err := os.Create(filepath.Join(e.OutputDir, models.AccessTableName))
	if err != nil {
		return fmt.Errorf("error creating access table: %w", err)
	}
	defer f.Close() // nolint

	return models.WriteAccessTable(f, rows)
}

func (e *Exporter) rows(result *Result) ([]*models.AccessRow, error) {
	rows := make([]*models.AccessRow, 0, len(result.StopStations))
	for _, ss := range result.StopStations {
		stop := e.Schedule.Stop(ss.StopID)
		if stop == nil {
			return nil, fmt.Errorf("result stop %s is not in the schedule", ss.StopID)
		}
		station := e.Schedule.Stop(ss.StationID)
		if station == nil {
			return nil, fmt.Errorf("result station %s is not in the schedule", ss.StationID)
		}
		rows = append(rows, &models.AccessRow{
			StopID:       ss.StopID,
			StationID:    ss.StationID,
			StopCode:     stop.Code,
			StationCode:  station.Code,
			TravelTime:   int(math.Floor(ss.TravelTime / 60.0)),
			WeekdayTrips: ss.WeekdayTrips,
			WeekendTrips: ss.WeekendTrips,
			Latitude:     formatCoordinate(stop.Latitude),
			Longitude:    formatCoordinate(stop.Longitude),
			StationName:  station.Name,
			LineNumbers:  lineNumbers(ss.Routes),
			RouteIDs:     routeIDs(ss.Routes),
			ParentStop:   stop.ParentStation,
		})
	}
	return rows, nil
}

// WriteReadme writes the run summary next to the access table.
func (e *Exporter) WriteReadme(result *Result, run RunInfo) error {
	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return fmt.Errorf("error creating output folder: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Results of StationAccessFinder\n")
	if run.RunID != "" {
		fmt.Fprintf(&sb, "Run id: %s\n", run.RunID)
	}
	fmt.Fprintf(&sb, "Time of execution: %s\n", run.ExecutedAt.Format("2006-01-02 15:04:05"))
	sb.WriteString("Execution parameters:\n")
	fmt.Fprintf(&sb, "  gtfs_folder: %s\n", run.ScheduleDir)
	fmt.Fprintf(&sb, "  start_date: %s\n", run.StartDate.Format("2006-01-02"))
	fmt.Fprintf(&sb, "  bus stop is considered to be serving a train station if it's up to %.0fm from it (straight line)\n", run.Threshold)
	sb.WriteString("\n")
	sb.WriteString("Results:\n")
	fmt.Fprintf(&sb, "  number of bus stops near stations: %d\n", result.NearStationStops)
	fmt.Fprintf(&sb, "  number of bus routes calling at stations: %d\n", result.StationRoutes)

	path := filepath.Join(e.OutputDir, ReadmeFileName)
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("error writing run summary: %w", err)
	}
	return nil
}

// lineNumbers returns the distinct line numbers of the contributing
// routes, sorted.
func lineNumbers(routes []*gtfs.Route) string {
	seen := make(map[string]bool)
	lines := make([]string, 0, len(routes))
	for _, route := range routes {
		if seen[route.ShortName] {
			continue
		}
		seen[route.ShortName] = true
		lines = append(lines, route.ShortName)
	}
	sort.Strings(lines)
	return strings.Join(lines, " ")
}

// routeIDs returns the contributing route IDs in aggregation order.
func routeIDs(routes []*gtfs.Route) string {
	ids := make([]string, 0, len(routes))
	for _, route := range routes {
		ids = append(ids, route.ID)
	}
	return strings.Join(ids, " ")
}

func formatCoordinate(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
