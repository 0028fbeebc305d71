// Package filter post-processes an exported station access table. It is
// independent of the pipeline: the only shared contract is the table
// schema in the models package.
package filter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stationaccess.openbus.org.il/internal/models"
)

// DisabledMaxTravelTime turns the travel time filter off.
const DisabledMaxTravelTime = -1

// Params holds the five filter settings, applied in declaration order.
type Params struct {
	// MaxTravelTime drops rows whose travel time exceeds it, in minutes.
	// DisabledMaxTravelTime keeps every row.
	MaxTravelTime int
	// IncludeStations, when non-empty, keeps only rows whose station is a
	// member.
	IncludeStations []string
	// ExcludeStations drops rows whose station is a member.
	ExcludeStations []string
	// NearestOnly keeps, per stop, the single row with the lowest travel
	// time. Equal times are broken in favor of the later row.
	NearestOnly bool
	// MinWeekdayTrips drops rows with fewer weekday trips.
	MinWeekdayTrips int
}

// Disabled returns the parameter set under which Apply keeps every row.
func Disabled() Params {
	return Params{MaxTravelTime: DisabledMaxTravelTime}
}

// Apply runs the five filters over the rows in their fixed order and
// returns the survivors. Rows keep their input order, except that the
// nearest-only step emits one row per stop in the order stops first
// appear.
func Apply(rows []*models.AccessRow, p Params) []*models.AccessRow {
	rows = maxTravelTime(rows, p.MaxTravelTime)
	rows = keepStations(rows, p.IncludeStations)
	rows = dropStations(rows, p.ExcludeStations)
	if p.NearestOnly {
		rows = nearestOnly(rows)
	}
	return minWeekdayTrips(rows, p.MinWeekdayTrips)
}

func maxTravelTime(rows []*models.AccessRow, max int) []*models.AccessRow {
	if max == DisabledMaxTravelTime {
		return rows
	}
	kept := make([]*models.AccessRow, 0, len(rows))
	for _, row := range rows {
		if row.TravelTime <= max {
			kept = append(kept, row)
		}
	}
	return kept
}

func keepStations(rows []*models.AccessRow, stations []string) []*models.AccessRow {
	if len(stations) == 0 {
		return rows
	}
	members := stationSet(stations)
	kept := make([]*models.AccessRow, 0, len(rows))
	for _, row := range rows {
		if members[row.StationID] {
			kept = append(kept, row)
		}
	}
	return kept
}

func dropStations(rows []*models.AccessRow, stations []string) []*models.AccessRow {
	if len(stations) == 0 {
		return rows
	}
	members := stationSet(stations)
	kept := make([]*models.AccessRow, 0, len(rows))
	for _, row := range rows {
		if !members[row.StationID] {
			kept = append(kept, row)
		}
	}
	return kept
}

// nearestOnly reduces the rows to one per stop, keeping the lowest travel
// time. The comparison is not strict, so of two equally near stations the
// one seen later wins.
func nearestOnly(rows []*models.AccessRow) []*models.AccessRow {
	order := make([]string, 0, len(rows))
	nearest := make(map[string]*models.AccessRow, len(rows))
	for _, row := range rows {
		current, ok := nearest[row.StopID]
		if !ok {
			order = append(order, row.StopID)
			nearest[row.StopID] = row
			continue
		}
		if row.TravelTime <= current.TravelTime {
			nearest[row.StopID] = row
		}
	}

	kept := make([]*models.AccessRow, 0, len(order))
	for _, stopID := range order {
		kept = append(kept, nearest[stopID])
	}
	return kept
}

func minWeekdayTrips(rows []*models.AccessRow, min int) []*models.AccessRow {
	if min <= 0 {
		return rows
	}
	kept := make([]*models.AccessRow, 0, len(rows))
	for _, row := range rows {
		if row.WeekdayTrips >= min {
			kept = append(kept, row)
		}
	}
	return kept
}

func stationSet(stations []string) map[string]bool {
	set := make(map[string]bool, len(stations))
	for _, id := range stations {
		set[id] = true
	}
	return set
}

// OutputName returns the conventional file name for a filtered table
// written at t.
func OutputName(t time.Time) string {
	return fmt.Sprintf("filtered_station_access_%s.txt", t.Format("20060102_150405"))
}

// readmeName derives the summary file name from the output table name.
func readmeName(outputName string) string {
	return strings.TrimSuffix(outputName, filepath.Ext(outputName)) + ".readme.txt"
}

// Outcome records what one filter run read and wrote.
type Outcome struct {
	InputPath  string
	TablePath  string
	ReadmePath string
	Original   int
	Filtered   int
}

// Run reads the station access table in dir, filters it, and writes the
// surviving rows plus a run summary back into the same folder. An empty
// outputName derives one from executedAt.
func Run(dir, outputName string, p Params, executedAt time.Time) (*Outcome, error) {
	inputPath := filepath.Join(dir, models.AccessTableName)
	in, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("error opening access table: %w", err)
	}
	defer in.Close() // nolint

	rows, err := models.ReadAccessTable(in)
	if err != nil {
		return nil, err
	}

	filtered := Apply(rows, p)

	if outputName == "" {
		outputName = OutputName(executedAt)
	}
	outcome := &Outcome{
		InputPath:  inputPath,
		TablePath:  filepath.Join(dir, outputName),
		ReadmePath: filepath.Join(dir, readmeName(outputName)),
		Original:   len(rows),
		Filtered:   len(filtered),
	}

	out, err := os.Create(outcome.TablePath)
	if err != nil {
		return nil, fmt.Errorf("error creating filtered table: %w", err)
	}
	defer out.Close() // nolint

	if err := models.WriteAccessTable(out, filtered); err != nil {
		return nil, err
	}
	if err := writeReadme(outcome, p, executedAt); err != nil {
		return nil, err
	}
	return outcome, nil
}

// writeReadme documents the filter parameters and the row counts before
// and after, mirroring the pipeline's run summary format.
func writeReadme(outcome *Outcome, p Params, executedAt time.Time) error {
	var sb strings.Builder
	sb.WriteString("Results of station access filter\n")
	fmt.Fprintf(&sb, "Time of execution: %s\n", executedAt.Format("2006-01-02 15:04:05"))
	sb.WriteString("Execution parameters:\n")
	fmt.Fprintf(&sb, "  input_file: %s\n", outcome.InputPath)
	fmt.Fprintf(&sb, "  max_travel_time: %d\n", p.MaxTravelTime)
	fmt.Fprintf(&sb, "  stations_to_include: %s\n", strings.Join(p.IncludeStations, " "))
	fmt.Fprintf(&sb, "  stations_to_exclude: %s\n", strings.Join(p.ExcludeStations, " "))
	fmt.Fprintf(&sb, "  nearest_only: %t\n", p.NearestOnly)
	fmt.Fprintf(&sb, "  min_weekday_trips: %d\n", p.MinWeekdayTrips)
	sb.WriteString("\n")
	sb.WriteString("Results:\n")
	fmt.Fprintf(&sb, "  number of original records: %d\n", outcome.Original)
	fmt.Fprintf(&sb, "  number of records after filter: %d\n", outcome.Filtered)

	if err := os.WriteFile(outcome.ReadmePath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("error writing filter summary: %w", err)
	}
	return nil
}
