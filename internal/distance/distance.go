// Package distance loads, builds and saves the stop-to-station distance
// table: for every stop, the nearest rail station and the straight-line
// distance to it.
package distance

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	"stationaccess.openbus.org.il/internal/gtfs"
	"stationaccess.openbus.org.il/internal/utils"
)

// TableFileName is the conventional name of the distance table inside a
// schedule folder.
const TableFileName = "train_station_distance.txt"

var tableColumns = []string{"stop_id", "station_id", "distance"}

// StationDistance is the nearest rail station to a stop and the straight
// line distance to it in meters.
type StationDistance struct {
	StationID string
	Distance  float64
}

// Table maps stop IDs to their nearest station.
type Table map[string]StationDistance

// Load reads a distance table written by Write, or any CSV carrying
// stop_id, station_id and distance columns.
func Load(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening distance table: %w", err)
	}
	defer f.Close() // nolint

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading distance table header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	for _, name := range tableColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("distance table is missing the %s column", name)
		}
	}

	table := make(Table)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading distance table: %w", err)
		}
		stopID := record[columns["stop_id"]]
		meters, err := strconv.ParseFloat(record[columns["distance"]], 64)
		if err != nil {
			return nil, fmt.Errorf("bad distance for stop %s: %w", stopID, err)
		}
		table[stopID] = StationDistance{
			StationID: record[columns["station_id"]],
			Distance:  meters,
		}
	}
	return table, nil
}

// Write saves the table as CSV, sorted by stop ID so repeated builds of
// the same feed produce identical files.
func Write(path string, table Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating distance table: %w", err)
	}
	defer f.Close() // nolint

	writer := csv.NewWriter(f)
	if err := writer.Write(tableColumns); err != nil {
		return fmt.Errorf("error writing distance table header: %w", err)
	}

	stopIDs := make([]string, 0, len(table))
	for stopID := range table {
		stopIDs = append(stopIDs, stopID)
	}
	sort.Strings(stopIDs)

	for _, stopID := range stopIDs {
		sd := table[stopID]
		record := []string{stopID, sd.StationID, strconv.FormatFloat(sd.Distance, 'f', 1, 64)}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("error writing distance table: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("error writing distance table: %w", err)
	}
	return nil
}

// Build computes the nearest-station table for every located stop in the
// schedule. Stations are the stops that train-type routes call at; a stop
// that is itself a station maps to itself with distance zero.
func Build(schedule *gtfs.Schedule) Table {
	stations := stationStops(schedule)
	table := make(Table)
	if len(stations) == 0 {
		return table
	}

	for _, stop := range schedule.Stops {
		if stop.Latitude == nil || stop.Longitude == nil {
			continue
		}
		if utils.ValidateCoordinates(*stop.Latitude, *stop.Longitude) != nil {
			continue
		}

		nearest := ""
		best := math.MaxFloat64
		for _, station := range stations {
			d := utils.Haversine(*stop.Latitude, *stop.Longitude, *station.Latitude, *station.Longitude)
			if d < best {
				best = d
				nearest = station.ID
			}
		}
		table[stop.ID] = StationDistance{StationID: nearest, Distance: best}
	}
	return table
}

func stationStops(schedule *gtfs.Schedule) []*gtfs.Stop {
	trainPatterns := make(map[int]bool)
	for _, trip := range schedule.Trips {
		if trip.Route != nil && trip.Route.Type == gtfs.RouteTypeTrain {
			trainPatterns[trip.PatternID] = true
		}
	}

	seen := make(map[string]bool)
	var stations []*gtfs.Stop
	for _, pattern := range schedule.Patterns {
		if !trainPatterns[pattern.ID] {
			continue
		}
		for _, ps := range pattern.Stops {
			if seen[ps.StopID] {
				continue
			}
			seen[ps.StopID] = true
			stop := schedule.Stop(ps.StopID)
			if stop == nil || stop.Latitude == nil || stop.Longitude == nil {
				continue
			}
			stations = append(stations, stop)
		}
	}
	return stations
}
