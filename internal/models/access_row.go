// Package models holds the station access table row shared by the
// pipeline exporter and the downstream result filter.
package models

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// AccessTableName is the conventional file name of the exported station
// access table.
const AccessTableName = "station_access.txt"

// AccessColumns lists the columns of the station access table, in the
// order they are written.
var AccessColumns = []string{
	"stop_id",
	"station_id",
	"stop_code",
	"station_code",
	"travel_time",
	"weekday_trips",
	"weekend_trips",
	"latitude",
	"longitude",
	"station_name",
	"line_numbers",
	"route_ids",
	"parent_stop",
}

// AccessRow is one (stop, station) result: the frequency-weighted travel
// time in whole minutes between a stop and its station, the trip counts
// behind it, and descriptive stop fields. TravelTime is negative when the
// table was computed in from-station mode. Latitude and Longitude stay
// strings so filtering a table never reformats coordinates.
type AccessRow struct {
	StopID       string
	StationID    string
	StopCode     string
	StationCode  string
	TravelTime   int
	WeekdayTrips int
	WeekendTrips int
	Latitude     string
	Longitude    string
	StationName  string
	LineNumbers  string
	RouteIDs     string
	ParentStop   string
}

// Record returns the row as a CSV record ordered per AccessColumns.
func (r *AccessRow) Record() []string {
	return []string{
		r.StopID,
		r.StationID,
		r.StopCode,
		r.StationCode,
		strconv.Itoa(r.TravelTime),
		strconv.Itoa(r.WeekdayTrips),
		strconv.Itoa(r.WeekendTrips),
		r.Latitude,
		r.Longitude,
		r.StationName,
		r.LineNumbers,
		r.RouteIDs,
		r.ParentStop,
	}
}

// ParseAccessRow builds a row from a CSV record ordered per AccessColumns.
func ParseAccessRow(record []string) (*AccessRow, error) {
	if len(record) != len(AccessColumns) {
		return nil, fmt.Errorf("access row has %d fields, want %d", len(record), len(AccessColumns))
	}

	travelTime, err := strconv.Atoi(record[4])
	if err != nil {
		return nil, fmt.Errorf("bad travel_time %q: %w", record[4], err)
	}
	weekdayTrips, err := strconv.Atoi(record[5])
	if err != nil {
		return nil, fmt.Errorf("bad weekday_trips %q: %w", record[5], err)
	}
	weekendTrips, err := strconv.Atoi(record[6])
	if err != nil {
		return nil, fmt.Errorf("bad weekend_trips %q: %w", record[6], err)
	}

	return &AccessRow{
		StopID:       record[0],
		StationID:    record[1],
		StopCode:     record[2],
		StationCode:  record[3],
		TravelTime:   travelTime,
		WeekdayTrips: weekdayTrips,
		WeekendTrips: weekendTrips,
		Latitude:     record[7],
		Longitude:    record[8],
		StationName:  record[9],
		LineNumbers:  record[10],
		RouteIDs:     record[11],
		ParentStop:   record[12],
	}, nil
}

// WriteAccessTable writes the header and rows as CSV.
func WriteAccessTable(w io.Writer, rows []*AccessRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(AccessColumns); err != nil {
		return fmt.Errorf("error writing access table header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row.Record()); err != nil {
			return fmt.Errorf("error writing access table: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("error writing access table: %w", err)
	}
	return nil
}

// ReadAccessTable reads a CSV table written by WriteAccessTable. The
// header must match AccessColumns exactly.
func ReadAccessTable(r io.Reader) ([]*AccessRow, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading access table header: %w", err)
	}
	if len(header) != len(AccessColumns) {
		return nil, fmt.Errorf("access table has %d columns, want %d", len(header), len(AccessColumns))
	}
	for i, name := range header {
		if name != AccessColumns[i] {
			return nil, fmt.Errorf("access table column %d is %q, want %q", i, name, AccessColumns[i])
		}
	}

	var rows []*AccessRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading access table: %w", err)
		}
		row, err := ParseAccessRow(record)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
