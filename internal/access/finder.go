// Package access computes which stops give access to rail stations and
// the frequency-weighted travel time from each such stop to its station.
//
// The computation is a strict pipeline over a loaded schedule: select the
// stops near stations, index the station calls of every stop pattern,
// project each pattern stop onto its directional station, count scheduled
// trip-days in the analysis window, link patterns to routes, then fold
// pattern results into per-route and finally per-(stop, station) weighted
// averages.
package access

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"stationaccess.openbus.org.il/internal/distance"
	"stationaccess.openbus.org.il/internal/gtfs"
	"stationaccess.openbus.org.il/internal/logging"
)

var (
	// ErrOffsetOrder reports a pattern whose arrival offsets contradict
	// its stop sequence. The schedule data is unusable at that point, so
	// the run aborts instead of producing corrupt averages.
	ErrOffsetOrder = errors.New("pattern stops out of arrival offset order")

	// ErrZeroTripWeight reports an aggregate whose total trip count is
	// zero, which would otherwise divide by zero during averaging.
	ErrZeroTripWeight = errors.New("aggregate has zero total trips")
)

// DefaultStationStopDistance is the default proximity threshold in meters.
const DefaultStationStopDistance = 300.0

// DefaultWeekendDays returns the Israeli weekend. Weekdays are Sunday
// through Thursday.
func DefaultWeekendDays() map[time.Weekday]bool {
	return map[time.Weekday]bool{time.Friday: true, time.Saturday: true}
}

// Options configures a Finder run.
type Options struct {
	// StartDate is the first day of the analysis window.
	StartDate time.Time
	// EndDate is the last day of the analysis window, inclusive. Zero
	// means one week after StartDate.
	EndDate time.Time
	// StationStopDistance is the proximity threshold in meters. Zero
	// means DefaultStationStopDistance.
	StationStopDistance float64
	// ToStation selects the projection direction: travel times from each
	// stop to the station ahead of it (true) or from the station behind
	// it (false, producing negative times).
	ToStation bool
	// IncludeTrains keeps rail stops themselves in the proximity set.
	IncludeTrains bool
	// WeekendDays classifies each calendar day. Nil means the Israeli
	// weekend, Friday and Saturday.
	WeekendDays map[time.Weekday]bool
}

// projection assigns one pattern stop to its directional station stop.
// Seconds is signed: negative when the station precedes the stop.
type projection struct {
	stop    gtfs.PatternStop
	station gtfs.PatternStop
	seconds int
}

// extendedPattern carries the per-pattern pipeline state: the station
// calls found in the pattern, the stop-to-station projections, the trip
// counts and the linked route.
type extendedPattern struct {
	TripCounts

	pattern      *gtfs.StopPattern
	stationStops []gtfs.PatternStop
	projections  []projection
	route        *gtfs.Route
}

// Finder runs the station access pipeline over one schedule.
type Finder struct {
	schedule  *gtfs.Schedule
	distances distance.Table
	opts      Options
	logger    *slog.Logger

	nearStations map[string]distance.StationDistance
	patterns     []*extendedPattern
	patternByID  map[int]*extendedPattern
	routes       []*extendedRoute
	results      []*StopStation
}

// NewFinder prepares a run. Zero-value options fall back to the defaults
// documented on Options.
func NewFinder(schedule *gtfs.Schedule, distances distance.Table, opts Options, logger *slog.Logger) *Finder {
	if opts.EndDate.IsZero() {
		opts.EndDate = opts.StartDate.AddDate(0, 0, 7)
	}
	if opts.StationStopDistance == 0 {
		opts.StationStopDistance = DefaultStationStopDistance
	}
	if opts.WeekendDays == nil {
		opts.WeekendDays = DefaultWeekendDays()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Finder{
		schedule:  schedule,
		distances: distances,
		opts:      opts,
		logger:    logger,
	}
}

// Run executes the pipeline and returns the per-(stop, station) results.
func (f *Finder) Run() (*Result, error) {
	started := time.Now()

	logging.LogStage(f.logger, "select near-station stops")
	f.selectNearStationStops()
	f.logger.Info("stops near stations", slog.Int("stops", len(f.nearStations)))

	logging.LogStage(f.logger, "index pattern stations")
	f.indexPatternStations()
	f.logger.Info("patterns calling at stations", slog.Int("patterns", len(f.patterns)))

	logging.LogStage(f.logger, "project travel times")
	if err := f.projectTravelTimes(); err != nil {
		return nil, err
	}

	logging.LogStage(f.logger, "count trip frequencies")
	f.countTripFrequencies()

	logging.LogStage(f.logger, "link routes")
	f.linkRoutes()

	logging.LogStage(f.logger, "aggregate by route")
	if err := f.aggregateByRoute(); err != nil {
		return nil, err
	}
	f.logger.Info("routes calling at stations", slog.Int("routes", len(f.routes)))

	logging.LogStage(f.logger, "aggregate by stop")
	if err := f.aggregateByStop(); err != nil {
		return nil, err
	}
	f.logger.Info("pipeline complete",
		slog.Int("stop_station_pairs", len(f.results)),
		slog.Duration("duration", time.Since(started)))

	return &Result{
		StopStations:     f.results,
		NearStationStops: len(f.nearStations),
		StationRoutes:    len(f.routes),
	}, nil
}

// selectNearStationStops keeps the stops whose nearest station is within
// the distance threshold. Unless IncludeTrains is set, a rail stop is not
// near itself.
func (f *Finder) selectNearStationStops() {
	f.nearStations = make(map[string]distance.StationDistance)
	for stopID, sd := range f.distances {
		if sd.Distance >= f.opts.StationStopDistance {
			continue
		}
		if !f.opts.IncludeTrains && stopID == sd.StationID {
			continue
		}
		f.nearStations[stopID] = sd
	}
}

// indexPatternStations finds, per pattern, the subsequence of its stops
// that are near a station. Patterns that never call at a station are
// dropped here.
func (f *Finder) indexPatternStations() {
	f.patternByID = make(map[int]*extendedPattern)
	for _, pattern := range f.schedule.Patterns {
		var stationStops []gtfs.PatternStop
		for _, stop := range pattern.Stops {
			if _, ok := f.nearStations[stop.StopID]; ok {
				stationStops = append(stationStops, stop)
			}
		}
		if len(stationStops) == 0 {
			continue
		}
		ep := &extendedPattern{pattern: pattern, stationStops: stationStops}
		f.patterns = append(f.patterns, ep)
		f.patternByID[pattern.ID] = ep
	}
}

// projectTravelTimes assigns every pattern stop to its directional
// station stop and records the signed travel time.
func (f *Finder) projectTravelTimes() error {
	for _, ep := range f.patterns {
		var err error
		if f.opts.ToStation {
			err = projectForward(ep)
		} else {
			err = projectBackward(ep)
		}
		if err != nil {
			logging.LogError(f.logger, "travel time projection failed", err,
				slog.Int("pattern", ep.pattern.ID))
			return err
		}
	}
	return nil
}

// projectForward walks the pattern in sequence order, assigning each stop
// to the next station at or after it. Stops past the last station stay
// unassigned.
func projectForward(ep *extendedPattern) error {
	next := 0
	station := ep.stationStops[next]
	for _, stop := range ep.pattern.Stops {
		if stop.Sequence > station.Sequence {
			next++
			if next == len(ep.stationStops) {
				break
			}
			station = ep.stationStops[next]
		}
		if station.ArrivalOffset < stop.ArrivalOffset {
			return fmt.Errorf("pattern %d: station offset %d before stop offset %d: %w",
				ep.pattern.ID, station.ArrivalOffset, stop.ArrivalOffset, ErrOffsetOrder)
		}
		ep.projections = append(ep.projections, projection{
			stop:    stop,
			station: station,
			seconds: station.ArrivalOffset - stop.ArrivalOffset,
		})
	}
	return nil
}

// projectBackward walks the pattern in reverse, assigning each stop to the
// nearest station at or before it. Stops ahead of the first station stay
// unassigned. Travel times come out negative.
func projectBackward(ep *extendedPattern) error {
	next := len(ep.stationStops) - 1
	station := ep.stationStops[next]
	for i := len(ep.pattern.Stops) - 1; i >= 0; i-- {
		stop := ep.pattern.Stops[i]
		if stop.Sequence < station.Sequence {
			next--
			if next < 0 {
				break
			}
			station = ep.stationStops[next]
		}
		if station.ArrivalOffset > stop.ArrivalOffset {
			return fmt.Errorf("pattern %d: station offset %d after stop offset %d: %w",
				ep.pattern.ID, station.ArrivalOffset, stop.ArrivalOffset, ErrOffsetOrder)
		}
		ep.projections = append(ep.projections, projection{
			stop:    stop,
			station: station,
			seconds: station.ArrivalOffset - stop.ArrivalOffset,
		})
	}
	return nil
}

// countTripFrequencies adds, for every trip whose service window overlaps
// the analysis window, one trip-day per day of the window, split by the
// day's weekday or weekend classification. The count deliberately ignores
// which weekdays the service actually operates; see the run summary notes
// on frequency approximation.
func (f *Finder) countTripFrequencies() {
	for _, trip := range f.schedule.Trips {
		service := trip.Service
		if service.EndDate.Before(f.opts.StartDate) || service.StartDate.After(f.opts.EndDate) {
			continue
		}
		ep, ok := f.patternByID[trip.PatternID]
		if !ok {
			continue
		}
		for d := f.opts.StartDate; !d.After(f.opts.EndDate); d = d.AddDate(0, 0, 1) {
			if f.opts.WeekendDays[d.Weekday()] {
				ep.WeekendTrips++
			} else {
				ep.WeekdayTrips++
			}
		}
	}
}

// linkRoutes resolves each retained pattern's route through its trips.
// When trips of different routes share one pattern the last one wins.
func (f *Finder) linkRoutes() {
	for _, trip := range f.schedule.Trips {
		if ep, ok := f.patternByID[trip.PatternID]; ok {
			ep.route = trip.Route
		}
	}
}
