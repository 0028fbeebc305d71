package access

import (
	"fmt"
	"log/slog"

	"stationaccess.openbus.org.il/internal/gtfs"
)

type pairKey struct {
	stopID    string
	stationID string
}

// weightedTimes accumulates weighted travel-time sums per (stop, station)
// pair. First-insertion order is kept so folding the same schedule always
// produces results in the same order.
type weightedTimes struct {
	keys []pairKey
	sums map[pairKey]float64
}

func newWeightedTimes() *weightedTimes {
	return &weightedTimes{sums: make(map[pairKey]float64)}
}

func (w *weightedTimes) add(key pairKey, value float64) {
	if _, ok := w.sums[key]; !ok {
		w.keys = append(w.keys, key)
	}
	w.sums[key] += value
}

func (w *weightedTimes) divideAll(by float64) {
	for key := range w.sums {
		w.sums[key] /= by
	}
}

// extendedRoute folds every station-serving pattern of one route into
// per-(stop, station) weighted travel times.
type extendedRoute struct {
	TripCounts

	route       *gtfs.Route
	travelTimes *weightedTimes
}

// StopStation is one final result: the weighted-average travel time in
// seconds between a stop and a station, the trip counts behind it, and
// the routes that contributed. TravelTime is negative in from-station
// mode.
type StopStation struct {
	TripCounts

	StopID     string
	StationID  string
	Routes     []*gtfs.Route
	TravelTime float64
}

// Result is the pipeline output plus the headline counts reported in the
// run summary.
type Result struct {
	StopStations     []*StopStation
	NearStationStops int
	StationRoutes    int
}

// aggregateByRoute groups patterns by their linked route. Travel times
// are weighted by each pattern's total trips and averaged over the
// route's total. The (stop, station) key uses the station's proximity
// mapping, not the raw station stop, so platforms collapse onto their
// station.
func (f *Finder) aggregateByRoute() error {
	index := make(map[string]*extendedRoute)
	for _, ep := range f.patterns {
		if ep.route == nil {
			// Cannot happen in a self-consistent feed: every pattern comes
			// from at least one trip, and every trip has a route.
			f.logger.Warn("pattern has no linked route", slog.Int("pattern", ep.pattern.ID))
			continue
		}
		er, ok := index[ep.route.ID]
		if !ok {
			er = &extendedRoute{route: ep.route, travelTimes: newWeightedTimes()}
			index[ep.route.ID] = er
			f.routes = append(f.routes, er)
		}
		er.Add(ep.TripCounts)
		for _, pr := range ep.projections {
			stationID := f.nearStations[pr.station.StopID].StationID
			key := pairKey{stopID: pr.stop.StopID, stationID: stationID}
			er.travelTimes.add(key, float64(ep.Total())*float64(pr.seconds))
		}
	}

	for _, er := range f.routes {
		total := er.Total()
		if total == 0 {
			return fmt.Errorf("route %s: %w", er.route.ID, ErrZeroTripWeight)
		}
		er.travelTimes.divideAll(float64(total))
	}
	return nil
}

// aggregateByStop merges route-level travel times into one record per
// (stop, station) pair, re-weighting each route's average by its total
// trips.
func (f *Finder) aggregateByStop() error {
	index := make(map[pairKey]*StopStation)
	for _, er := range f.routes {
		for _, key := range er.travelTimes.keys {
			ss, ok := index[key]
			if !ok {
				ss = &StopStation{StopID: key.stopID, StationID: key.stationID}
				index[key] = ss
				f.results = append(f.results, ss)
			}
			ss.Routes = append(ss.Routes, er.route)
			ss.Add(er.TripCounts)
			ss.TravelTime += er.travelTimes.sums[key] * float64(er.Total())
		}
	}

	for _, ss := range f.results {
		total := ss.Total()
		if total == 0 {
			return fmt.Errorf("stop %s station %s: %w", ss.StopID, ss.StationID, ErrZeroTripWeight)
		}
		ss.TravelTime /= float64(total)
	}
	return nil
}
