package access

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stationaccess.openbus.org.il/internal/gtfs"
	"stationaccess.openbus.org.il/internal/logging"
)

func TestAggregateByRoute(t *testing.T) {
	f := NewFinder(accessSchedule(), accessDistances(), accessOptions(), nil)

	_, err := f.Run()
	require.NoError(t, err)
	require.Len(t, f.routes, 2)

	r61 := f.routes[0]
	assert.Equal(t, "7023", r61.route.ID)
	assert.Equal(t, TripCounts{WeekdayTrips: 12, WeekendTrips: 4}, r61.TripCounts)
	assert.InDelta(t, 300, r61.travelTimes.sums[pairKey{"1001", "37358"}], 0.001)
	assert.InDelta(t, 180, r61.travelTimes.sums[pairKey{"1002", "37358"}], 0.001)
	assert.InDelta(t, 0, r61.travelTimes.sums[pairKey{"1003", "37358"}], 0.001)

	r480 := f.routes[1]
	assert.Equal(t, "8552", r480.route.ID)
	assert.Equal(t, TripCounts{WeekdayTrips: 6, WeekendTrips: 2}, r480.TripCounts)
	assert.InDelta(t, 90, r480.travelTimes.sums[pairKey{"1002", "37358"}], 0.001)
}

// Two patterns of one route with different timings: the route-level time
// is the trip-weighted average of the pattern times.
func TestAggregateByRouteWeighsPatternsByTrips(t *testing.T) {
	schedule := accessSchedule()
	schedule.Trips[2].Route = schedule.Routes[0]
	f := NewFinder(schedule, accessDistances(), accessOptions(), nil)

	_, err := f.Run()
	require.NoError(t, err)

	require.Len(t, f.routes, 1)
	route := f.routes[0]
	assert.Equal(t, TripCounts{WeekdayTrips: 18, WeekendTrips: 6}, route.TripCounts)
	// pattern 0 contributes 16 trips at 180s, pattern 1 contributes 8 at 90s
	assert.InDelta(t, 150, route.travelTimes.sums[pairKey{"1002", "37358"}], 0.001)
	// only pattern 0 serves stop 1001, but the divisor is the whole route
	assert.InDelta(t, 200, route.travelTimes.sums[pairKey{"1001", "37358"}], 0.001)
}

func TestAggregateKeysUseProximityStation(t *testing.T) {
	f := NewFinder(accessSchedule(), accessDistances(), accessOptions(), nil)

	result, err := f.Run()
	require.NoError(t, err)

	// Matched station stops are forecourt stop 1003; results must carry
	// the station it maps to, never the stop itself.
	for _, ss := range result.StopStations {
		assert.Equal(t, "37358", ss.StationID)
	}
	for _, er := range f.routes {
		for _, key := range er.travelTimes.keys {
			assert.Equal(t, "37358", key.stationID)
		}
	}
}

// Trip counts must be conserved exactly through both aggregation levels.
func TestWeightConservation(t *testing.T) {
	f := NewFinder(accessSchedule(), accessDistances(), accessOptions(), nil)

	result, err := f.Run()
	require.NoError(t, err)

	routeSums := make(map[string]TripCounts)
	for _, ep := range f.patterns {
		require.NotNil(t, ep.route)
		counts := routeSums[ep.route.ID]
		counts.Add(ep.TripCounts)
		routeSums[ep.route.ID] = counts
	}
	for _, er := range f.routes {
		assert.Equal(t, routeSums[er.route.ID], er.TripCounts)
	}

	routesByID := make(map[string]*extendedRoute)
	for _, er := range f.routes {
		routesByID[er.route.ID] = er
	}
	for _, ss := range result.StopStations {
		var expected TripCounts
		for _, route := range ss.Routes {
			expected.Add(routesByID[route.ID].TripCounts)
		}
		assert.Equal(t, expected, ss.TripCounts)
	}
}

// A stop-level travel time is bounded by the route-level times it was
// averaged from.
func TestWeightedAverageBounds(t *testing.T) {
	f := NewFinder(accessSchedule(), accessDistances(), accessOptions(), nil)

	result, err := f.Run()
	require.NoError(t, err)

	routesByID := make(map[string]*extendedRoute)
	for _, er := range f.routes {
		routesByID[er.route.ID] = er
	}
	for _, ss := range result.StopStations {
		key := pairKey{ss.StopID, ss.StationID}
		low, high := ss.TravelTime, ss.TravelTime
		for _, route := range ss.Routes {
			routeTime := routesByID[route.ID].travelTimes.sums[key]
			if routeTime < low {
				low = routeTime
			}
			if routeTime > high {
				high = routeTime
			}
		}
		assert.GreaterOrEqual(t, ss.TravelTime, low-1e-9)
		assert.LessOrEqual(t, ss.TravelTime, high+1e-9)
	}
}

func TestRouteListKeepsAggregationOrder(t *testing.T) {
	f := NewFinder(accessSchedule(), accessDistances(), accessOptions(), nil)

	result, err := f.Run()
	require.NoError(t, err)

	byStop := make(map[string]*StopStation)
	for _, ss := range result.StopStations {
		byStop[ss.StopID] = ss
	}

	require.Len(t, byStop["1002"].Routes, 2)
	assert.Equal(t, "7023", byStop["1002"].Routes[0].ID)
	assert.Equal(t, "8552", byStop["1002"].Routes[1].ID)
	require.Len(t, byStop["1001"].Routes, 1)
	assert.Equal(t, "7023", byStop["1001"].Routes[0].ID)
}

func TestResultsInFirstContributionOrder(t *testing.T) {
	f := NewFinder(accessSchedule(), accessDistances(), accessOptions(), nil)

	result, err := f.Run()
	require.NoError(t, err)

	stops := make([]string, 0, len(result.StopStations))
	for _, ss := range result.StopStations {
		stops = append(stops, ss.StopID)
	}
	assert.Equal(t, []string{"1001", "1002", "1003"}, stops)
}

func TestAggregateByRouteZeroTripGuard(t *testing.T) {
	// Retained pattern whose service never overlaps the window: the route
	// would divide by zero, which must surface as an explicit fault.
	schedule := accessSchedule()
	schedule.Services[0].StartDate = date(2016, time.May, 1)
	schedule.Services[0].EndDate = date(2016, time.May, 31)
	f := NewFinder(schedule, accessDistances(), accessOptions(), nil)

	_, err := f.Run()

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrZeroTripWeight))
}

func TestAggregateByStopZeroTripGuard(t *testing.T) {
	f := NewFinder(accessSchedule(), accessDistances(), accessOptions(), nil)
	er := &extendedRoute{route: f.schedule.Routes[0], travelTimes: newWeightedTimes()}
	er.travelTimes.add(pairKey{"1001", "37358"}, 0)
	f.routes = []*extendedRoute{er}

	err := f.aggregateByStop()

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrZeroTripWeight))
}

func TestAggregateByRouteSkipsUnlinkedPatterns(t *testing.T) {
	// A pattern no trip references keeps route == nil; it is dropped from
	// aggregation with a warning rather than poisoning the run.
	schedule := accessSchedule()
	schedule.Patterns = append(schedule.Patterns, &gtfs.StopPattern{
		ID:    2,
		Stops: []gtfs.PatternStop{ps("1003", 1, 0)},
	})
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelWarn, logging.FormatJSON)
	f := NewFinder(schedule, accessDistances(), accessOptions(), logger)

	result, err := f.Run()
	require.NoError(t, err)

	assert.Len(t, f.routes, 2)
	assert.Len(t, result.StopStations, 3)
	assert.Contains(t, buf.String(), "no linked route")
}

func TestWeightedTimesOrder(t *testing.T) {
	w := newWeightedTimes()
	w.add(pairKey{"b", "st"}, 10)
	w.add(pairKey{"a", "st"}, 20)
	w.add(pairKey{"b", "st"}, 30)

	require.Len(t, w.keys, 2)
	assert.Equal(t, pairKey{"b", "st"}, w.keys[0])
	assert.Equal(t, pairKey{"a", "st"}, w.keys[1])
	assert.InDelta(t, 40, w.sums[pairKey{"b", "st"}], 0.001)

	w.divideAll(4)
	assert.InDelta(t, 10, w.sums[pairKey{"b", "st"}], 0.001)
	assert.InDelta(t, 5, w.sums[pairKey{"a", "st"}], 0.001)
}
