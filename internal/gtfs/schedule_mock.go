package gtfs

// MockSchedule assembles a Schedule from prebuilt entities, for tests and
// tools that need a schedule without parsing a feed.
func MockSchedule(stops []*Stop, routes []*Route, services []*Service, trips []*Trip, patterns []*StopPattern) *Schedule {
	s := &Schedule{
		Stops:      stops,
		Routes:     routes,
		Services:   services,
		Trips:      trips,
		Patterns:   patterns,
		stopsByID:  make(map[string]*Stop, len(stops)),
		routesByID: make(map[string]*Route, len(routes)),
	}
	for _, stop := range stops {
		s.stopsByID[stop.ID] = stop
	}
	for _, route := range routes {
		s.routesByID[route.ID] = route
	}
	return s
}
