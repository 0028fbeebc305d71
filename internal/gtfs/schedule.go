package gtfs

import (
	"strings"
	"time"

	"github.com/jamespfennell/gtfs"
)

// Schedule is the in-memory model of a static GTFS feed, reduced to the
// entities the access pipeline works with. Slices preserve feed order so
// repeated loads of the same feed produce identical results.
type Schedule struct {
	Stops    []*Stop
	Routes   []*Route
	Services []*Service
	Trips    []*Trip
	Patterns []*StopPattern

	stopsByID  map[string]*Stop
	routesByID map[string]*Route
}

// LoadSchedule loads and parses a GTFS feed from either a URL or a local
// file path and derives the canonical stop patterns from its trips.
func LoadSchedule(source string) (*Schedule, error) {
	isLocalFile := !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://")

	staticData, err := loadStaticData(source, isLocalFile)
	if err != nil {
		return nil, err
	}

	return newSchedule(staticData), nil
}

func newSchedule(data *gtfs.Static) *Schedule {
	s := &Schedule{
		stopsByID:  make(map[string]*Stop, len(data.Stops)),
		routesByID: make(map[string]*Route, len(data.Routes)),
	}

	for i := range data.Stops {
		src := &data.Stops[i]
		stop := &Stop{
			ID:        src.Id,
			Code:      src.Code,
			Name:      src.Name,
			Latitude:  src.Latitude,
			Longitude: src.Longitude,
		}
		if src.Parent != nil {
			stop.ParentStation = src.Parent.Id
		}
		s.Stops = append(s.Stops, stop)
		s.stopsByID[stop.ID] = stop
	}

	for i := range data.Routes {
		src := &data.Routes[i]
		route := &Route{
			ID:        src.Id,
			ShortName: src.ShortName,
			Type:      int(src.Type),
		}
		s.Routes = append(s.Routes, route)
		s.routesByID[route.ID] = route
	}

	servicesByID := make(map[string]*Service, len(data.Services))
	for i := range data.Services {
		src := &data.Services[i]
		service := &Service{
			ID:        src.Id,
			StartDate: src.StartDate,
			EndDate:   src.EndDate,
		}
		service.Days[time.Sunday] = src.Sunday
		service.Days[time.Monday] = src.Monday
		service.Days[time.Tuesday] = src.Tuesday
		service.Days[time.Wednesday] = src.Wednesday
		service.Days[time.Thursday] = src.Thursday
		service.Days[time.Friday] = src.Friday
		service.Days[time.Saturday] = src.Saturday
		s.Services = append(s.Services, service)
		servicesByID[service.ID] = service
	}

	builder := newPatternBuilder()
	for i := range data.Trips {
		src := &data.Trips[i]
		// A pattern needs at least two timed calls to say anything about
		// travel times.
		if src.Route == nil || src.Service == nil || len(src.StopTimes) < 2 {
			continue
		}
		route := s.routesByID[src.Route.Id]
		service := servicesByID[src.Service.Id]
		if route == nil || service == nil {
			continue
		}
		s.Trips = append(s.Trips, &Trip{
			ID:        src.ID,
			Route:     route,
			Service:   service,
			PatternID: builder.patternFor(src.StopTimes),
		})
	}
	s.Patterns = builder.patterns

	return s
}

// Stop returns the stop with the given ID, or nil if the feed has no such
// stop.
func (s *Schedule) Stop(id string) *Stop {
	return s.stopsByID[id]
}

// Route returns the route with the given ID, or nil if the feed has no
// such route.
func (s *Schedule) Route(id string) *Route {
	return s.routesByID[id]
}
