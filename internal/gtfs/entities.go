package gtfs

import (
	"time"
)

// Route type codes as used in the Israeli national GTFS feed.
const (
	RouteTypeLightRailway = 0
	RouteTypeTrain        = 2
	RouteTypeBus          = 3
	RouteTypeSharedTaxi   = 4
)

var routeTypeNames = map[int]string{
	RouteTypeLightRailway: "LightRailway",
	RouteTypeTrain:        "Train",
	RouteTypeBus:          "Bus",
	RouteTypeSharedTaxi:   "SharedTaxi",
}

// RouteTypeName returns a human-readable name for a GTFS route type code.
func RouteTypeName(routeType int) string {
	if name, ok := routeTypeNames[routeType]; ok {
		return name
	}
	return "Unknown"
}

// Stop corresponds to a single row in the stops.txt file. Latitude and
// Longitude are nil when the feed omits coordinates for the stop.
type Stop struct {
	ID            string
	Code          string
	Name          string
	Latitude      *float64
	Longitude     *float64
	ParentStation string
}

// Route corresponds to a single row in the routes.txt file. ShortName is
// the public line number of the route.
type Route struct {
	ID        string
	ShortName string
	Type      int
}

// Service corresponds to a single row in the calendar.txt file.
type Service struct {
	ID        string
	StartDate time.Time
	EndDate   time.Time
	Days      [7]bool
}

// OperatesOn reports whether the service calendar includes the given weekday.
func (s *Service) OperatesOn(day time.Weekday) bool {
	return s.Days[day]
}

// Trip is a scheduled run of a route. Every trip follows exactly one stop
// pattern, identified by PatternID.
type Trip struct {
	ID      string
	Route   *Route
	Service *Service

	PatternID int
}
