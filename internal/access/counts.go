package access

// TripCounts tallies scheduled trip-days, split into weekday and weekend
// service. The same accumulator is carried at every aggregation level;
// merging two is pairwise addition.
type TripCounts struct {
	WeekdayTrips int
	WeekendTrips int
}

// Add merges another accumulator into this one.
func (c *TripCounts) Add(other TripCounts) {
	c.WeekdayTrips += other.WeekdayTrips
	c.WeekendTrips += other.WeekendTrips
}

// Total returns the combined weekday and weekend trip count.
func (c TripCounts) Total() int {
	return c.WeekdayTrips + c.WeekendTrips
}
