package gtfs

import (
	"strconv"
	"strings"
	"time"

	"github.com/jamespfennell/gtfs"
)

// PatternStop is one element of a StopPattern. ArrivalOffset is the number
// of seconds between arrival at the pattern's first stop and arrival at
// this one.
type PatternStop struct {
	StopID        string
	Sequence      int
	ArrivalOffset int
}

// StopPattern is the canonical, deduplicated stop sequence shared by every
// trip that calls at the same stops with the same relative timing. Patterns
// are identified by small sequential IDs assigned in feed order.
type StopPattern struct {
	ID    int
	Stops []PatternStop
}

// patternBuilder dedupes trip stop sequences into StopPatterns. Two trips
// share a pattern when their (stop_id, arrival_offset) sequences are equal.
type patternBuilder struct {
	patterns    []*StopPattern
	bySignature map[string]int
}

func newPatternBuilder() *patternBuilder {
	return &patternBuilder{bySignature: make(map[string]int)}
}

// patternFor returns the pattern ID for the given stop time sequence,
// registering a new pattern on first encounter. Stop times are taken in
// the order the feed declares them; offsets are not re-sorted, so a feed
// with decreasing arrival times yields a pattern that fails the travel
// time projection later on.
func (b *patternBuilder) patternFor(stopTimes []gtfs.ScheduledStopTime) int {
	signature := patternSignature(stopTimes)
	if id, ok := b.bySignature[signature]; ok {
		return id
	}

	id := len(b.patterns)
	pattern := &StopPattern{ID: id, Stops: make([]PatternStop, 0, len(stopTimes))}
	base := stopTimes[0].ArrivalTime
	for i, st := range stopTimes {
		pattern.Stops = append(pattern.Stops, PatternStop{
			StopID:        st.Stop.Id,
			Sequence:      i + 1,
			ArrivalOffset: int((st.ArrivalTime - base) / time.Second),
		})
	}

	b.bySignature[signature] = id
	b.patterns = append(b.patterns, pattern)
	return id
}

func patternSignature(stopTimes []gtfs.ScheduledStopTime) string {
	var sb strings.Builder
	base := stopTimes[0].ArrivalTime
	for _, st := range stopTimes {
		sb.WriteString(st.Stop.Id)
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(int((st.ArrivalTime - base) / time.Second)))
		sb.WriteByte(';')
	}
	return sb.String()
}
