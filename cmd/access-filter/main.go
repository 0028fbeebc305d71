package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"stationaccess.openbus.org.il/internal/filter"
	"stationaccess.openbus.org.il/internal/logging"
)

func main() {
	_ = godotenv.Load()

	var (
		dir         = flag.String("dir", "", "folder holding station_access.txt; output is written next to it")
		output      = flag.String("output", "", "output file name, default filtered_station_access_<timestamp>.txt")
		maxTime     = flag.Int("max-travel-time", filter.DisabledMaxTravelTime, "drop rows with a travel time over this many minutes; -1 disables")
		include     = flag.String("include-stations", "", "comma separated station ids to keep")
		exclude     = flag.String("exclude-stations", "", "comma separated station ids to drop")
		nearestOnly = flag.Bool("nearest-only", false, "keep only each stop's nearest station")
		minTrips    = flag.Int("min-weekday-trips", 0, "drop rows with fewer weekday trips")
		logFormat   = flag.String("log-format", "text", "log output format (text|json)")
	)
	flag.Parse()

	logger := logging.New(os.Stdout, slog.LevelInfo, logging.Format(*logFormat))
	if *dir == "" {
		logger.Error("missing required -dir flag")
		os.Exit(1)
	}

	params := filter.Params{
		MaxTravelTime:   *maxTime,
		IncludeStations: splitIDs(*include),
		ExcludeStations: splitIDs(*exclude),
		NearestOnly:     *nearestOnly,
		MinWeekdayTrips: *minTrips,
	}

	outcome, err := filter.Run(*dir, *output, params, time.Now())
	if err != nil {
		logging.LogError(logger, "filter run failed", err)
		os.Exit(1)
	}

	logger.Info("filter run complete",
		slog.String("output", outcome.TablePath),
		slog.Int("rows_before", outcome.Original),
		slog.Int("rows_after", outcome.Filtered))
}

func splitIDs(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}
