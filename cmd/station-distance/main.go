package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"stationaccess.openbus.org.il/internal/config"
	"stationaccess.openbus.org.il/internal/distance"
	"stationaccess.openbus.org.il/internal/gtfs"
	"stationaccess.openbus.org.il/internal/logging"
)

// station-distance produces the stop-to-station distance table the
// pipeline consumes: for every located stop in the feed, the nearest
// stop served by a train route and the straight-line distance to it.
func main() {
	_ = godotenv.Load()

	var (
		scheduleDir = flag.String("schedule-dir", os.Getenv("SCHEDULE_DIR"), "folder holding the GTFS feed")
		feedName    = flag.String("feed", config.DefaultFeedName, "feed zip name inside the schedule folder, or an http(s) URL")
		output      = flag.String("output", "", "output file path, default <schedule-dir>/train_station_distance.txt")
		logFormat   = flag.String("log-format", "text", "log output format (text|json)")
	)
	flag.Parse()

	logger := logging.New(os.Stdout, slog.LevelInfo, logging.Format(*logFormat))
	if *scheduleDir == "" {
		logger.Error("missing required -schedule-dir flag")
		os.Exit(1)
	}

	cfg := config.Config{ScheduleDir: *scheduleDir, FeedName: *feedName}

	logger.Info("loading schedule", slog.String("source", cfg.FeedSource()))
	schedule, err := gtfs.LoadSchedule(cfg.FeedSource())
	if err != nil {
		logging.LogError(logger, "failed to load schedule", err)
		os.Exit(1)
	}

	logger.Info("computing nearest stations",
		slog.Int("stops", len(schedule.Stops)),
		slog.Int("routes", len(schedule.Routes)))
	table := distance.Build(schedule)
	if len(table) == 0 {
		logger.Warn("schedule has no train routes, writing an empty table")
	}

	path := *output
	if path == "" {
		path = filepath.Join(*scheduleDir, distance.TableFileName)
	}
	if err := distance.Write(path, table); err != nil {
		logging.LogError(logger, "failed to write distance table", err)
		os.Exit(1)
	}

	logger.Info("distance table written",
		slog.String("path", path),
		slog.Int("stops", len(table)))
}
