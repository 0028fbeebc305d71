package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"stationaccess.openbus.org.il/internal/access"
	"stationaccess.openbus.org.il/internal/app"
	"stationaccess.openbus.org.il/internal/config"
	"stationaccess.openbus.org.il/internal/distance"
	"stationaccess.openbus.org.il/internal/gtfs"
	"stationaccess.openbus.org.il/internal/logging"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath    = flag.String("config", "", "path to a YAML run configuration (default station-access.yml when present)")
		scheduleDir   = flag.String("schedule-dir", "", "folder holding the GTFS feed and the distance table")
		outputDir     = flag.String("output-dir", "", "folder the results are written into")
		startDate     = flag.String("start-date", "", "first day of the analysis window (YYYY-MM-DD)")
		endDate       = flag.String("end-date", "", "last day of the analysis window, default one week after the start")
		threshold     = flag.Float64("distance", config.Default().StationStopDistance, "station stop distance threshold in meters")
		toStation     = flag.Bool("to-station", true, "measure travel time to the next station; false measures from the preceding one")
		includeTrains = flag.Bool("include-trains", false, "keep stops that are themselves stations")
	)
	flag.Parse()

	logger := logging.New(os.Stdout, slog.LevelInfo, logging.FormatText)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.LogError(logger, "failed to load configuration", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "schedule-dir":
			cfg.ScheduleDir = *scheduleDir
		case "output-dir":
			cfg.OutputDir = *outputDir
		case "start-date":
			cfg.StartDate = *startDate
		case "end-date":
			cfg.EndDate = *endDate
		case "distance":
			cfg.StationStopDistance = *threshold
		case "to-station":
			cfg.ToStation = *toStation
		case "include-trains":
			cfg.IncludeTrains = *includeTrains
		}
	})
	if err := cfg.Validate(); err != nil {
		logging.LogError(logger, "invalid configuration", err)
		os.Exit(1)
	}

	logger = logging.New(os.Stdout, logging.ParseLevel(cfg.LogLevel), logging.Format(cfg.LogFormat))
	a := app.New(cfg, logger)

	if err := run(a); err != nil {
		logging.LogError(a.Logger, "station access run failed", err)
		os.Exit(1)
	}
}

func run(a *app.Application) error {
	started := time.Now()
	cfg := a.Config

	start, end, err := cfg.Window()
	if err != nil {
		return err
	}
	weekend, err := cfg.WeekendSet()
	if err != nil {
		return err
	}

	a.Logger.Info("loading schedule", slog.String("source", cfg.FeedSource()))
	schedule, err := gtfs.LoadSchedule(cfg.FeedSource())
	if err != nil {
		return err
	}
	a.Logger.Info("schedule loaded",
		slog.Int("stops", len(schedule.Stops)),
		slog.Int("routes", len(schedule.Routes)),
		slog.Int("services", len(schedule.Services)),
		slog.Int("trips", len(schedule.Trips)),
		slog.Int("patterns", len(schedule.Patterns)))

	distances, err := distance.Load(filepath.Join(cfg.ScheduleDir, distance.TableFileName))
	if err != nil {
		return err
	}
	a.Logger.Info("distance table loaded", slog.Int("stops", len(distances)))

	finder := access.NewFinder(schedule, distances, access.Options{
		StartDate:           start,
		EndDate:             end,
		StationStopDistance: cfg.StationStopDistance,
		ToStation:           cfg.ToStation,
		IncludeTrains:       cfg.IncludeTrains,
		WeekendDays:         weekend,
	}, a.Logger)
	result, err := finder.Run()
	if err != nil {
		return err
	}

	exporter := &access.Exporter{OutputDir: cfg.OutputDir, Schedule: schedule}
	if err := exporter.WriteResults(result); err != nil {
		return err
	}
	if err := exporter.WriteReadme(result, access.RunInfo{
		RunID:       a.RunID,
		ExecutedAt:  time.Now(),
		ScheduleDir: cfg.ScheduleDir,
		StartDate:   start,
		Threshold:   cfg.StationStopDistance,
	}); err != nil {
		return err
	}

	a.Logger.Info("station access run complete",
		slog.String("output", cfg.OutputDir),
		slog.Int("stop_station_pairs", len(result.StopStations)),
		slog.Duration("duration", time.Since(started)))
	return nil
}
