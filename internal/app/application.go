// Package app bundles the run-wide dependencies shared by the command
// line tools: the merged configuration, the structured logger and the
// identity of the run.
package app

import (
	"log/slog"

	"github.com/google/uuid"

	"stationaccess.openbus.org.il/internal/config"
)

// Application holds the dependencies each binary threads through its run.
// Every run gets a fresh RunID; the logger carries it on every record so
// log lines and the run summary can be matched up afterwards.
type Application struct {
	Config config.Config
	Logger *slog.Logger
	RunID  string
}

// New assembles an Application around a validated config and a base
// logger.
func New(cfg config.Config, logger *slog.Logger) *Application {
	runID := uuid.NewString()
	return &Application{
		Config: cfg,
		Logger: logger.With(slog.String("run_id", runID)),
		RunID:  runID,
	}
}
