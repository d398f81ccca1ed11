package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"gar-go/internal/config"
	"gar-go/internal/database"
	"gar-go/internal/gar"
	"gar-go/internal/source"
)

// GarApp is the application layer between the CLI and the service. It
// constructs all dependencies from config and manages their lifecycle on
// Close.
type GarApp struct {
	cfg     *config.Config
	db      *database.Database
	service *gar.Service
	logFile *os.File
}

// Overrides are per-invocation knobs from CLI flags, applied on top of the
// config file.
type Overrides struct {
	// Tables restricts this run to the listed tables.
	Tables []gar.TableName
	// Limit overrides the batch size.
	Limit int
	// TempDir overrides where downloads land.
	TempDir string
}

// NewGarApp creates a fully wired GarApp from the given config.
// The caller must call Close when done.
func NewGarApp(cfg *config.Config, over Overrides) (*GarApp, error) {
	runID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, runID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger}

	db, err := database.New(database.DatabaseConfig{
		Type:    cfg.Database.Type,
		DataDir: cfg.Database.DataDir,
		DSN:     cfg.Database.DSN,
	}, log)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating database: %w", err)
	}

	tables := cfg.TableNames()
	if len(over.Tables) > 0 {
		tables = over.Tables
	}
	tempDir := cfg.Source.TempDir
	if over.TempDir != "" {
		tempDir = over.TempDir
	}

	svc := gar.NewService(
		db,
		log,
		gar.RealClock{},
		source.NewResolver(log),
		source.NewHTTPDownloader(log),
		source.NewVersionListClient(cfg.Source.VersionListURL),
		gar.Options{
			Tables:         tables,
			Regions:        cfg.Regions,
			HouseTypes:     cfg.HouseTypes,
			RetainInactive: cfg.RetainInactiveNames(),
			Limit:          over.Limit,
			Workers:        cfg.Workers,
			TempDir:        tempDir,
		},
	)

	return &GarApp{
		cfg:     cfg,
		db:      db,
		service: svc,
		logFile: logFile,
	}, nil
}

// Import runs a full load of one complete dump.
func (a *GarApp) Import(ctx context.Context, opts gar.ImportOptions) error {
	return a.service.Import(ctx, opts)
}

// Update applies pending delta dumps.
func (a *GarApp) Update(ctx context.Context, opts gar.UpdateOptions) error {
	return a.service.Update(ctx, opts)
}

// RefreshVersions fetches the published version list into the store.
func (a *GarApp) RefreshVersions(ctx context.Context) error {
	return a.service.RefreshVersions(ctx)
}

// Statuses returns the current per-table watermarks.
func (a *GarApp) Statuses(ctx context.Context) ([]*gar.Status, error) {
	return a.service.Statuses(ctx)
}

// ValidateHouseParams writes the suspicious house parameter report as CSV.
func (a *GarApp) ValidateHouseParams(ctx context.Context, w io.Writer, minVer int) (int, error) {
	report := gar.NewHouseParamReport(a.db, minVer, a.cfg.Regions)
	return report.Write(ctx, w)
}

// Close releases the database and the log file.
func (a *GarApp) Close() error {
	err := a.db.Close()
	if a.logFile != nil {
		a.logFile.Close()
	}
	return err
}
