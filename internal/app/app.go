package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/BCM-HGSC/aws-object-search/internal/aos"
	"github.com/BCM-HGSC/aws-object-search/internal/config"
	"github.com/BCM-HGSC/aws-object-search/internal/lock"
	"github.com/BCM-HGSC/aws-object-search/internal/s3scan"
	"github.com/BCM-HGSC/aws-object-search/internal/search"
)

// App is the application layer between the CLI and the catalog services.
// It constructs all dependencies from config and exposes the high-level
// operations behind the CLI commands. The caller must call Close when done.
type App struct {
	cfg     *config.Config
	store   *aos.Store
	engine  aos.SearchEngine
	logger  aos.Logger
	logFile *os.File
	opID    string
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "Scan", "Search").
// logLevel follows the CLI flag values (DEBUG, INFO, WARNING, ERROR).
func NewApp(cfg *config.Config, operation, logLevel string) (*App, error) {
	level, err := parseLevel(logLevel)
	if err != nil {
		return nil, err
	}

	opID := newOperationID(operation, aos.UUIDGenerator{})
	logger, logFile, err := newLogger(cfg.LogDir, opID, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	adapter := &slogAdapter{l: logger}
	return &App{
		cfg:     cfg,
		store:   aos.NewStore(cfg.CatalogRoot, adapter),
		engine:  search.NewBleveEngine(adapter),
		logger:  adapter,
		logFile: logFile,
		opID:    opID,
	}, nil
}

// newOperationID tags one CLI invocation, e.g. "Scan-1a2b3c4d".
func newOperationID(operation string, idgen aos.IDGenerator) string {
	return operation + "-" + idgen.New()[:8]
}

// Logger returns the application logger.
func (a *App) Logger() aos.Logger { return a.logger }

// Close releases the log file.
func (a *App) Close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}

// RunScan executes the scan-then-index pipeline. When lockFile is
// non-empty, the whole pipeline runs under a non-blocking exclusive lock;
// contention surfaces as lock.ErrHeld.
func (a *App) RunScan(ctx context.Context, opts aos.ScanOptions, lockFile string) error {
	if lockFile != "" {
		held, err := lock.Acquire(lockFile)
		if err != nil {
			return err
		}
		defer held.Release()
		a.logger.Debug("acquired scan lock", "path", lockFile)
	}

	var lister aos.BucketLister
	if !opts.SkipScan {
		l, err := s3scan.New(ctx, a.cfg.S3, a.logger)
		if err != nil {
			return fmt.Errorf("creating bucket lister: %w", err)
		}
		lister = l
	}

	writer := aos.NewWriter(a.cfg.CatalogRoot, a.cfg.Scan.Compress, a.logger, aos.RealClock{})
	svc := aos.NewScanService(lister, writer, a.store, a.engine, a.cfg.IndexPath(), a.logger)
	return svc.Run(ctx, opts)
}

// SearchOptions shapes the output of RunSearch.
type SearchOptions struct {
	MaxResults int
	URIOnly    bool
	Latest     bool
	// FileEndings is the file-type allow-list. nil means no filtering;
	// an empty, non-nil list excludes everything.
	FileEndings []string
}

// RunSearch queries the index and writes results in the simple format.
func (a *App) RunSearch(w io.Writer, query string, opts SearchOptions) error {
	results, err := a.query(query, opts.MaxResults)
	if err != nil {
		return err
	}
	if opts.Latest {
		results = aos.LatestOnly(results)
	}
	return aos.WriteResults(w, results, opts.URIOnly, opts.FileEndings)
}

// RunQuery queries the index and writes verbose results with scores.
func (a *App) RunQuery(w io.Writer, query string, maxResults int) error {
	results, err := a.query(query, maxResults)
	if err != nil {
		return err
	}
	return aos.WriteVerboseResults(w, results)
}

func (a *App) query(query string, maxResults int) ([]aos.QueryResult, error) {
	if maxResults <= 0 {
		maxResults = a.cfg.Search.MaxResults
	}
	a.logger.Info("running query", "query", query, "max_results", maxResults)
	results, err := a.engine.Query(a.cfg.IndexPath(), query, maxResults)
	if err != nil {
		return nil, err
	}
	a.logger.Info("query finished", "hits", len(results))
	return results, nil
}
