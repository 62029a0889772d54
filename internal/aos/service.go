package aos

import (
	"context"
	"fmt"
)

// ScanService composes the snapshot writer, store, archiver, and index
// builder into one scan-then-index pipeline.
type ScanService struct {
	lister    BucketLister
	writer    *Writer
	store     *Store
	engine    SearchEngine
	indexPath string
	logger    Logger
}

// NewScanService creates a scan service. lister may be nil when every run
// uses SkipScan.
func NewScanService(lister BucketLister, writer *Writer, store *Store, engine SearchEngine, indexPath string, logger Logger) *ScanService {
	return &ScanService{
		lister:    lister,
		writer:    writer,
		store:     store,
		engine:    engine,
		indexPath: indexPath,
		logger:    logger,
	}
}

// ScanOptions selects which pipeline stages run.
type ScanOptions struct {
	BucketPrefix string
	SkipScan     bool
	SkipArchive  bool
	SkipIndex    bool
}

// Run executes scan → archive → index. One inaccessible bucket is logged
// and skipped; failing to list buckets at all (typically an authentication
// problem) aborts before any snapshot is written, so a partial scan is
// never silently indexed.
func (s *ScanService) Run(ctx context.Context, opts ScanOptions) error {
	if !opts.SkipScan {
		if err := s.scanBuckets(ctx, opts.BucketPrefix); err != nil {
			return err
		}
	}

	if !opts.SkipArchive {
		if err := s.store.ArchiveOldScans(); err != nil {
			return fmt.Errorf("archiving superseded snapshots: %w", err)
		}
	}

	if !opts.SkipIndex {
		s.logger.Info("rebuilding search index", "path", s.indexPath)
		count, err := s.engine.Rebuild(s.indexPath, s.store.IterDocs)
		if err != nil {
			return fmt.Errorf("rebuilding index: %w", err)
		}
		s.logger.Info("index rebuilt", "documents", count)
	}

	return nil
}

func (s *ScanService) scanBuckets(ctx context.Context, prefix string) error {
	if s.lister == nil {
		return fmt.Errorf("no bucket lister configured")
	}

	buckets, err := s.lister.ListBuckets(ctx, prefix)
	if err != nil {
		return fmt.Errorf("listing buckets (possibly not logged in): %w", err)
	}
	s.logger.Info("scanning buckets", "count", len(buckets), "prefix", prefix)

	scanned := 0
	for _, bucket := range buckets {
		s.logger.Info("scanning bucket", "bucket", bucket)
		snap, err := s.writer.WriteSnapshot(bucket, "", func(yield func(entry map[string]any) error) error {
			return s.lister.ListObjects(ctx, bucket, yield)
		})
		if err != nil {
			s.logger.Error("bucket scan failed, skipping", "bucket", bucket, "error", err)
			continue
		}
		s.logger.Debug("snapshot written", "file", snap.FileName())
		scanned++
	}

	s.logger.Info("scan complete", "scanned", scanned, "buckets", len(buckets))
	return nil
}
