package aos

import (
	"os"
	"path/filepath"
)

// ArchiveDirName is the subtree of the catalog root holding superseded
// snapshots, partitioned by each snapshot's own scan start.
const ArchiveDirName = "archive"

// ArchiveOldScans relocates every snapshot outside the current view into
// archive/YYYY/MM/DD/ under the catalog root. The date partition comes from
// the snapshot's own scan start, not the archiving time.
//
// The operation is idempotent and partial-failure tolerant: an already
// archived file is skipped with a warning, and a filesystem error on one
// file does not stop the rest. When nothing is superseded, the archive
// directory is not created at all.
func (s *Store) ArchiveOldScans() error {
	view, err := s.CurrentView()
	if err != nil {
		return err
	}
	current := make(map[string]bool, len(view))
	for _, snap := range view {
		current[snap.FilePath] = true
	}

	all, err := s.AllSnapshots()
	if err != nil {
		return err
	}
	var old []Snapshot
	for _, snap := range all {
		if !current[snap.FilePath] {
			old = append(old, snap)
		}
	}

	if len(old) == 0 {
		s.logger.Info("no superseded snapshots to archive")
		return nil
	}

	archived := 0
	for _, snap := range old {
		destDir := filepath.Join(s.root, ArchiveDirName,
			snap.ScanStart.Format("2006"),
			snap.ScanStart.Format("01"),
			snap.ScanStart.Format("02"))
		destPath := filepath.Join(destDir, snap.FileName())

		if _, err := os.Stat(destPath); err == nil {
			s.logger.Warn("archive destination already exists, skipping", "path", destPath)
			continue
		}
		if err := os.MkdirAll(destDir, 0755); err != nil {
			s.logger.Error("creating archive directory failed", "dir", destDir, "error", err)
			continue
		}
		if err := os.Rename(snap.FilePath, destPath); err != nil {
			s.logger.Error("archiving snapshot failed", "path", snap.FilePath, "error", err)
			continue
		}
		s.logger.Info("archived superseded snapshot", "file", snap.FileName())
		archived++
	}

	s.logger.Info("archive pass complete", "archived", archived, "superseded", len(old))
	return nil
}
