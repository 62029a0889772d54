package aos

import (
	"fmt"
	"path/filepath"
	"sort"
)

// Store is the read-only, directory-scanning view of a catalog.
type Store struct {
	root   string
	logger Logger
}

// NewStore creates a store over the catalog at root.
func NewStore(root string, logger Logger) *Store {
	return &Store{root: root, logger: logger}
}

// Root returns the catalog root directory.
func (s *Store) Root() string { return s.root }

// AllSnapshots returns every snapshot found in the catalog root:
// all uncompressed snapshots first, then all compressed ones. Callers
// needing chronological order must sort by ScanStart explicitly.
// Files matching the snapshot extension but not the name grammar are
// skipped with a warning; catalog directories are shared and may hold
// unrelated files.
func (s *Store) AllSnapshots() ([]Snapshot, error) {
	var snapshots []Snapshot
	for _, pattern := range []string{"*.tsv", "*.tsv.gz"} {
		paths, err := filepath.Glob(filepath.Join(s.root, pattern))
		if err != nil {
			return nil, fmt.Errorf("scanning catalog %s: %w", s.root, err)
		}
		for _, path := range paths {
			snap, err := ParseSnapshotPath(path)
			if err != nil {
				s.logger.Warn("skipping unparseable snapshot file", "path", path, "error", err)
				continue
			}
			snapshots = append(snapshots, snap)
		}
	}
	return snapshots, nil
}

// CurrentView returns the most recent snapshot per distinct bucket,
// sorted by scan start then bucket name. On a scan-start tie for one
// bucket, the last write observed during the directory scan wins.
func (s *Store) CurrentView() ([]Snapshot, error) {
	all, err := s.AllSnapshots()
	if err != nil {
		return nil, err
	}

	best := make(map[string]Snapshot)
	for _, snap := range all {
		cur, ok := best[snap.BucketName]
		if !ok || !snap.ScanStart.Before(cur.ScanStart) {
			best[snap.BucketName] = snap
		}
	}

	view := make([]Snapshot, 0, len(best))
	for _, snap := range best {
		view = append(view, snap)
	}
	sort.Slice(view, func(i, j int) bool {
		if !view[i].ScanStart.Equal(view[j].ScanStart) {
			return view[i].ScanStart.Before(view[j].ScanStart)
		}
		return view[i].BucketName < view[j].BucketName
	})
	return view, nil
}

// CurrentContents streams every record of every current-view snapshot in
// file order. This is the canonical feed into indexing.
func (s *Store) CurrentContents(fn func(Snapshot, ObjectRecord) error) error {
	view, err := s.CurrentView()
	if err != nil {
		return err
	}
	for _, snap := range view {
		snap := snap
		err := snap.Contents(func(rec ObjectRecord) error {
			return fn(snap, rec)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// IterDocs flattens each (snapshot, record) pair of the current view into
// one merged document: snapshot-level scan_start and bucket_name plus the
// record's fields. Record fields win on (unexpected) collisions. This is
// the document stream handed to the index builder.
func (s *Store) IterDocs(fn func(doc map[string]string) error) error {
	return s.CurrentContents(func(snap Snapshot, rec ObjectRecord) error {
		doc := map[string]string{
			"scan_start":  snap.ScanStartISO(),
			"bucket_name": snap.BucketName,
		}
		for k, v := range rec.FlattenedMap() {
			doc[k] = v
		}
		return fn(doc)
	})
}
