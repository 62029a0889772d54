package aos

import (
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrNotDirectory reports that the catalog root exists but is not a directory.
var ErrNotDirectory = errors.New("catalog root is not a directory")

// EntrySource streams raw listing entries for one bucket into yield.
// Entry keys are the listing service's attribute names; values may be
// strings, string slices, or timestamps (see Flatten).
type EntrySource func(yield func(entry map[string]any) error) error

// Writer turns bucket listings into immutable, timestamp-named snapshot
// files under the catalog root.
type Writer struct {
	root     string
	compress bool
	logger   Logger
	clock    Clock
}

// NewWriter creates a snapshot writer. When compress is true, snapshots are
// written as .tsv.gz instead of .tsv.
func NewWriter(root string, compress bool, logger Logger, clock Clock) *Writer {
	return &Writer{root: root, compress: compress, logger: logger, clock: clock}
}

// WriteSnapshot writes exactly one new snapshot file for bucketName from
// entries. prefix overrides the timestamp part of the file name; when empty,
// the current time is used. The file is published atomically via a temp
// file and rename, so readers never observe a partial snapshot.
func (w *Writer) WriteSnapshot(bucketName, prefix string, entries EntrySource) (Snapshot, error) {
	if bucketName == "" {
		return Snapshot{}, errors.New("bucket name must not be empty")
	}
	if err := w.ensureRoot(); err != nil {
		return Snapshot{}, err
	}
	if prefix == "" {
		prefix = w.clock.Now().Format(ScanStartLayout)
	}

	destPath := filepath.Join(w.root, SnapshotFileName(bucketName, prefix, w.compress))

	tmp, err := os.CreateTemp(w.root, ".tmp-snapshot-*")
	if err != nil {
		return Snapshot{}, fmt.Errorf("creating temp snapshot file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if err := w.writeRows(tmp, entries); err != nil {
		tmp.Close()
		return Snapshot{}, fmt.Errorf("writing snapshot for %s: %w", bucketName, err)
	}
	if err := tmp.Close(); err != nil {
		return Snapshot{}, fmt.Errorf("closing temp snapshot file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return Snapshot{}, fmt.Errorf("setting snapshot permissions: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return Snapshot{}, fmt.Errorf("publishing snapshot: %w", err)
	}
	success = true

	snap, err := ParseSnapshotPath(destPath)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parsing written snapshot name: %w", err)
	}
	return snap, nil
}

// ensureRoot creates the catalog root (and missing parents) if absent and
// rejects a path that exists as something other than a directory.
func (w *Writer) ensureRoot() error {
	info, err := os.Stat(w.root)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s: %w", w.root, ErrNotDirectory)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat catalog root: %w", err)
	}
	if err := os.MkdirAll(w.root, 0755); err != nil {
		return fmt.Errorf("creating catalog root: %w", err)
	}
	return nil
}

func (w *Writer) writeRows(f *os.File, entries EntrySource) error {
	var gz *gzip.Writer
	tsv := csv.NewWriter(f)
	if w.compress {
		gz = gzip.NewWriter(f)
		tsv = csv.NewWriter(gz)
	}
	tsv.Comma = '\t'

	// The header is derived from the first entry: the canonical columns,
	// then any extra columns in sorted order. Columns appearing only in
	// later entries cannot be added retroactively and are dropped with a
	// warning.
	var header []string

	err := entries(func(entry map[string]any) error {
		row := make(map[string]string, len(entry))
		for k, v := range entry {
			name, ok := KeyMap[k]
			if !ok {
				name = k // schema drift: pass unknown keys through verbatim
			}
			row[name] = Flatten(v)
		}
		if header == nil {
			header = headerFor(row)
			if err := tsv.Write(header); err != nil {
				return err
			}
		}
		out := make([]string, len(header))
		for i, name := range header {
			out[i] = row[name]
			delete(row, name)
		}
		for name := range row {
			w.logger.Warn("dropping column absent from snapshot header", "column", name)
		}
		return tsv.Write(out)
	})
	if err != nil {
		return err
	}

	if header == nil {
		// No entries at all: still a valid (empty) snapshot.
		if err := tsv.Write(TSVFields); err != nil {
			return err
		}
	}

	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return err
	}
	if gz != nil {
		return gz.Close()
	}
	return nil
}

func headerFor(row map[string]string) []string {
	header := make([]string, len(TSVFields), len(TSVFields)+len(row))
	copy(header, TSVFields)
	canonical := make(map[string]bool, len(TSVFields))
	for _, name := range TSVFields {
		canonical[name] = true
	}
	var extras []string
	for name := range row {
		if !canonical[name] {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	return append(header, extras...)
}
