package aos

import (
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ScanStartLayout is the fixed-width timestamp prefix of snapshot file names.
// Lexical order of names equals chronological order because of it.
const ScanStartLayout = "20060102-150405"

// scanStartISO is how ScanStart renders in indexed documents.
const scanStartISO = "2006-01-02T15:04:05"

// Snapshot file names look like 20250503-164831-hgsc-a-1-2-3.tsv[.gz].
// Bucket names may themselves contain hyphens, so parsing splits on the
// first two hyphens only and takes the remainder.
var snapshotNameRe = regexp.MustCompile(`^(\d{8})-(\d{6})-(.+)\.tsv(\.gz)?$`)

// Snapshot describes one immutable listing of one bucket at one timestamp.
type Snapshot struct {
	BucketName string
	ScanStart  time.Time
	FilePath   string
	Compressed bool
}

// ParseSnapshotPath parses a snapshot file path into its descriptor.
func ParseSnapshotPath(path string) (Snapshot, error) {
	name := filepath.Base(path)
	m := snapshotNameRe.FindStringSubmatch(name)
	if m == nil {
		return Snapshot{}, fmt.Errorf("not a snapshot file name: %s", name)
	}
	start, err := time.Parse(ScanStartLayout, m[1]+"-"+m[2])
	if err != nil {
		return Snapshot{}, fmt.Errorf("parsing scan start of %s: %w", name, err)
	}
	return Snapshot{
		BucketName: m[3],
		ScanStart:  start,
		FilePath:   path,
		Compressed: m[4] != "",
	}, nil
}

// SnapshotFileName builds the file name for a new snapshot.
// prefix must be in ScanStartLayout form.
func SnapshotFileName(bucketName, prefix string, compressed bool) string {
	name := prefix + "-" + bucketName + ".tsv"
	if compressed {
		name += ".gz"
	}
	return name
}

// FileName returns the base name of the snapshot file.
func (s Snapshot) FileName() string {
	return filepath.Base(s.FilePath)
}

// ScanStartISO returns the scan start formatted for indexed documents.
func (s Snapshot) ScanStartISO() string {
	return s.ScanStart.Format(scanStartISO)
}

// Contents streams the snapshot's records in file order. Each call re-opens
// the file, so the sequence is restartable. Compression is selected by the
// file suffix, never by content sniffing.
func (s Snapshot) Contents(fn func(ObjectRecord) error) error {
	f, err := os.Open(s.FilePath)
	if err != nil {
		return fmt.Errorf("opening snapshot %s: %w", s.FileName(), err)
	}
	defer f.Close()

	var r io.Reader = f
	if s.Compressed {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("decompressing snapshot %s: %w", s.FileName(), err)
		}
		defer gz.Close()
		r = gz
	}

	tsv := csv.NewReader(r)
	tsv.Comma = '\t'

	header, err := tsv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil // empty file, nothing to yield
		}
		return fmt.Errorf("reading snapshot header %s: %w", s.FileName(), err)
	}

	for {
		row, err := tsv.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading snapshot row %s: %w", s.FileName(), err)
		}
		if err := fn(recordFromRow(header, row)); err != nil {
			return err
		}
	}
}

func recordFromRow(header, row []string) ObjectRecord {
	var rec ObjectRecord
	for i, name := range header {
		if i >= len(row) {
			break
		}
		if rec.SetField(name, row[i]) {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]string)
		}
		rec.Extra[strings.TrimSpace(name)] = row[i]
	}
	return rec
}
