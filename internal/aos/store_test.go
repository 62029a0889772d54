package aos

import (
	"compress/gzip"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeFixture writes a snapshot file directly, bypassing the writer.
// Names ending in .gz are gzipped.
func writeFixture(t *testing.T, dir, name string, rows [][]string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	tsv := csv.NewWriter(f)
	var gz *gzip.Writer
	if strings.HasSuffix(name, ".gz") {
		gz = gzip.NewWriter(f)
		tsv = csv.NewWriter(gz)
	}
	tsv.Comma = '\t'

	if err := tsv.Write(TSVFields); err != nil {
		t.Fatal(err)
	}
	for _, row := range rows {
		if err := tsv.Write(row); err != nil {
			t.Fatal(err)
		}
	}
	tsv.Flush()
	if err := tsv.Error(); err != nil {
		t.Fatal(err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func row(key, size string) []string {
	return []string{"2025-03-31T01:37:05Z", size, "DEEP_ARCHIVE", "etag-" + key, "SHA256", "FULL_OBJECT", key}
}

// simpleCatalog mirrors a catalog with two buckets scanned twice and two
// scanned once each.
func simpleCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFixture(t, dir, "20250503-164831-hgsc-a-1-2-3.tsv", [][]string{row("a-old.json", "1")})
	writeFixture(t, dir, "20250503-164832-hgsc-c-123.tsv", [][]string{row("c-old.json", "2")})
	writeFixture(t, dir, "20250504-164832-hgsc-a-1-2-3.tsv", [][]string{row("a-new.json", "3")})
	writeFixture(t, dir, "20250504-164833-hgsc-c-123.tsv", [][]string{row("c-new.json", "4")})
	writeFixture(t, dir, "20250504-164834-hgsc-d.tsv", [][]string{
		row("Sample_H575JDSXX-1-IDUDI0003/H575JDSXX_R1.fastq.gz", "2869776186"),
		row("Sample_H575JDSXX-1-IDUDI0003/H575JDSXX_R2.fastq.gz", "2873774843"),
		row("Sample_H575JDSXX-1-IDUDI0003/SEDefn.json", "1407"),
	})
	writeFixture(t, dir, "20250505-164832-hgsc-b123.tsv.gz", [][]string{row("b.json", "5")})
	return dir
}

func TestStore_AllSnapshots(t *testing.T) {
	dir := simpleCatalog(t)
	store := NewStore(dir, NewNopLogger())

	all, err := store.AllSnapshots()
	if err != nil {
		t.Fatalf("AllSnapshots() error = %v", err)
	}
	if len(all) != 6 {
		t.Fatalf("len(AllSnapshots()) = %d, want 6", len(all))
	}

	// Uncompressed snapshots come first, compressed last.
	if all[len(all)-1].FileName() != "20250505-164832-hgsc-b123.tsv.gz" {
		t.Errorf("last snapshot = %q, want the compressed one", all[len(all)-1].FileName())
	}
	for _, snap := range all[:len(all)-1] {
		if snap.Compressed {
			t.Errorf("compressed snapshot %q before uncompressed ones", snap.FileName())
		}
	}
}

func TestStore_AllSnapshots_skipsUnparseableNames(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "20250504-164832-hgsc-a-1-2-3.tsv", [][]string{row("a.json", "1")})
	// An unrelated file with the snapshot extension but an invalid name.
	if err := os.WriteFile(filepath.Join(dir, "notes.tsv"), []byte("x\n"), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(dir, NewNopLogger())
	all, err := store.AllSnapshots()
	if err != nil {
		t.Fatalf("AllSnapshots() error = %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("len(AllSnapshots()) = %d, want 1 (bad name skipped)", len(all))
	}
}

func TestStore_AllSnapshots_emptyOrMissingRoot(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope"), NewNopLogger())
	all, err := store.AllSnapshots()
	if err != nil {
		t.Fatalf("AllSnapshots() error = %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("len(AllSnapshots()) = %d, want 0", len(all))
	}
}

func TestStore_CurrentView(t *testing.T) {
	dir := simpleCatalog(t)
	store := NewStore(dir, NewNopLogger())

	view, err := store.CurrentView()
	if err != nil {
		t.Fatalf("CurrentView() error = %v", err)
	}

	want := []string{
		"20250504-164832-hgsc-a-1-2-3.tsv",
		"20250504-164833-hgsc-c-123.tsv",
		"20250504-164834-hgsc-d.tsv",
		"20250505-164832-hgsc-b123.tsv.gz",
	}
	if len(view) != len(want) {
		t.Fatalf("len(CurrentView()) = %d, want %d", len(view), len(want))
	}
	for i, snap := range view {
		if snap.FileName() != want[i] {
			t.Errorf("CurrentView()[%d] = %q, want %q", i, snap.FileName(), want[i])
		}
	}
}

func TestStore_CurrentView_atMostOnePerBucket(t *testing.T) {
	dir := simpleCatalog(t)
	store := NewStore(dir, NewNopLogger())

	view, err := store.CurrentView()
	if err != nil {
		t.Fatalf("CurrentView() error = %v", err)
	}

	seen := make(map[string]bool)
	for _, snap := range view {
		if seen[snap.BucketName] {
			t.Errorf("bucket %q appears twice in current view", snap.BucketName)
		}
		seen[snap.BucketName] = true
	}
}

func TestStore_CurrentContents_preservesFileOrder(t *testing.T) {
	dir := simpleCatalog(t)
	store := NewStore(dir, NewNopLogger())

	var keys []string
	err := store.CurrentContents(func(snap Snapshot, rec ObjectRecord) error {
		if snap.BucketName == "hgsc-d" {
			keys = append(keys, rec.Key)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("CurrentContents() error = %v", err)
	}

	want := []string{
		"Sample_H575JDSXX-1-IDUDI0003/H575JDSXX_R1.fastq.gz",
		"Sample_H575JDSXX-1-IDUDI0003/H575JDSXX_R2.fastq.gz",
		"Sample_H575JDSXX-1-IDUDI0003/SEDefn.json",
	}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestStore_IterDocs(t *testing.T) {
	dir := simpleCatalog(t)
	store := NewStore(dir, NewNopLogger())

	var docs []map[string]string
	err := store.IterDocs(func(doc map[string]string) error {
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		t.Fatalf("IterDocs() error = %v", err)
	}

	// 1 + 1 + 3 + 1 current records.
	if len(docs) != 6 {
		t.Fatalf("len(docs) = %d, want 6", len(docs))
	}

	first := docs[0]
	if first["scan_start"] != "2025-05-04T16:48:32" {
		t.Errorf("scan_start = %q", first["scan_start"])
	}
	if first["bucket_name"] != "hgsc-a-1-2-3" {
		t.Errorf("bucket_name = %q", first["bucket_name"])
	}
	if first["key"] != "a-new.json" {
		t.Errorf("key = %q", first["key"])
	}
	if first["size"] != "3" {
		t.Errorf("size = %q", first["size"])
	}

	last := docs[len(docs)-1]
	if last["bucket_name"] != "hgsc-b123" {
		t.Errorf("last bucket_name = %q", last["bucket_name"])
	}
	if last["key"] != "b.json" {
		t.Errorf("last key = %q", last["key"])
	}
}

func TestStore_IterDocs_compressionIsTransparent(t *testing.T) {
	rows := [][]string{row("x.json", "10"), row("y.json", "20")}

	plainDir := t.TempDir()
	writeFixture(t, plainDir, "20250504-164832-bucket.tsv", rows)
	gzDir := t.TempDir()
	writeFixture(t, gzDir, "20250504-164832-bucket.tsv.gz", rows)

	collect := func(dir string) []map[string]string {
		var docs []map[string]string
		err := NewStore(dir, NewNopLogger()).IterDocs(func(doc map[string]string) error {
			docs = append(docs, doc)
			return nil
		})
		if err != nil {
			t.Fatalf("IterDocs() error = %v", err)
		}
		return docs
	}

	plain := collect(plainDir)
	gzipped := collect(gzDir)

	if len(plain) != len(gzipped) {
		t.Fatalf("doc counts differ: %d vs %d", len(plain), len(gzipped))
	}
	for i := range plain {
		for k, v := range plain[i] {
			if gzipped[i][k] != v {
				t.Errorf("doc %d field %q: plain %q, gzipped %q", i, k, v, gzipped[i][k])
			}
		}
	}
}
