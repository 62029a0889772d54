// Package catalogtest provides in-memory and on-disk fakes for testing the
// catalog pipeline without AWS access.
package catalogtest

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BCM-HGSC/aws-object-search/internal/aos"
)

// Header is the canonical snapshot header row.
func Header() []string {
	return append([]string(nil), aos.TSVFields...)
}

// Row builds one snapshot row in canonical column order.
func Row(lastModified, size, storageClass, eTag, checksumAlgorithm, checksumType, key string) []string {
	return []string{lastModified, size, storageClass, eTag, checksumAlgorithm, checksumType, key}
}

// WriteSnapshotFile writes a snapshot file with the given name directly into
// dir, bypassing the snapshot writer. Names ending in .gz are gzipped.
func WriteSnapshotFile(dir, name string, rows [][]string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	tsv := csv.NewWriter(f)
	var gz *gzip.Writer
	if strings.HasSuffix(name, ".gz") {
		gz = gzip.NewWriter(f)
		tsv = csv.NewWriter(gz)
	}
	tsv.Comma = '\t'

	if err := tsv.Write(Header()); err != nil {
		return "", err
	}
	for _, row := range rows {
		if err := tsv.Write(row); err != nil {
			return "", err
		}
	}
	tsv.Flush()
	if err := tsv.Error(); err != nil {
		return "", err
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return "", err
		}
	}
	return path, nil
}

// MemoryLister is an in-memory aos.BucketLister.
type MemoryLister struct {
	// Buckets maps bucket name to its listing entries.
	Buckets map[string][]map[string]any
	// FailBuckets maps bucket name to an error returned by ListObjects.
	FailBuckets map[string]error
	// ListErr, when set, is returned by ListBuckets (e.g. an auth failure).
	ListErr error
}

func (m *MemoryLister) ListBuckets(_ context.Context, prefix string) ([]string, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var names []string
	for name := range m.Buckets {
		if prefix == "" || strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryLister) ListObjects(_ context.Context, bucket string, fn func(entry map[string]any) error) error {
	if err, ok := m.FailBuckets[bucket]; ok {
		return err
	}
	entries, ok := m.Buckets[bucket]
	if !ok {
		return fmt.Errorf("no such bucket: %s", bucket)
	}
	for _, entry := range entries {
		if err := fn(entry); err != nil {
			return err
		}
	}
	return nil
}

// FakeEngine records Rebuild/Query calls without a real index.
type FakeEngine struct {
	RebuildCalls int
	LastPath     string
	Docs         []map[string]string
	RebuildErr   error
	Results      []aos.QueryResult
}

func (e *FakeEngine) Rebuild(indexPath string, docs aos.DocumentSource) (int, error) {
	if e.RebuildErr != nil {
		return 0, e.RebuildErr
	}
	e.RebuildCalls++
	e.LastPath = indexPath
	e.Docs = nil
	err := docs(func(doc map[string]string) error {
		copied := make(map[string]string, len(doc))
		for k, v := range doc {
			copied[k] = v
		}
		e.Docs = append(e.Docs, copied)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(e.Docs), nil
}

func (e *FakeEngine) Query(string, string, int) ([]aos.QueryResult, error) {
	return e.Results, nil
}

// Compile-time checks
var (
	_ aos.BucketLister = (*MemoryLister)(nil)
	_ aos.SearchEngine = (*FakeEngine)(nil)
)
