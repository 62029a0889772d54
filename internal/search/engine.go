// Package search implements the aos.SearchEngine interface on top of the
// bleve full-text engine. The index is always fully rebuilt from the
// catalog's current view, never incrementally updated.
package search

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/BCM-HGSC/aws-object-search/internal/aos"
)

// batchSize bounds memory while feeding large catalogs into the index.
const batchSize = 1000

// BleveEngine stores documents in a bleve index directory.
type BleveEngine struct {
	logger aos.Logger
}

// NewBleveEngine creates a bleve-backed search engine.
func NewBleveEngine(logger aos.Logger) *BleveEngine {
	return &BleveEngine{logger: logger}
}

// buildMapping returns the fixed schema: one stored text field per index
// attribute, with bare query terms matching against the key field.
func buildMapping() mapping.IndexMapping {
	field := bleve.NewTextFieldMapping()
	field.Store = true

	doc := bleve.NewDocumentMapping()
	for _, name := range aos.IndexFields {
		doc.AddFieldMappingsAt(name, field)
	}

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultField = "key"
	return m
}

// Rebuild fully replaces the index at indexPath. The new index is built in
// a temporary sibling directory and atomically renamed into place, so
// concurrent readers only race the swap itself, not the whole build.
func (e *BleveEngine) Rebuild(indexPath string, docs aos.DocumentSource) (int, error) {
	parent := filepath.Dir(indexPath)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return 0, fmt.Errorf("creating index parent directory: %w", err)
	}

	buildDir, err := os.MkdirTemp(parent, ".index-build-*")
	if err != nil {
		return 0, fmt.Errorf("creating index build directory: %w", err)
	}
	defer os.RemoveAll(buildDir)

	buildPath := filepath.Join(buildDir, "index")
	idx, err := bleve.New(buildPath, buildMapping())
	if err != nil {
		return 0, fmt.Errorf("creating index: %w", err)
	}

	count, err := e.addDocuments(idx, docs)
	if cerr := idx.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing index: %w", cerr)
	}
	if err != nil {
		return 0, err
	}

	if err := os.RemoveAll(indexPath); err != nil {
		return 0, fmt.Errorf("removing previous index: %w", err)
	}
	if err := os.Rename(buildPath, indexPath); err != nil {
		return 0, fmt.Errorf("publishing index: %w", err)
	}
	if err := fixPermissions(indexPath); err != nil {
		return 0, err
	}
	return count, nil
}

func (e *BleveEngine) addDocuments(idx bleve.Index, docs aos.DocumentSource) (int, error) {
	batch := idx.NewBatch()
	count := 0

	err := docs(func(doc map[string]string) error {
		// Bucket plus key is unique within the current view.
		id := doc["bucket_name"] + "/" + doc["key"]
		if err := batch.Index(id, doc); err != nil {
			return fmt.Errorf("batching document %s: %w", id, err)
		}
		count++
		if batch.Size() >= batchSize {
			if err := idx.Batch(batch); err != nil {
				return fmt.Errorf("indexing batch: %w", err)
			}
			batch.Reset()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			return 0, fmt.Errorf("indexing final batch: %w", err)
		}
	}
	return count, nil
}

// fixPermissions makes index metadata group/world-readable so multiple
// local users sharing the catalog can query without permission errors.
func fixPermissions(indexPath string) error {
	err := filepath.WalkDir(indexPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.Chmod(path, 0755)
		}
		return os.Chmod(path, 0644)
	})
	if err != nil {
		return fmt.Errorf("fixing index permissions: %w", err)
	}
	return nil
}

// Query parses query against the key field, runs it capped at maxResults,
// and decodes each hit into an aos.SearchHit. Fields absent from a stored
// document default to the MISSING sentinel; a field with other than
// exactly one stored value is logged but not fatal.
func (e *BleveEngine) Query(indexPath, query string, maxResults int) ([]aos.QueryResult, error) {
	idx, err := bleve.Open(indexPath)
	if err != nil {
		return nil, fmt.Errorf("opening index %s: %w", indexPath, err)
	}
	defer idx.Close()

	q := bleve.NewQueryStringQuery(query)
	req := bleve.NewSearchRequestOptions(q, maxResults, 0, false)
	req.Fields = []string{"*"}

	res, err := idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}

	results := make([]aos.QueryResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		rec := aos.NewSearchHit()
		for _, name := range aos.IndexFields {
			stored, ok := hit.Fields[name]
			if !ok {
				continue
			}
			rec.SetField(name, e.decodeField(name, stored))
		}
		results = append(results, aos.QueryResult{Score: hit.Score, Hit: rec})
	}
	return results, nil
}

func (e *BleveEngine) decodeField(name string, stored any) string {
	switch v := stored.(type) {
	case string:
		return v
	case []any:
		if len(v) != 1 {
			e.logger.Warn("abnormal stored value count for field", "field", name, "count", len(v))
		}
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ";")
	default:
		return fmt.Sprint(v)
	}
}

// Compile-time check that BleveEngine implements aos.SearchEngine.
var _ aos.SearchEngine = (*BleveEngine)(nil)
